package revenue

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

const (
	// BpsDenominator is the basis-point scale: 10000 bps = 100%.
	BpsDenominator = 10_000
	// ProofBonusBps is the flat uplift applied on top of a verified claim's
	// share. The bonus is computed on the share, not on the fee.
	ProofBonusBps = 200
)

// ErrShareUnderflow is returned when moving the proof bonus out of the
// derivative share would drive it negative.
var ErrShareUnderflow = errors.New("revenue: derivative share underflow")

// mulDivBps computes floor(amount * bps / 10000). The hot path runs on
// 256-bit words so amount*bps cannot overflow before the division; amounts
// beyond 256 bits fall back to arbitrary precision.
func mulDivBps(amount *big.Int, bps uint32) *big.Int {
	if amount == nil || amount.Sign() <= 0 || bps == 0 {
		return big.NewInt(0)
	}
	if v, overflow := uint256.FromBig(amount); !overflow {
		product, overflow := new(uint256.Int).MulOverflow(v, uint256.NewInt(uint64(bps)))
		if !overflow {
			return product.Div(product, uint256.NewInt(BpsDenominator)).ToBig()
		}
	}
	out := new(big.Int).Mul(amount, big.NewInt(int64(bps)))
	return out.Div(out, big.NewInt(BpsDenominator))
}

// ShareAmount returns the original creator's cut of a fee amount under the
// claim's share terms, truncating division.
func ShareAmount(fee *big.Int, shareBps uint32) *big.Int {
	return mulDivBps(fee, shareBps)
}

// ProofBonus returns the verified-claim uplift for an already computed share.
func ProofBonus(share *big.Int) *big.Int {
	return mulDivBps(share, ProofBonusBps)
}

// Split captures the three-way division of a direct revenue transfer.
type Split struct {
	Original   *big.Int
	Platform   *big.Int
	Derivative *big.Int
	Bonus      *big.Int
}

// SplitDirect divides a pushed revenue amount between the original creator,
// the platform and the derivative creator. When the claim is verified a
// ProofBonusBps uplift on the original share moves from the derivative share
// into the original share; the platform fee is never touched. The derivative
// share must not go negative.
func SplitDirect(amount *big.Int, shareBps, platformFeeBps uint32, verified bool) (Split, error) {
	if amount == nil {
		amount = big.NewInt(0)
	}
	split := Split{
		Original: mulDivBps(amount, shareBps),
		Platform: mulDivBps(amount, platformFeeBps),
		Bonus:    big.NewInt(0),
	}
	derivative := new(big.Int).Set(amount)
	derivative.Sub(derivative, split.Original)
	derivative.Sub(derivative, split.Platform)
	if derivative.Sign() < 0 {
		return Split{}, ErrShareUnderflow
	}
	if verified {
		bonus := ProofBonus(split.Original)
		if derivative.Cmp(bonus) < 0 {
			return Split{}, ErrShareUnderflow
		}
		derivative.Sub(derivative, bonus)
		split.Original = new(big.Int).Add(split.Original, bonus)
		split.Bonus = bonus
	}
	split.Derivative = derivative
	return split, nil
}
