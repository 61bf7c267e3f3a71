package revenue

import (
	"errors"
	"math/big"
	"testing"
)

func TestShareAmount(t *testing.T) {
	cases := []struct {
		fee      int64
		shareBps uint32
		want     int64
	}{
		{10_000, 1000, 1000},
		{10_000, 5000, 5000},
		// Truncating division, dust and zero inputs.
		{999, 1000, 99},
		{1, 1000, 0},
		{10_000, 0, 0},
		{0, 1000, 0},
	}
	for _, tc := range cases {
		got := ShareAmount(big.NewInt(tc.fee), tc.shareBps)
		if got.Int64() != tc.want {
			t.Fatalf("ShareAmount(%d, %d) = %s, want %d", tc.fee, tc.shareBps, got, tc.want)
		}
	}
}

func TestShareAmountLargeValues(t *testing.T) {
	// Amounts beyond 256 bits take the arbitrary-precision fallback.
	huge := new(big.Int).Lsh(big.NewInt(1), 300)
	got := ShareAmount(huge, 1000)
	want := new(big.Int).Div(new(big.Int).Mul(huge, big.NewInt(1000)), big.NewInt(BpsDenominator))
	if got.Cmp(want) != 0 {
		t.Fatalf("large share = %s, want %s", got, want)
	}
}

func TestProofBonusComputedOnShare(t *testing.T) {
	share := big.NewInt(1000)
	if got := ProofBonus(share); got.Int64() != 20 {
		t.Fatalf("ProofBonus(1000) = %s, want 20", got)
	}
}

func TestSplitDirectUnverified(t *testing.T) {
	split, err := SplitDirect(big.NewInt(10_000), 1000, 250, false)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if split.Original.Int64() != 1000 {
		t.Fatalf("original = %s, want 1000", split.Original)
	}
	if split.Platform.Int64() != 250 {
		t.Fatalf("platform = %s, want 250", split.Platform)
	}
	if split.Derivative.Int64() != 8750 {
		t.Fatalf("derivative = %s, want 8750", split.Derivative)
	}
	if split.Bonus.Sign() != 0 {
		t.Fatalf("unverified split carries a bonus: %s", split.Bonus)
	}
}

func TestSplitDirectVerifiedMovesBonusFromDerivative(t *testing.T) {
	split, err := SplitDirect(big.NewInt(10_000), 1000, 250, true)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if split.Bonus.Int64() != 20 {
		t.Fatalf("bonus = %s, want 20", split.Bonus)
	}
	if split.Original.Int64() != 1020 {
		t.Fatalf("original = %s, want 1020", split.Original)
	}
	// The platform fee is untouched; the bonus comes out of the derivative.
	if split.Platform.Int64() != 250 {
		t.Fatalf("platform = %s, want 250", split.Platform)
	}
	if split.Derivative.Int64() != 8730 {
		t.Fatalf("derivative = %s, want 8730", split.Derivative)
	}
	total := new(big.Int).Add(split.Original, split.Platform)
	total.Add(total, split.Derivative)
	if total.Int64() != 10_000 {
		t.Fatalf("split does not conserve the amount: %s", total)
	}
}

func TestSplitDirectUnderflow(t *testing.T) {
	// Share and platform fee together consume everything; the verified bonus
	// has nothing left to come out of.
	if _, err := SplitDirect(big.NewInt(10_000), 5000, 1000, true); err != nil {
		// 5000 + 1000 bps leaves 4000 for the derivative, so this succeeds.
		t.Fatalf("unexpected underflow: %v", err)
	}
	if _, err := SplitDirect(big.NewInt(100), 5000, 5000, true); !errors.Is(err, ErrShareUnderflow) {
		t.Fatalf("err = %v, want ErrShareUnderflow", err)
	}
}

func TestSplitDirectNilAmount(t *testing.T) {
	split, err := SplitDirect(nil, 1000, 250, false)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if split.Original.Sign() != 0 || split.Platform.Sign() != 0 || split.Derivative.Sign() != 0 {
		t.Fatalf("nil amount produced a non-zero split: %+v", split)
	}
}
