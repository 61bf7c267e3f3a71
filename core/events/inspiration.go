package events

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"musechain/core/types"
	"musechain/crypto"
)

const (
	TypeContentRegistered       = "content.registered"
	TypeContentOwnerChanged     = "content.ownershipTransferred"
	TypeClaimCreated            = "claim.created"
	TypeClaimVerified           = "claim.verified"
	TypeClaimVerificationFailed = "claim.verificationFailed"
	TypeClaimDisputed           = "claim.disputed"
	TypeRevenueFeesAccrued      = "revenue.feesAccrued"
	TypeRevenueDistributed      = "revenue.distributed"
	TypeRevenueClaimed          = "revenue.claimed"
)

type ContentRegistered struct {
	ID          [32]byte
	Creator     [20]byte
	Asset       [20]byte
	Fingerprint string
	CreatedAt   int64
}

func (ContentRegistered) EventType() string { return TypeContentRegistered }

func (e ContentRegistered) Event() *types.Event {
	return &types.Event{
		Type: TypeContentRegistered,
		Attributes: map[string]string{
			"id":          hex.EncodeToString(e.ID[:]),
			"creator":     crypto.NewAddress(crypto.MusePrefix, e.Creator[:]).String(),
			"asset":       hex.EncodeToString(e.Asset[:]),
			"fingerprint": e.Fingerprint,
			"createdAt":   intToString(e.CreatedAt),
		},
	}
}

type ContentOwnerChanged struct {
	ID            [32]byte
	PreviousOwner [20]byte
	NewOwner      [20]byte
}

func (ContentOwnerChanged) EventType() string { return TypeContentOwnerChanged }

func (e ContentOwnerChanged) Event() *types.Event {
	return &types.Event{
		Type: TypeContentOwnerChanged,
		Attributes: map[string]string{
			"id":            hex.EncodeToString(e.ID[:]),
			"previousOwner": crypto.NewAddress(crypto.MusePrefix, e.PreviousOwner[:]).String(),
			"newOwner":      crypto.NewAddress(crypto.MusePrefix, e.NewOwner[:]).String(),
		},
	}
}

type ClaimCreated struct {
	ID         [32]byte
	Original   [32]byte
	Derivative [32]byte
	ShareBps   uint32
	ProofType  string
	CreatedAt  int64
}

func (ClaimCreated) EventType() string { return TypeClaimCreated }

func (e ClaimCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeClaimCreated,
		Attributes: map[string]string{
			"id":         hex.EncodeToString(e.ID[:]),
			"original":   hex.EncodeToString(e.Original[:]),
			"derivative": hex.EncodeToString(e.Derivative[:]),
			"shareBps":   strconv.FormatUint(uint64(e.ShareBps), 10),
			"proofType":  e.ProofType,
			"createdAt":  intToString(e.CreatedAt),
		},
	}
}

type ClaimVerified struct {
	ID        [32]byte
	ProofHash string
}

func (ClaimVerified) EventType() string { return TypeClaimVerified }

func (e ClaimVerified) Event() *types.Event {
	return &types.Event{
		Type: TypeClaimVerified,
		Attributes: map[string]string{
			"id":        hex.EncodeToString(e.ID[:]),
			"proofHash": e.ProofHash,
		},
	}
}

type ClaimVerificationFailed struct {
	ID        [32]byte
	ProofHash string
}

func (ClaimVerificationFailed) EventType() string { return TypeClaimVerificationFailed }

func (e ClaimVerificationFailed) Event() *types.Event {
	return &types.Event{
		Type: TypeClaimVerificationFailed,
		Attributes: map[string]string{
			"id":        hex.EncodeToString(e.ID[:]),
			"proofHash": e.ProofHash,
		},
	}
}

type ClaimDisputed struct {
	ID                [32]byte
	Disputer          [20]byte
	DerivativeCreator [20]byte
}

func (ClaimDisputed) EventType() string { return TypeClaimDisputed }

func (e ClaimDisputed) Event() *types.Event {
	return &types.Event{
		Type: TypeClaimDisputed,
		Attributes: map[string]string{
			"id":                hex.EncodeToString(e.ID[:]),
			"disputer":          crypto.NewAddress(crypto.MusePrefix, e.Disputer[:]).String(),
			"derivativeCreator": crypto.NewAddress(crypto.MusePrefix, e.DerivativeCreator[:]).String(),
		},
	}
}

type RevenueFeesAccrued struct {
	ContentID [32]byte
	Amount    *big.Int
}

func (RevenueFeesAccrued) EventType() string { return TypeRevenueFeesAccrued }

func (e RevenueFeesAccrued) Event() *types.Event {
	return &types.Event{
		Type: TypeRevenueFeesAccrued,
		Attributes: map[string]string{
			"contentId": hex.EncodeToString(e.ContentID[:]),
			"amount":    formatAmount(e.Amount),
		},
	}
}

type RevenueDistributed struct {
	ClaimID     [32]byte
	Asset       [20]byte
	Beneficiary [20]byte
	Amount      *big.Int
	Bonus       *big.Int
}

func (RevenueDistributed) EventType() string { return TypeRevenueDistributed }

func (e RevenueDistributed) Event() *types.Event {
	return &types.Event{
		Type: TypeRevenueDistributed,
		Attributes: map[string]string{
			"claimId":     hex.EncodeToString(e.ClaimID[:]),
			"asset":       hex.EncodeToString(e.Asset[:]),
			"beneficiary": crypto.NewAddress(crypto.MusePrefix, e.Beneficiary[:]).String(),
			"amount":      formatAmount(e.Amount),
			"bonus":       formatAmount(e.Bonus),
		},
	}
}

type RevenueClaimed struct {
	Asset       [20]byte
	Beneficiary [20]byte
	Amount      *big.Int
}

func (RevenueClaimed) EventType() string { return TypeRevenueClaimed }

func (e RevenueClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeRevenueClaimed,
		Attributes: map[string]string{
			"asset":       hex.EncodeToString(e.Asset[:]),
			"beneficiary": crypto.NewAddress(crypto.MusePrefix, e.Beneficiary[:]).String(),
			"amount":      formatAmount(e.Amount),
		},
	}
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func intToString(v int64) string {
	return strconv.FormatInt(v, 10)
}
