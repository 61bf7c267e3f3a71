package claims

import (
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// MaxShareBps caps the revenue share a derivative can cede to its original.
const MaxShareBps uint32 = 5000

// ProofType enumerates the supported provenance proof categories. Only
// similarity proofs are checked against the oracle; the remaining kinds stay
// unverified and simply earn no bonus.
type ProofType uint8

const (
	ProofDeclaredOnly ProofType = iota
	ProofSimilarity
	ProofContentFingerprint
	ProofCommunityVerified
)

// Valid reports whether the proof type is within the supported range.
func (p ProofType) Valid() bool {
	switch p {
	case ProofDeclaredOnly, ProofSimilarity, ProofContentFingerprint, ProofCommunityVerified:
		return true
	default:
		return false
	}
}

// RequiresOracle reports whether claims of this proof type are submitted to
// the proof oracle for verification.
func (p ProofType) RequiresOracle() bool {
	return p == ProofSimilarity
}

func (p ProofType) String() string {
	switch p {
	case ProofDeclaredOnly:
		return "declared"
	case ProofSimilarity:
		return "similarity"
	case ProofContentFingerprint:
		return "fingerprint"
	case ProofCommunityVerified:
		return "community"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(p))
	}
}

// ParseProofType resolves the canonical string form used on the RPC surface.
func ParseProofType(value string) (ProofType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "declared", "":
		return ProofDeclaredOnly, nil
	case "similarity":
		return ProofSimilarity, nil
	case "fingerprint":
		return ProofContentFingerprint, nil
	case "community":
		return ProofCommunityVerified, nil
	default:
		return 0, fmt.Errorf("claims: unknown proof type %q", value)
	}
}

// Claim records a declared original -> derivative inspiration relationship
// together with its revenue-share terms. The asset addresses are denormalised
// copies captured at creation time. ProofVerified and Disputed are both
// monotonic: once set they are never cleared.
type Claim struct {
	ID              [32]byte  `json:"id"`
	Original        [32]byte  `json:"original"`
	Derivative      [32]byte  `json:"derivative"`
	OriginalAsset   [20]byte  `json:"originalAsset"`
	DerivativeAsset [20]byte  `json:"derivativeAsset"`
	ShareBps        uint32    `json:"shareBps"`
	ProofHash       string    `json:"proofHash"`
	ProofType       ProofType `json:"proofType"`
	ProofVerified   bool      `json:"proofVerified"`
	Disputed        bool      `json:"disputed"`
	CreatedAt       int64     `json:"createdAt"`
}

// Clone returns a copy of the claim safe for caller mutation.
func (c *Claim) Clone() *Claim {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// ComputeClaimID derives the deterministic claim identifier from the ordered
// (original, derivative) pair. At most one claim exists per pair.
func ComputeClaimID(original, derivative [32]byte) [32]byte {
	digest := ethcrypto.Keccak256(original[:], derivative[:])
	var id [32]byte
	copy(id[:], digest)
	return id
}
