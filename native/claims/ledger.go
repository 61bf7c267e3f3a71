package claims

import (
	"errors"
	"time"

	"musechain/core/events"
)

var (
	errNilState = errors.New("claim ledger: state not configured")

	// ErrClaimNotFound marks lookups for absent claims.
	ErrClaimNotFound = errors.New("claim ledger: claim not found")
	// ErrClaimExists is returned when a claim already links the same
	// (original, derivative) pair. Overwriting would let the derivative side
	// unilaterally rewrite agreed share terms, so duplicates are rejected.
	ErrClaimExists = errors.New("claim ledger: claim already exists")
	// ErrInvalidShare marks share terms above the 5000 bps cap. Violating
	// requests are rejected, never clamped.
	ErrInvalidShare = errors.New("claim ledger: revenue share exceeds maximum")
	// ErrInvalidProofType marks proof types outside the closed enumeration.
	ErrInvalidProofType = errors.New("claim ledger: invalid proof type")
)

type ledgerState interface {
	ClaimGet(id [32]byte) (*Claim, bool, error)
	ClaimPut(claim *Claim) error
	ClaimIndexGet(originalID [32]byte) ([][32]byte, error)
	ClaimIndexPut(originalID [32]byte, ids [][32]byte) error
	ClaimDerivativeIndexGet(derivativeID [32]byte) ([][32]byte, error)
	ClaimDerivativeIndexPut(derivativeID [32]byte, ids [][32]byte) error
}

// Ledger owns inspiration claims and the per-original claim index consumed by
// the distribution engine.
type Ledger struct {
	state   ledgerState
	emitter events.Emitter
	nowFn   func() int64
}

// NewLedger constructs a claim ledger with a no-op emitter.
func NewLedger() *Ledger {
	return &Ledger{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state ledgerState) { l.state = state }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (l *Ledger) SetNowFunc(now func() int64) {
	if now == nil {
		l.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	l.nowFn = now
}

func (l *Ledger) now() int64 {
	if l == nil || l.nowFn == nil {
		return time.Now().Unix()
	}
	return l.nowFn()
}

func (l *Ledger) emit(evt events.Event) {
	if l == nil || l.emitter == nil || evt == nil {
		return
	}
	l.emitter.Emit(evt)
}

// Create records a new inspiration claim between the supplied pair. The claim
// id is derived from the pair, so a second claim for the same ordered pair is
// rejected with ErrClaimExists.
func (l *Ledger) Create(original, derivative [32]byte, originalAsset, derivativeAsset [20]byte, shareBps uint32, proofHash string, proofType ProofType) (*Claim, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	if shareBps > MaxShareBps {
		return nil, ErrInvalidShare
	}
	if !proofType.Valid() {
		return nil, ErrInvalidProofType
	}
	id := ComputeClaimID(original, derivative)
	if _, ok, err := l.state.ClaimGet(id); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrClaimExists
	}
	claim := &Claim{
		ID:              id,
		Original:        original,
		Derivative:      derivative,
		OriginalAsset:   originalAsset,
		DerivativeAsset: derivativeAsset,
		ShareBps:        shareBps,
		ProofHash:       proofHash,
		ProofType:       proofType,
		CreatedAt:       l.now(),
	}
	if err := l.state.ClaimPut(claim); err != nil {
		return nil, err
	}
	index, err := l.state.ClaimIndexGet(original)
	if err != nil {
		return nil, err
	}
	index = append(index, id)
	if err := l.state.ClaimIndexPut(original, index); err != nil {
		return nil, err
	}
	derivIndex, err := l.state.ClaimDerivativeIndexGet(derivative)
	if err != nil {
		return nil, err
	}
	derivIndex = append(derivIndex, id)
	if err := l.state.ClaimDerivativeIndexPut(derivative, derivIndex); err != nil {
		return nil, err
	}
	l.emit(events.ClaimCreated{
		ID:         claim.ID,
		Original:   claim.Original,
		Derivative: claim.Derivative,
		ShareBps:   claim.ShareBps,
		ProofType:  claim.ProofType.String(),
		CreatedAt:  claim.CreatedAt,
	})
	return claim.Clone(), nil
}

// MarkVerified transitions a claim from Unverified to Verified. A false
// verdict is a no-op: the claim simply stays unverified, with no retry
// bookkeeping. A verified claim is never reset.
func (l *Ledger) MarkVerified(id [32]byte, verified bool) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	claim, ok, err := l.state.ClaimGet(id)
	if err != nil {
		return err
	}
	if !ok || claim == nil {
		return nil
	}
	if !verified {
		l.emit(events.ClaimVerificationFailed{ID: id, ProofHash: claim.ProofHash})
		return nil
	}
	if claim.ProofVerified {
		return nil
	}
	claim.ProofVerified = true
	if err := l.state.ClaimPut(claim); err != nil {
		return err
	}
	l.emit(events.ClaimVerified{ID: id, ProofHash: claim.ProofHash})
	return nil
}

// Dispute sets the monotonic dispute flag. Disputing an already disputed
// claim is harmless; the second return reports whether the flag transitioned
// on this call, so callers apply dispute side effects exactly once. Caller
// authorization is enforced by the orchestration layer, which owns the
// registry lookup for the original's creator.
func (l *Ledger) Dispute(id [32]byte) (*Claim, bool, error) {
	if l == nil || l.state == nil {
		return nil, false, errNilState
	}
	claim, ok, err := l.state.ClaimGet(id)
	if err != nil {
		return nil, false, err
	}
	if !ok || claim == nil {
		return nil, false, ErrClaimNotFound
	}
	if claim.Disputed {
		return claim.Clone(), false, nil
	}
	claim.Disputed = true
	if err := l.state.ClaimPut(claim); err != nil {
		return nil, false, err
	}
	return claim.Clone(), true, nil
}

// Get returns the claim for the supplied id.
func (l *Ledger) Get(id [32]byte) (*Claim, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	claim, ok, err := l.state.ClaimGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || claim == nil {
		return nil, ErrClaimNotFound
	}
	return claim.Clone(), nil
}

// ClaimsForOriginal returns every claim naming the supplied content id as the
// original, in creation order.
func (l *Ledger) ClaimsForOriginal(originalID [32]byte) ([]*Claim, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	index, err := l.state.ClaimIndexGet(originalID)
	if err != nil {
		return nil, err
	}
	return l.resolve(index)
}

// ClaimsForDerivative returns every claim naming the supplied content id as
// the derivative, in creation order.
func (l *Ledger) ClaimsForDerivative(derivativeID [32]byte) ([]*Claim, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	index, err := l.state.ClaimDerivativeIndexGet(derivativeID)
	if err != nil {
		return nil, err
	}
	return l.resolve(index)
}

func (l *Ledger) resolve(index [][32]byte) ([]*Claim, error) {
	out := make([]*Claim, 0, len(index))
	for _, id := range index {
		claim, ok, err := l.state.ClaimGet(id)
		if err != nil {
			return nil, err
		}
		if !ok || claim == nil {
			continue
		}
		out = append(out, claim.Clone())
	}
	return out, nil
}
