package claims

import (
	"errors"
	"testing"
)

type mockState struct {
	claims     map[[32]byte]*Claim
	byOriginal map[[32]byte][][32]byte
	byDeriv    map[[32]byte][][32]byte
}

func newMockState() *mockState {
	return &mockState{
		claims:     make(map[[32]byte]*Claim),
		byOriginal: make(map[[32]byte][][32]byte),
		byDeriv:    make(map[[32]byte][][32]byte),
	}
}

func (m *mockState) ClaimGet(id [32]byte) (*Claim, bool, error) {
	claim, ok := m.claims[id]
	if !ok {
		return nil, false, nil
	}
	return claim.Clone(), true, nil
}

func (m *mockState) ClaimPut(claim *Claim) error {
	m.claims[claim.ID] = claim.Clone()
	return nil
}

func (m *mockState) ClaimIndexGet(originalID [32]byte) ([][32]byte, error) {
	return append([][32]byte(nil), m.byOriginal[originalID]...), nil
}

func (m *mockState) ClaimIndexPut(originalID [32]byte, ids [][32]byte) error {
	m.byOriginal[originalID] = append([][32]byte(nil), ids...)
	return nil
}

func (m *mockState) ClaimDerivativeIndexGet(derivativeID [32]byte) ([][32]byte, error) {
	return append([][32]byte(nil), m.byDeriv[derivativeID]...), nil
}

func (m *mockState) ClaimDerivativeIndexPut(derivativeID [32]byte, ids [][32]byte) error {
	m.byDeriv[derivativeID] = append([][32]byte(nil), ids...)
	return nil
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	ledger := NewLedger()
	ledger.SetState(newMockState())
	ledger.SetNowFunc(func() int64 { return 1_700_000_000 })
	return ledger
}

func id32(b byte) [32]byte {
	var out [32]byte
	out[0] = b
	return out
}

func asset20(b byte) [20]byte {
	var out [20]byte
	out[0] = b
	return out
}

func TestCreateDerivesIDFromPair(t *testing.T) {
	ledger := newTestLedger(t)
	claim, err := ledger.Create(id32(1), id32(2), asset20(1), asset20(2), 1000, "proof", ProofDeclaredOnly)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if claim.ID != ComputeClaimID(id32(1), id32(2)) {
		t.Fatalf("claim id not derived from the pair")
	}
	if claim.ProofVerified || claim.Disputed {
		t.Fatal("fresh claim must be unverified and undisputed")
	}
	if claim.CreatedAt != 1_700_000_000 {
		t.Fatalf("createdAt = %d", claim.CreatedAt)
	}
}

func TestCreateRejectsExcessiveShare(t *testing.T) {
	ledger := newTestLedger(t)
	if _, err := ledger.Create(id32(1), id32(2), asset20(1), asset20(2), MaxShareBps+1, "", ProofDeclaredOnly); !errors.Is(err, ErrInvalidShare) {
		t.Fatalf("err = %v, want ErrInvalidShare", err)
	}
	// The cap itself is allowed.
	if _, err := ledger.Create(id32(1), id32(2), asset20(1), asset20(2), MaxShareBps, "", ProofDeclaredOnly); err != nil {
		t.Fatalf("share at cap rejected: %v", err)
	}
}

func TestCreateRejectsInvalidProofType(t *testing.T) {
	ledger := newTestLedger(t)
	if _, err := ledger.Create(id32(1), id32(2), asset20(1), asset20(2), 100, "", ProofType(99)); !errors.Is(err, ErrInvalidProofType) {
		t.Fatalf("err = %v, want ErrInvalidProofType", err)
	}
}

func TestCreateRejectsDuplicatePair(t *testing.T) {
	ledger := newTestLedger(t)
	if _, err := ledger.Create(id32(1), id32(2), asset20(1), asset20(2), 100, "", ProofDeclaredOnly); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := ledger.Create(id32(1), id32(2), asset20(1), asset20(2), 500, "", ProofDeclaredOnly); !errors.Is(err, ErrClaimExists) {
		t.Fatalf("err = %v, want ErrClaimExists", err)
	}
}

func TestMarkVerifiedIsMonotonic(t *testing.T) {
	ledger := newTestLedger(t)
	claim, _ := ledger.Create(id32(1), id32(2), asset20(1), asset20(2), 100, "zk", ProofSimilarity)

	if err := ledger.MarkVerified(claim.ID, false); err != nil {
		t.Fatalf("negative verdict: %v", err)
	}
	got, _ := ledger.Get(claim.ID)
	if got.ProofVerified {
		t.Fatal("negative verdict flipped the flag")
	}

	if err := ledger.MarkVerified(claim.ID, true); err != nil {
		t.Fatalf("positive verdict: %v", err)
	}
	got, _ = ledger.Get(claim.ID)
	if !got.ProofVerified {
		t.Fatal("claim not verified after positive verdict")
	}

	// A later negative verdict never resets a verified claim.
	if err := ledger.MarkVerified(claim.ID, false); err != nil {
		t.Fatalf("late negative verdict: %v", err)
	}
	got, _ = ledger.Get(claim.ID)
	if !got.ProofVerified {
		t.Fatal("verified claim was reset")
	}
}

func TestDisputeIsIdempotent(t *testing.T) {
	ledger := newTestLedger(t)
	claim, _ := ledger.Create(id32(1), id32(2), asset20(1), asset20(2), 100, "", ProofDeclaredOnly)

	disputed, changed, err := ledger.Dispute(claim.ID)
	if err != nil {
		t.Fatalf("dispute: %v", err)
	}
	if !disputed.Disputed {
		t.Fatal("dispute flag not set")
	}
	if !changed {
		t.Fatal("first dispute not reported as a transition")
	}
	again, changed, err := ledger.Dispute(claim.ID)
	if err != nil {
		t.Fatalf("second dispute: %v", err)
	}
	if !again.Disputed {
		t.Fatal("dispute flag lost on repeat")
	}
	if changed {
		t.Fatal("repeat dispute reported as a transition")
	}
	if _, _, err := ledger.Dispute(id32(9)); !errors.Is(err, ErrClaimNotFound) {
		t.Fatalf("unknown claim: err = %v", err)
	}
}

func TestClaimIndexesTrackBothSides(t *testing.T) {
	ledger := newTestLedger(t)
	first, _ := ledger.Create(id32(1), id32(2), asset20(1), asset20(2), 100, "", ProofDeclaredOnly)
	second, _ := ledger.Create(id32(1), id32(3), asset20(1), asset20(3), 200, "", ProofDeclaredOnly)

	forOriginal, err := ledger.ClaimsForOriginal(id32(1))
	if err != nil {
		t.Fatalf("claims for original: %v", err)
	}
	if len(forOriginal) != 2 || forOriginal[0].ID != first.ID || forOriginal[1].ID != second.ID {
		t.Fatalf("original index order wrong: %v", forOriginal)
	}

	forDeriv, err := ledger.ClaimsForDerivative(id32(3))
	if err != nil {
		t.Fatalf("claims for derivative: %v", err)
	}
	if len(forDeriv) != 1 || forDeriv[0].ID != second.ID {
		t.Fatalf("derivative index wrong: %v", forDeriv)
	}
}

func TestParseProofType(t *testing.T) {
	cases := map[string]ProofType{
		"declared":    ProofDeclaredOnly,
		"":            ProofDeclaredOnly,
		"Similarity":  ProofSimilarity,
		"fingerprint": ProofContentFingerprint,
		"community":   ProofCommunityVerified,
	}
	for input, want := range cases {
		got, err := ParseProofType(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q = %v, want %v", input, got, want)
		}
	}
	if _, err := ParseProofType("psychic"); err == nil {
		t.Fatal("unknown proof type accepted")
	}
}
