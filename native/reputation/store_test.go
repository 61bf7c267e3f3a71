package reputation

import (
	"errors"
	"testing"
)

type mockState struct {
	metrics map[[20]byte]*Metrics
}

func newMockState() *mockState {
	return &mockState{metrics: make(map[[20]byte]*Metrics)}
}

func (m *mockState) ReputationGet(creator [20]byte) (*Metrics, bool, error) {
	metrics, ok := m.metrics[creator]
	if !ok {
		return nil, false, nil
	}
	return metrics.Clone(), true, nil
}

func (m *mockState) ReputationPut(metrics *Metrics) error {
	m.metrics[metrics.Creator] = metrics.Clone()
	return nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	store.SetState(newMockState())
	return store
}

func creator(b byte) [20]byte {
	var out [20]byte
	out[0] = b
	return out
}

func TestApplyEventEffects(t *testing.T) {
	store := newTestStore(t)
	who := creator(1)

	metrics, err := store.Apply(who, EventDerivativeCreated)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if metrics.TotalDerivatives != 1 || metrics.CollaboratorScore != 10 {
		t.Fatalf("derivativeCreated effect wrong: %+v", metrics)
	}

	metrics, _ = store.Apply(who, EventInspiredOthers)
	if metrics.TotalInspirations != 1 || metrics.CollaboratorScore != 25 {
		t.Fatalf("inspiredOthers effect wrong: %+v", metrics)
	}

	metrics, _ = store.Apply(who, EventProofVerified)
	if metrics.SuccessfulCollaborations != 1 || metrics.CollaboratorScore != 50 {
		t.Fatalf("proofVerified effect wrong: %+v", metrics)
	}

	metrics, _ = store.Apply(who, EventClaimDisputed)
	if metrics.FraudFlags != 1 || metrics.CollaboratorScore != 0 {
		t.Fatalf("claimDisputed effect wrong: %+v", metrics)
	}
}

func TestDisputePenaltyFloorsAtZero(t *testing.T) {
	store := newTestStore(t)
	who := creator(2)

	metrics, err := store.Apply(who, EventClaimDisputed)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if metrics.CollaboratorScore != 0 {
		t.Fatalf("score went below zero: %d", metrics.CollaboratorScore)
	}
	if metrics.FraudFlags != 1 {
		t.Fatalf("fraud flags = %d", metrics.FraudFlags)
	}
}

func TestApplyRejectsUnknownEvent(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Apply(creator(1), Event(99)); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("err = %v, want ErrInvalidEvent", err)
	}
}

func TestGetReturnsZeroSnapshot(t *testing.T) {
	store := newTestStore(t)
	metrics, err := store.Get(creator(3))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if metrics.Creator != creator(3) {
		t.Fatalf("creator = %x", metrics.Creator)
	}
	if metrics.CollaboratorScore != 0 || metrics.FraudFlags != 0 {
		t.Fatalf("zero snapshot not zero: %+v", metrics)
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	who := creator(4)
	first, _ := store.Apply(who, EventDerivativeCreated)
	first.CollaboratorScore = 9999

	second, _ := store.Get(who)
	if second.CollaboratorScore != 10 {
		t.Fatalf("caller mutation leaked into the store: %d", second.CollaboratorScore)
	}
}
