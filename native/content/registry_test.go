package content

import (
	"errors"
	"testing"
)

type mockState struct {
	records  map[[32]byte]*Record
	children map[[32]byte][][32]byte
	depths   map[[32]byte]uint64
}

func newMockState() *mockState {
	return &mockState{
		records:  make(map[[32]byte]*Record),
		children: make(map[[32]byte][][32]byte),
		depths:   make(map[[32]byte]uint64),
	}
}

func (m *mockState) ContentGet(id [32]byte) (*Record, bool, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (m *mockState) ContentPut(record *Record) error {
	m.records[record.ID] = record.Clone()
	return nil
}

func (m *mockState) ContentChildrenGet(id [32]byte) ([][32]byte, error) {
	return append([][32]byte(nil), m.children[id]...), nil
}

func (m *mockState) ContentChildrenPut(id [32]byte, children [][32]byte) error {
	m.children[id] = append([][32]byte(nil), children...)
	return nil
}

func (m *mockState) ContentDepthGet(id [32]byte) (uint64, bool, error) {
	depth, ok := m.depths[id]
	return depth, ok, nil
}

func (m *mockState) ContentDepthPut(id [32]byte, depth uint64) error {
	m.depths[id] = depth
	return nil
}

func newTestRegistry(t *testing.T) (*Registry, *mockState) {
	t.Helper()
	state := newMockState()
	registry := NewRegistry()
	registry.SetState(state)
	registry.SetNowFunc(func() int64 { return 1_700_000_000 })
	return registry, state
}

func addr(b byte) [20]byte {
	var out [20]byte
	out[0] = b
	return out
}

func salt(b byte) [32]byte {
	var out [32]byte
	out[0] = b
	return out
}

func TestRegisterAssignsDerivedIDAndRootDepth(t *testing.T) {
	registry, state := newTestRegistry(t)
	creator := addr(0x01)

	record, err := registry.Register(creator, "fp-hello", addr(0xAA), PoolReference{PoolKey: "p", PositionID: 7}, salt(1))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	want := DeriveID(creator, FingerprintDigest("fp-hello"), 1_700_000_000, salt(1))
	if record.ID != want {
		t.Fatalf("id mismatch: got %x want %x", record.ID, want)
	}
	if record.DerivativeCount != 0 {
		t.Fatalf("fresh record has derivative count %d", record.DerivativeCount)
	}
	if depth := state.depths[record.ID]; depth != 0 {
		t.Fatalf("root depth = %d, want 0", depth)
	}
}

func TestRegisterRejectsEmptyFingerprint(t *testing.T) {
	registry, _ := newTestRegistry(t)
	if _, err := registry.Register(addr(1), "   ", addr(2), PoolReference{}, salt(1)); !errors.Is(err, ErrFingerprintRequired) {
		t.Fatalf("err = %v, want ErrFingerprintRequired", err)
	}
}

func TestRegisterRejectsDuplicateID(t *testing.T) {
	registry, _ := newTestRegistry(t)
	if _, err := registry.Register(addr(1), "fp", addr(2), PoolReference{}, salt(1)); err != nil {
		t.Fatalf("first register: %v", err)
	}
	// Same creator, fingerprint, time and salt derive the same id.
	if _, err := registry.Register(addr(1), "fp", addr(3), PoolReference{}, salt(1)); !errors.Is(err, ErrDuplicateContent) {
		t.Fatalf("err = %v, want ErrDuplicateContent", err)
	}
}

func TestFingerprintNormalisation(t *testing.T) {
	if FingerprintDigest(" fp ") != FingerprintDigest("fp") {
		t.Fatal("surrounding whitespace should not change the digest")
	}
	if FingerprintDigest("fp-a") == FingerprintDigest("fp-b") {
		t.Fatal("distinct fingerprints collided")
	}
}

func TestLinkDerivativeUpdatesGraph(t *testing.T) {
	registry, _ := newTestRegistry(t)
	original, err := registry.Register(addr(1), "orig", addr(2), PoolReference{}, salt(1))
	if err != nil {
		t.Fatalf("register original: %v", err)
	}
	derivative, err := registry.Register(addr(3), "deriv", addr(4), PoolReference{}, salt(2))
	if err != nil {
		t.Fatalf("register derivative: %v", err)
	}

	if err := registry.LinkDerivative(original.ID, derivative.ID); err != nil {
		t.Fatalf("link: %v", err)
	}

	updated, err := registry.Get(original.ID)
	if err != nil {
		t.Fatalf("get original: %v", err)
	}
	if updated.DerivativeCount != 1 {
		t.Fatalf("derivative count = %d, want 1", updated.DerivativeCount)
	}
	children, err := registry.DerivativesOf(original.ID)
	if err != nil {
		t.Fatalf("derivatives: %v", err)
	}
	if len(children) != 1 || children[0] != derivative.ID {
		t.Fatalf("children = %v", children)
	}
	depth, err := registry.DepthOf(derivative.ID)
	if err != nil {
		t.Fatalf("depth: %v", err)
	}
	if depth != 1 {
		t.Fatalf("derivative depth = %d, want 1", depth)
	}
}

func TestLinkDerivativeDepthChains(t *testing.T) {
	registry, _ := newTestRegistry(t)
	a, _ := registry.Register(addr(1), "a", addr(2), PoolReference{}, salt(1))
	b, _ := registry.Register(addr(1), "b", addr(2), PoolReference{}, salt(2))
	c, _ := registry.Register(addr(1), "c", addr(2), PoolReference{}, salt(3))

	if err := registry.LinkDerivative(a.ID, b.ID); err != nil {
		t.Fatalf("link a->b: %v", err)
	}
	if err := registry.LinkDerivative(b.ID, c.ID); err != nil {
		t.Fatalf("link b->c: %v", err)
	}
	depth, err := registry.DepthOf(c.ID)
	if err != nil {
		t.Fatalf("depth: %v", err)
	}
	if depth != 2 {
		t.Fatalf("grandchild depth = %d, want 2", depth)
	}
}

func TestLinkDerivativeRequiresBothRecords(t *testing.T) {
	registry, _ := newTestRegistry(t)
	record, _ := registry.Register(addr(1), "fp", addr(2), PoolReference{}, salt(1))

	if err := registry.LinkDerivative(salt(9), record.ID); !errors.Is(err, ErrContentNotFound) {
		t.Fatalf("missing original: err = %v", err)
	}
	if err := registry.LinkDerivative(record.ID, salt(9)); !errors.Is(err, ErrContentNotFound) {
		t.Fatalf("missing derivative: err = %v", err)
	}
}

func TestTransferOwnershipIgnoresStaleNotifications(t *testing.T) {
	registry, _ := newTestRegistry(t)
	record, _ := registry.Register(addr(1), "fp", addr(2), PoolReference{}, salt(1))

	// Unknown id and mismatched previous owner are both silent no-ops.
	if err := registry.TransferOwnership(salt(9), addr(1), addr(5)); err != nil {
		t.Fatalf("unknown id: %v", err)
	}
	if err := registry.TransferOwnership(record.ID, addr(7), addr(5)); err != nil {
		t.Fatalf("stale owner: %v", err)
	}
	unchanged, _ := registry.Get(record.ID)
	if unchanged.Creator != addr(1) {
		t.Fatalf("creator changed by stale notification: %x", unchanged.Creator)
	}

	if err := registry.TransferOwnership(record.ID, addr(1), addr(5)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	updated, _ := registry.Get(record.ID)
	if updated.Creator != addr(5) {
		t.Fatalf("creator = %x, want %x", updated.Creator, addr(5))
	}
}

func TestGetUnknownContent(t *testing.T) {
	registry, _ := newTestRegistry(t)
	if _, err := registry.Get(salt(1)); !errors.Is(err, ErrContentNotFound) {
		t.Fatalf("err = %v, want ErrContentNotFound", err)
	}
}
