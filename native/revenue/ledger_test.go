package revenue

import (
	"errors"
	"math/big"
	"testing"
)

type mockState struct {
	pending map[string]*big.Int
	totals  map[[32]byte]*big.Int
}

func newMockState() *mockState {
	return &mockState{
		pending: make(map[string]*big.Int),
		totals:  make(map[[32]byte]*big.Int),
	}
}

func pendingKey(asset, beneficiary [20]byte) string {
	return string(asset[:]) + string(beneficiary[:])
}

func (m *mockState) PendingRevenueGet(asset, beneficiary [20]byte) (*big.Int, error) {
	amount, ok := m.pending[pendingKey(asset, beneficiary)]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(amount), nil
}

func (m *mockState) PendingRevenuePut(asset, beneficiary [20]byte, amount *big.Int) error {
	m.pending[pendingKey(asset, beneficiary)] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) TotalRevenueGet(contentID [32]byte) (*big.Int, error) {
	amount, ok := m.totals[contentID]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(amount), nil
}

func (m *mockState) TotalRevenuePut(contentID [32]byte, amount *big.Int) error {
	m.totals[contentID] = new(big.Int).Set(amount)
	return nil
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	ledger := NewLedger()
	ledger.SetState(newMockState())
	return ledger
}

func account(b byte) [20]byte {
	var out [20]byte
	out[0] = b
	return out
}

func TestCreditAccumulates(t *testing.T) {
	ledger := newTestLedger(t)
	asset, who := account(1), account(2)

	if err := ledger.Credit(asset, who, big.NewInt(100)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := ledger.Credit(asset, who, big.NewInt(250)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	pending, err := ledger.Pending(asset, who)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending.Int64() != 350 {
		t.Fatalf("pending = %s, want 350", pending)
	}
}

func TestCreditRejectsNonPositiveAmounts(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Credit(account(1), account(2), nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("nil amount: err = %v", err)
	}
	if err := ledger.Credit(account(1), account(2), big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount: err = %v", err)
	}
	if err := ledger.Credit(account(1), account(2), big.NewInt(-5)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative amount: err = %v", err)
	}
}

func TestBeginWithdrawalZeroesBeforeReturning(t *testing.T) {
	ledger := newTestLedger(t)
	asset, who := account(1), account(2)
	if err := ledger.Credit(asset, who, big.NewInt(500)); err != nil {
		t.Fatalf("credit: %v", err)
	}

	amount, err := ledger.BeginWithdrawal(asset, who)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if amount.Int64() != 500 {
		t.Fatalf("withdrawn = %s, want 500", amount)
	}
	pending, _ := ledger.Pending(asset, who)
	if pending.Sign() != 0 {
		t.Fatalf("balance not zeroed: %s", pending)
	}

	// A second withdrawal finds nothing owed.
	if _, err := ledger.BeginWithdrawal(asset, who); !errors.Is(err, ErrNoPendingRevenue) {
		t.Fatalf("second withdrawal: err = %v", err)
	}
}

func TestBeginWithdrawalEmptyBalance(t *testing.T) {
	ledger := newTestLedger(t)
	if _, err := ledger.BeginWithdrawal(account(1), account(2)); !errors.Is(err, ErrNoPendingRevenue) {
		t.Fatalf("err = %v, want ErrNoPendingRevenue", err)
	}
}

func TestAccumulateTotal(t *testing.T) {
	ledger := newTestLedger(t)
	var contentID [32]byte
	contentID[0] = 7

	if err := ledger.AccumulateTotal(contentID, big.NewInt(100)); err != nil {
		t.Fatalf("accumulate: %v", err)
	}
	// Zero and nil amounts are silently skipped, not errors.
	if err := ledger.AccumulateTotal(contentID, big.NewInt(0)); err != nil {
		t.Fatalf("zero accumulate: %v", err)
	}
	if err := ledger.AccumulateTotal(contentID, nil); err != nil {
		t.Fatalf("nil accumulate: %v", err)
	}
	if err := ledger.AccumulateTotal(contentID, big.NewInt(900)); err != nil {
		t.Fatalf("accumulate: %v", err)
	}
	total, err := ledger.TotalRevenue(contentID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.Int64() != 1000 {
		t.Fatalf("total = %s, want 1000", total)
	}
}
