package revenue

import (
	"errors"
	"math/big"
)

var (
	errNilState = errors.New("revenue ledger: state not configured")

	// ErrNoPendingRevenue is returned when a withdrawal finds nothing owed.
	ErrNoPendingRevenue = errors.New("revenue ledger: no pending revenue")
	// ErrInvalidAmount marks credits that are nil or non-positive.
	ErrInvalidAmount = errors.New("revenue ledger: amount must be positive")
)

type ledgerState interface {
	PendingRevenueGet(asset, beneficiary [20]byte) (*big.Int, error)
	PendingRevenuePut(asset, beneficiary [20]byte, amount *big.Int) error
	TotalRevenueGet(contentID [32]byte) (*big.Int, error)
	TotalRevenuePut(contentID [32]byte, amount *big.Int) error
}

// Ledger tracks credited-but-unwithdrawn balances per (asset, beneficiary)
// and the monotonic per-content revenue totals kept for auditing.
type Ledger struct {
	state ledgerState
}

// NewLedger constructs a revenue ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state ledgerState) { l.state = state }

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// Credit adds amount to the beneficiary's pending balance for the asset.
func (l *Ledger) Credit(asset, beneficiary [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	pending, err := l.state.PendingRevenueGet(asset, beneficiary)
	if err != nil {
		return err
	}
	updated := new(big.Int).Add(nonNil(pending), amount)
	return l.state.PendingRevenuePut(asset, beneficiary, updated)
}

// Pending returns the beneficiary's current balance for the asset.
func (l *Ledger) Pending(asset, beneficiary [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	pending, err := l.state.PendingRevenueGet(asset, beneficiary)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(nonNil(pending)), nil
}

// BeginWithdrawal reads the full pending balance and zeroes it in one step.
// The zeroing lands before any external transfer runs, so a re-entrant
// withdrawal observes an empty balance instead of paying twice. Callers that
// fail the subsequent transfer restore the balance via Credit.
func (l *Ledger) BeginWithdrawal(asset, beneficiary [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	pending, err := l.state.PendingRevenueGet(asset, beneficiary)
	if err != nil {
		return nil, err
	}
	amount := new(big.Int).Set(nonNil(pending))
	if amount.Sign() == 0 {
		return nil, ErrNoPendingRevenue
	}
	if err := l.state.PendingRevenuePut(asset, beneficiary, big.NewInt(0)); err != nil {
		return nil, err
	}
	return amount, nil
}

// AccumulateTotal adds amount to the content's lifetime revenue counter.
func (l *Ledger) AccumulateTotal(contentID [32]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	total, err := l.state.TotalRevenueGet(contentID)
	if err != nil {
		return err
	}
	return l.state.TotalRevenuePut(contentID, new(big.Int).Add(nonNil(total), amount))
}

// TotalRevenue returns the lifetime revenue recorded for the content id.
func (l *Ledger) TotalRevenue(contentID [32]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	total, err := l.state.TotalRevenueGet(contentID)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(nonNil(total)), nil
}
