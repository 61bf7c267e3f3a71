package reputation

import "errors"

var (
	errNilState = errors.New("reputation store: state not configured")

	// ErrInvalidEvent marks events outside the closed enumeration.
	ErrInvalidEvent = errors.New("reputation store: invalid event")
)

type storeState interface {
	ReputationGet(creator [20]byte) (*Metrics, bool, error)
	ReputationPut(metrics *Metrics) error
}

// Store persists per-creator reputation metrics mutated by the closed event
// set.
type Store struct {
	state storeState
}

// NewStore constructs a reputation store.
func NewStore() *Store {
	return &Store{}
}

// SetState configures the state backend used by the store.
func (s *Store) SetState(state storeState) { s.state = state }

// Apply mutates the creator's metrics according to the event effect table and
// returns the updated snapshot.
func (s *Store) Apply(creator [20]byte, event Event) (*Metrics, error) {
	if s == nil || s.state == nil {
		return nil, errNilState
	}
	effect, ok := effects[event]
	if !ok {
		return nil, ErrInvalidEvent
	}
	metrics, found, err := s.state.ReputationGet(creator)
	if err != nil {
		return nil, err
	}
	if !found || metrics == nil {
		metrics = &Metrics{Creator: creator}
	}
	effect(metrics)
	if err := s.state.ReputationPut(metrics); err != nil {
		return nil, err
	}
	return metrics.Clone(), nil
}

// Get returns the creator's metrics, or a zero snapshot when none exist.
func (s *Store) Get(creator [20]byte) (*Metrics, error) {
	if s == nil || s.state == nil {
		return nil, errNilState
	}
	metrics, found, err := s.state.ReputationGet(creator)
	if err != nil {
		return nil, err
	}
	if !found || metrics == nil {
		return &Metrics{Creator: creator}, nil
	}
	return metrics.Clone(), nil
}
