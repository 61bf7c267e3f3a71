package content

import (
	"encoding/binary"
	"errors"
	"strings"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"lukechampine.com/blake3"

	"musechain/core/events"
)

var (
	errNilState = errors.New("content registry: state not configured")

	// ErrContentNotFound marks lookups for unregistered content ids.
	ErrContentNotFound = errors.New("content registry: content not found")
	// ErrDuplicateContent is returned when an id derivation collides with an
	// existing record. The derivation makes this astronomically unlikely but
	// it is checked, never assumed.
	ErrDuplicateContent = errors.New("content registry: content already exists")
	// ErrFingerprintRequired marks registrations with an empty fingerprint.
	ErrFingerprintRequired = errors.New("content registry: fingerprint required")
)

type registryState interface {
	ContentGet(id [32]byte) (*Record, bool, error)
	ContentPut(record *Record) error
	ContentChildrenGet(id [32]byte) ([][32]byte, error)
	ContentChildrenPut(id [32]byte, children [][32]byte) error
	ContentDepthGet(id [32]byte) (uint64, bool, error)
	ContentDepthPut(id [32]byte, depth uint64) error
}

// Registry owns content records and the inspiration graph. Parent/child
// edges and depths are assigned exactly once when a derivative is linked and
// never recomputed.
type Registry struct {
	state   registryState
	emitter events.Emitter
	nowFn   func() int64
}

// NewRegistry constructs a registry with a no-op emitter.
func NewRegistry() *Registry {
	return &Registry{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the registry.
func (r *Registry) SetState(state registryState) { r.state = state }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (r *Registry) SetNowFunc(now func() int64) {
	if now == nil {
		r.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	r.nowFn = now
}

func (r *Registry) now() int64 {
	if r == nil || r.nowFn == nil {
		return time.Now().Unix()
	}
	return r.nowFn()
}

func (r *Registry) emit(evt events.Event) {
	if r == nil || r.emitter == nil || evt == nil {
		return
	}
	r.emitter.Emit(evt)
}

// FingerprintDigest normalises a fingerprint string into the fixed-size
// digest folded into the content id preimage.
func FingerprintDigest(fingerprint string) [32]byte {
	return blake3.Sum256([]byte(strings.TrimSpace(fingerprint)))
}

// DeriveID computes the content-addressed identifier for a registration.
// The preimage binds the creator, the fingerprint digest, the creation time
// and a caller-supplied salt, making ids globally unique by construction.
func DeriveID(creator [20]byte, fingerprintHash [32]byte, createdAt int64, salt [32]byte) [32]byte {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(createdAt))
	digest := ethcrypto.Keccak256(creator[:], fingerprintHash[:], ts[:], salt[:])
	var id [32]byte
	copy(id[:], digest)
	return id
}

// Register inserts a new content record with a zero derivative count and a
// root depth of zero. It fails with ErrDuplicateContent if the derived id is
// already present.
func (r *Registry) Register(creator [20]byte, fingerprint string, asset [20]byte, pool PoolReference, salt [32]byte) (*Record, error) {
	if r == nil || r.state == nil {
		return nil, errNilState
	}
	trimmed := strings.TrimSpace(fingerprint)
	if trimmed == "" {
		return nil, ErrFingerprintRequired
	}
	createdAt := r.now()
	digest := FingerprintDigest(trimmed)
	id := DeriveID(creator, digest, createdAt, salt)
	if _, ok, err := r.state.ContentGet(id); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrDuplicateContent
	}
	record := &Record{
		ID:              id,
		Creator:         creator,
		Asset:           asset,
		Fingerprint:     trimmed,
		FingerprintHash: digest,
		CreatedAt:       createdAt,
		DerivativeCount: 0,
		Pool:            pool,
	}
	if err := r.state.ContentPut(record); err != nil {
		return nil, err
	}
	if err := r.state.ContentDepthPut(id, 0); err != nil {
		return nil, err
	}
	r.emit(events.ContentRegistered{
		ID:          record.ID,
		Creator:     record.Creator,
		Asset:       record.Asset,
		Fingerprint: record.Fingerprint,
		CreatedAt:   record.CreatedAt,
	})
	return record.Clone(), nil
}

// LinkDerivative records originalID -> derivativeID in the inspiration graph,
// increments the original's derivative count and assigns the derivative's
// depth as depth(original)+1.
func (r *Registry) LinkDerivative(originalID, derivativeID [32]byte) error {
	if r == nil || r.state == nil {
		return errNilState
	}
	original, ok, err := r.state.ContentGet(originalID)
	if err != nil {
		return err
	}
	if !ok || original == nil {
		return ErrContentNotFound
	}
	if _, ok, err := r.state.ContentGet(derivativeID); err != nil {
		return err
	} else if !ok {
		return ErrContentNotFound
	}
	original.DerivativeCount++
	if err := r.state.ContentPut(original); err != nil {
		return err
	}
	children, err := r.state.ContentChildrenGet(originalID)
	if err != nil {
		return err
	}
	children = append(children, derivativeID)
	if err := r.state.ContentChildrenPut(originalID, children); err != nil {
		return err
	}
	parentDepth, _, err := r.state.ContentDepthGet(originalID)
	if err != nil {
		return err
	}
	return r.state.ContentDepthPut(derivativeID, parentDepth+1)
}

// TransferOwnership reassigns the creator of a record. It models a
// best-effort notification from an external position transfer: unknown ids
// and stale previous owners are silently ignored rather than treated as
// errors.
func (r *Registry) TransferOwnership(id [32]byte, previousOwner, newOwner [20]byte) error {
	if r == nil || r.state == nil {
		return errNilState
	}
	record, ok, err := r.state.ContentGet(id)
	if err != nil {
		return err
	}
	if !ok || record == nil {
		return nil
	}
	if record.Creator != previousOwner {
		return nil
	}
	record.Creator = newOwner
	if err := r.state.ContentPut(record); err != nil {
		return err
	}
	r.emit(events.ContentOwnerChanged{ID: id, PreviousOwner: previousOwner, NewOwner: newOwner})
	return nil
}

// Get returns the record for the supplied id.
func (r *Registry) Get(id [32]byte) (*Record, error) {
	if r == nil || r.state == nil {
		return nil, errNilState
	}
	record, ok, err := r.state.ContentGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrContentNotFound
	}
	return record.Clone(), nil
}

// DerivativesOf returns the direct children of the supplied content id.
func (r *Registry) DerivativesOf(id [32]byte) ([][32]byte, error) {
	if r == nil || r.state == nil {
		return nil, errNilState
	}
	if _, ok, err := r.state.ContentGet(id); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrContentNotFound
	}
	return r.state.ContentChildrenGet(id)
}

// DepthOf returns the inspiration-graph depth of the supplied content id.
// Roots sit at depth zero.
func (r *Registry) DepthOf(id [32]byte) (uint64, error) {
	if r == nil || r.state == nil {
		return 0, errNilState
	}
	depth, ok, err := r.state.ContentDepthGet(id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrContentNotFound
	}
	return depth, nil
}
