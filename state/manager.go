package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"musechain/native/claims"
	"musechain/native/content"
	"musechain/native/reputation"
	"musechain/storage"
)

const (
	prefixContentRecord   = "content/record/"
	prefixContentChildren = "content/children/"
	prefixContentDepth    = "content/depth/"
	prefixClaimRecord     = "claims/record/"
	prefixClaimByOriginal = "claims/original/"
	prefixClaimByDeriv    = "claims/derivative/"
	prefixReputation      = "reputation/"
	prefixPendingRevenue  = "revenue/pending/"
	prefixTotalRevenue    = "revenue/total/"
	prefixPositionIndex   = "positions/"
)

// Manager persists engine records as JSON rows in the underlying key-value
// store. It implements the state interface of every native engine so a single
// database backs the whole ledger.
type Manager struct {
	mu sync.RWMutex
	db storage.Database
}

// NewManager wraps the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) kvGet(key string, out interface{}) (bool, error) {
	raw, err := m.db.Get([]byte(key))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Manager) kvPut(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", key, err)
	}
	return m.db.Put([]byte(key), raw)
}

// --- content registry state ---

func contentRecordKey(id [32]byte) string { return fmt.Sprintf("%s%x", prefixContentRecord, id) }
func contentChildKey(id [32]byte) string  { return fmt.Sprintf("%s%x", prefixContentChildren, id) }
func contentDepthKey(id [32]byte) string  { return fmt.Sprintf("%s%x", prefixContentDepth, id) }
func claimRecordKey(id [32]byte) string   { return fmt.Sprintf("%s%x", prefixClaimRecord, id) }
func claimOriginalKey(id [32]byte) string { return fmt.Sprintf("%s%x", prefixClaimByOriginal, id) }
func claimDerivKey(id [32]byte) string    { return fmt.Sprintf("%s%x", prefixClaimByDeriv, id) }
func reputationKey(addr [20]byte) string  { return fmt.Sprintf("%s%x", prefixReputation, addr) }
func totalRevenueKey(id [32]byte) string  { return fmt.Sprintf("%s%x", prefixTotalRevenue, id) }
func positionIndexKey(id uint64) string   { return fmt.Sprintf("%s%d", prefixPositionIndex, id) }

func pendingRevenueKey(asset, beneficiary [20]byte) string {
	return fmt.Sprintf("%s%x/%x", prefixPendingRevenue, asset, beneficiary)
}

func (m *Manager) ContentGet(id [32]byte) (*content.Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var record content.Record
	ok, err := m.kvGet(contentRecordKey(id), &record)
	if err != nil || !ok {
		return nil, false, err
	}
	return &record, true, nil
}

func (m *Manager) ContentPut(record *content.Record) error {
	if record == nil {
		return errors.New("state: nil content record")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kvPut(contentRecordKey(record.ID), record)
}

func (m *Manager) ContentChildrenGet(id [32]byte) ([][32]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var children [][32]byte
	if _, err := m.kvGet(contentChildKey(id), &children); err != nil {
		return nil, err
	}
	return children, nil
}

func (m *Manager) ContentChildrenPut(id [32]byte, children [][32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kvPut(contentChildKey(id), children)
}

func (m *Manager) ContentDepthGet(id [32]byte) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var depth uint64
	ok, err := m.kvGet(contentDepthKey(id), &depth)
	if err != nil || !ok {
		return 0, false, err
	}
	return depth, true, nil
}

func (m *Manager) ContentDepthPut(id [32]byte, depth uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kvPut(contentDepthKey(id), depth)
}

// --- claim ledger state ---

func (m *Manager) ClaimGet(id [32]byte) (*claims.Claim, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var claim claims.Claim
	ok, err := m.kvGet(claimRecordKey(id), &claim)
	if err != nil || !ok {
		return nil, false, err
	}
	return &claim, true, nil
}

func (m *Manager) ClaimPut(claim *claims.Claim) error {
	if claim == nil {
		return errors.New("state: nil claim")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kvPut(claimRecordKey(claim.ID), claim)
}

func (m *Manager) ClaimIndexGet(originalID [32]byte) ([][32]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids [][32]byte
	if _, err := m.kvGet(claimOriginalKey(originalID), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (m *Manager) ClaimIndexPut(originalID [32]byte, ids [][32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kvPut(claimOriginalKey(originalID), ids)
}

func (m *Manager) ClaimDerivativeIndexGet(derivativeID [32]byte) ([][32]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids [][32]byte
	if _, err := m.kvGet(claimDerivKey(derivativeID), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (m *Manager) ClaimDerivativeIndexPut(derivativeID [32]byte, ids [][32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kvPut(claimDerivKey(derivativeID), ids)
}

// --- reputation store state ---

func (m *Manager) ReputationGet(creator [20]byte) (*reputation.Metrics, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var metrics reputation.Metrics
	ok, err := m.kvGet(reputationKey(creator), &metrics)
	if err != nil || !ok {
		return nil, false, err
	}
	return &metrics, true, nil
}

func (m *Manager) ReputationPut(metrics *reputation.Metrics) error {
	if metrics == nil {
		return errors.New("state: nil reputation metrics")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kvPut(reputationKey(metrics.Creator), metrics)
}

// --- revenue ledger state ---

func (m *Manager) PendingRevenueGet(asset, beneficiary [20]byte) (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored string
	ok, err := m.kvGet(pendingRevenueKey(asset, beneficiary), &stored)
	if err != nil || !ok {
		return big.NewInt(0), err
	}
	return decodeAmount(stored)
}

func (m *Manager) PendingRevenuePut(asset, beneficiary [20]byte, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kvPut(pendingRevenueKey(asset, beneficiary), encodeAmount(amount))
}

func (m *Manager) TotalRevenueGet(contentID [32]byte) (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored string
	ok, err := m.kvGet(totalRevenueKey(contentID), &stored)
	if err != nil || !ok {
		return big.NewInt(0), err
	}
	return decodeAmount(stored)
}

func (m *Manager) TotalRevenuePut(contentID [32]byte, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kvPut(totalRevenueKey(contentID), encodeAmount(amount))
}

// --- position index state ---

func (m *Manager) PositionIndexGet(positionID uint64) ([32]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var contentID [32]byte
	ok, err := m.kvGet(positionIndexKey(positionID), &contentID)
	if err != nil || !ok {
		return [32]byte{}, false, err
	}
	return contentID, true, nil
}

func (m *Manager) PositionIndexPut(positionID uint64, contentID [32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kvPut(positionIndexKey(positionID), contentID)
}

// Amounts persist as decimal strings so arbitrary-precision values survive
// the JSON round trip exactly.
func encodeAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func decodeAmount(stored string) (*big.Int, error) {
	out, ok := new(big.Int).SetString(stored, 10)
	if !ok {
		return nil, fmt.Errorf("state: malformed amount %q", stored)
	}
	return out, nil
}
