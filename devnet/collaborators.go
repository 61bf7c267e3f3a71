package devnet

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"musechain/native/content"
	"musechain/native/inspiration"
)

// ErrInsufficientBalance rejects transfers exceeding the funded balance.
var ErrInsufficientBalance = errors.New("devnet: insufficient balance")

// AssetHub is the in-process token factory and liquidity pool used by a
// single-node deployment. Assets are derived deterministically from the
// creator and salt so repeated deploys of the same request converge on the
// same asset.
type AssetHub struct {
	mu        sync.Mutex
	nextPos   uint64
	positions map[[20]byte]uint64
	listeners map[uint64]inspiration.PoolListener
}

// NewAssetHub builds an empty hub. Position identifiers start at 1 so the
// zero value never collides with a real position.
func NewAssetHub() *AssetHub {
	return &AssetHub{
		nextPos:   1,
		positions: make(map[[20]byte]uint64),
		listeners: make(map[uint64]inspiration.PoolListener),
	}
}

// Deploy derives the asset address from the creator and salt and assigns a
// liquidity position.
func (h *AssetHub) Deploy(req inspiration.DeployRequest) (inspiration.DeployResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	digest := ethcrypto.Keccak256(req.Creator[:], req.Salt[:])
	var asset [20]byte
	copy(asset[:], digest[12:])
	position, ok := h.positions[asset]
	if !ok {
		position = h.nextPos
		h.nextPos++
		h.positions[asset] = position
	}
	return inspiration.DeployResult{Asset: asset, PositionID: position}, nil
}

// Open returns the pool reference for a deployed asset. Reopening an existing
// pool reports ErrPoolAlreadyInitialized, which callers tolerate.
func (h *AssetHub) Open(asset [20]byte, _ inspiration.PoolConfig) (content.PoolReference, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	position, ok := h.positions[asset]
	if !ok {
		return content.PoolReference{}, fmt.Errorf("devnet: asset %x not deployed", asset)
	}
	ref := content.PoolReference{PoolKey: fmt.Sprintf("%x", asset), PositionID: position}
	if _, subscribed := h.listeners[position]; subscribed {
		return ref, inspiration.ErrPoolAlreadyInitialized
	}
	return ref, nil
}

// Subscribe registers the listener for fee and ownership notifications.
func (h *AssetHub) Subscribe(ref content.PoolReference, listener inspiration.PoolListener) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners[ref.PositionID] = listener
	return nil
}

// AccrueFees simulates a pool fee event and forwards it to the subscribed
// listener. Unsubscribed positions are a no-op.
func (h *AssetHub) AccrueFees(positionID uint64, feeDelta *big.Int) error {
	h.mu.Lock()
	listener := h.listeners[positionID]
	h.mu.Unlock()
	if listener == nil {
		return nil
	}
	return listener.OnFeesAccrued(positionID, nil, feeDelta)
}

// Bank is the in-process balance mover. Balances are tracked per asset and
// account; moves fail rather than overdraw.
type Bank struct {
	mu       sync.Mutex
	balances map[string]*big.Int
}

// NewBank builds an empty bank.
func NewBank() *Bank {
	return &Bank{balances: make(map[string]*big.Int)}
}

func balanceKey(asset, account [20]byte) string {
	return fmt.Sprintf("%x/%x", asset, account)
}

// Mint credits an account out of thin air. Devnet seeding only.
func (b *Bank) Mint(asset, account [20]byte, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := balanceKey(asset, account)
	current, ok := b.balances[key]
	if !ok {
		current = big.NewInt(0)
		b.balances[key] = current
	}
	current.Add(current, amount)
}

// Balance returns a copy of the tracked balance.
func (b *Bank) Balance(asset, account [20]byte) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	current, ok := b.balances[balanceKey(asset, account)]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(current)
}

// Move transfers amount between accounts of the same asset.
func (b *Bank) Move(asset [20]byte, from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.New("devnet: amount must be positive")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	fromKey := balanceKey(asset, from)
	source, ok := b.balances[fromKey]
	if !ok || source.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	source.Sub(source, amount)
	toKey := balanceKey(asset, to)
	dest, ok := b.balances[toKey]
	if !ok {
		dest = big.NewInt(0)
		b.balances[toKey] = dest
	}
	dest.Add(dest, amount)
	return nil
}
