package inspiration

import (
	"errors"
	"math/big"

	"musechain/native/content"
)

// ErrPoolAlreadyInitialized is the one tolerated collaborator failure: a pool
// opener may report it when the pool exists, and the engine treats it as
// success.
var ErrPoolAlreadyInitialized = errors.New("inspiration: pool already initialized")

// PoolConfig carries the parameters forwarded verbatim to the liquidity pool
// collaborator. The engine never interprets them.
type PoolConfig struct {
	PairedAsset [20]byte `json:"pairedAsset"`
	FeeBps      uint32   `json:"feeBps"`
}

// DeployRequest bundles the inputs handed to the token factory.
type DeployRequest struct {
	Creator     [20]byte
	Owners      [][20]byte
	MetadataURI string
	Name        string
	Symbol      string
	Pool        PoolConfig
	Referrer    [20]byte
	Salt        [32]byte
}

// DeployResult reports the tradable asset and liquidity position minted for a
// piece of content.
type DeployResult struct {
	Asset      [20]byte
	PositionID uint64
}

// TokenFactory mints the tradable asset backing a piece of content.
// Idempotency is keyed by the request salt.
type TokenFactory interface {
	Deploy(req DeployRequest) (DeployResult, error)
}

// PoolListener receives fee and ownership notifications from the liquidity
// pool collaborator. The engine implements it.
type PoolListener interface {
	OnFeesAccrued(positionID uint64, liquidityDelta, feeDelta *big.Int) error
	OnPositionTransferred(positionID uint64, previousOwner, newOwner [20]byte) error
}

// LiquidityPool owns pool state and reports fee accrual back through the
// subscribed listener.
type LiquidityPool interface {
	Open(asset [20]byte, cfg PoolConfig) (content.PoolReference, error)
	Subscribe(ref content.PoolReference, listener PoolListener) error
}

// ProofOracle answers yes/no for a similarity-proof identifier. It is a pure
// query with no side effects on the oracle.
type ProofOracle interface {
	Verify(proofHash string) (bool, error)
}

// AssetTransfer moves fungible balances between accounts. The engine uses it
// to pull pushed revenue into custody and to pay withdrawals out. Move runs
// while the engine holds the lock stripe for the affected key, so it must not
// call back into the engine for that key.
type AssetTransfer interface {
	Move(asset [20]byte, from, to [20]byte, amount *big.Int) error
}
