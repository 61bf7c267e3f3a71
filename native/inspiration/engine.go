package inspiration

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/big"
	"sync"

	"musechain/core/events"
	"musechain/native/claims"
	"musechain/native/content"
	"musechain/native/ranking"
	"musechain/native/reputation"
	"musechain/native/revenue"
)

const (
	// MaxPlatformFeeBps caps the platform cut on the direct-transfer path.
	MaxPlatformFeeBps uint32 = 1000
	// DefaultPlatformFeeBps is applied until the owner configures a value.
	DefaultPlatformFeeBps uint32 = 250

	lockStripes = 64
)

var (
	errNilState        = errors.New("inspiration engine: state not configured")
	errNilCollaborator = errors.New("inspiration engine: collaborator not configured")

	// ErrUnauthorized marks privileged calls from the wrong identity.
	ErrUnauthorized = errors.New("inspiration engine: unauthorized")
	// ErrFeeTooHigh marks platform fee settings above MaxPlatformFeeBps.
	ErrFeeTooHigh = errors.New("inspiration engine: platform fee too high")
	// ErrClaimDisputed blocks distribution against a disputed claim.
	ErrClaimDisputed = errors.New("inspiration engine: claim disputed")
	// ErrInvalidAmount marks nil or non-positive revenue amounts.
	ErrInvalidAmount = errors.New("inspiration engine: amount must be positive")
	// ErrExternalCallFailed wraps collaborator failures so callers can assert
	// on the failure class while keeping the collaborator's detail.
	ErrExternalCallFailed = errors.New("inspiration engine: external call failed")
)

func externalErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %s", ErrExternalCallFailed, op, err)
}

type engineState interface {
	PositionIndexGet(positionID uint64) ([32]byte, bool, error)
	PositionIndexPut(positionID uint64, contentID [32]byte) error
}

// Engine orchestrates the content registry, claim ledger, reputation store
// and revenue ledger behind the top-level operations. It holds no domain
// state of its own beyond the position index and admin configuration; every
// record lives in the owning component.
type Engine struct {
	state    engineState
	registry *content.Registry
	claims   *claims.Ledger
	rep      *reputation.Store
	rev      *revenue.Ledger
	emitter  events.Emitter

	factory   TokenFactory
	pool      LiquidityPool
	transfers AssetTransfer

	adminMu          sync.RWMutex
	owner            [20]byte
	oracle           ProofOracle
	platformFeeBps   uint32
	platformTreasury [20]byte
	custody          [20]byte

	registryMu sync.Mutex
	locks      [lockStripes]sync.Mutex
}

// NewEngine wires the orchestrator around its components. The owner identity
// gates the administrative surface.
func NewEngine(owner [20]byte, registry *content.Registry, claimLedger *claims.Ledger, repStore *reputation.Store, revLedger *revenue.Ledger) *Engine {
	return &Engine{
		registry:       registry,
		claims:         claimLedger,
		rep:            repStore,
		rev:            revLedger,
		emitter:        events.NoopEmitter{},
		owner:          owner,
		platformFeeBps: DefaultPlatformFeeBps,
	}
}

// SetState configures the backend for the position index.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetTokenFactory configures the token factory collaborator.
func (e *Engine) SetTokenFactory(factory TokenFactory) { e.factory = factory }

// SetLiquidityPool configures the liquidity pool collaborator.
func (e *Engine) SetLiquidityPool(pool LiquidityPool) { e.pool = pool }

// SetAssetTransfer configures the balance mover used on the revenue paths.
func (e *Engine) SetAssetTransfer(transfers AssetTransfer) { e.transfers = transfers }

// SetCustody configures the account holding funds backing pending revenue.
func (e *Engine) SetCustody(addr [20]byte) {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()
	e.custody = addr
}

// SetPlatformTreasury configures the beneficiary of the platform fee.
func (e *Engine) SetPlatformTreasury(addr [20]byte) {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()
	e.platformTreasury = addr
}

// SetProofOracle installs the proof oracle. Restricted to the owner. A nil
// oracle means no verification is possible; claims simply stay unverified.
func (e *Engine) SetProofOracle(caller [20]byte, oracle ProofOracle) error {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()
	if caller != e.owner {
		return ErrUnauthorized
	}
	e.oracle = oracle
	return nil
}

// SetPlatformFeeBps updates the platform cut. Restricted to the owner and
// capped at MaxPlatformFeeBps.
func (e *Engine) SetPlatformFeeBps(caller [20]byte, value uint32) error {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()
	if caller != e.owner {
		return ErrUnauthorized
	}
	if value > MaxPlatformFeeBps {
		return ErrFeeTooHigh
	}
	e.platformFeeBps = value
	return nil
}

// Registry exposes the content registry for read paths.
func (e *Engine) Registry() *content.Registry { return e.registry }

// Claims exposes the claim ledger for read paths.
func (e *Engine) Claims() *claims.Ledger { return e.claims }

// Revenue exposes the revenue ledger for read paths.
func (e *Engine) Revenue() *revenue.Ledger { return e.rev }

// Reputation exposes the reputation store for read paths.
func (e *Engine) Reputation() *reputation.Store { return e.rep }

// PlatformFeeBps returns the configured platform cut.
func (e *Engine) PlatformFeeBps() uint32 {
	e.adminMu.RLock()
	defer e.adminMu.RUnlock()
	return e.platformFeeBps
}

func (e *Engine) proofOracle() ProofOracle {
	e.adminMu.RLock()
	defer e.adminMu.RUnlock()
	return e.oracle
}

func (e *Engine) custodyAccount() [20]byte {
	e.adminMu.RLock()
	defer e.adminMu.RUnlock()
	return e.custody
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

// lockFor maps a key onto one of the engine's lock stripes. Stripes are plain
// mutexes, not reentrant: a collaborator that calls back into the engine for
// the same key while a revenue operation holds its stripe will deadlock. The
// ledger balance is zeroed before any external call, so the callback could
// never be paid anyway.
func (e *Engine) lockFor(key []byte) *sync.Mutex {
	h := fnv.New32a()
	h.Write(key)
	return &e.locks[h.Sum32()%lockStripes]
}

// CreateContentParams carries the caller-supplied inputs for a registration.
type CreateContentParams struct {
	Fingerprint string
	MetadataURI string
	Name        string
	Symbol      string
	Owners      [][20]byte
	Pool        PoolConfig
	Referrer    [20]byte
	Salt        [32]byte
}

// CreateContent deploys the tradable asset, opens the liquidity position and
// registers the content record. A pool opener reporting
// ErrPoolAlreadyInitialized is treated as success; every other collaborator
// failure aborts with no record created.
func (e *Engine) CreateContent(caller [20]byte, params CreateContentParams) (*content.Record, error) {
	e.registryMu.Lock()
	defer e.registryMu.Unlock()
	return e.createContentLocked(caller, params)
}

func (e *Engine) createContentLocked(caller [20]byte, params CreateContentParams) (*content.Record, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.factory == nil || e.pool == nil {
		return nil, errNilCollaborator
	}
	deployed, err := e.factory.Deploy(DeployRequest{
		Creator:     caller,
		Owners:      params.Owners,
		MetadataURI: params.MetadataURI,
		Name:        params.Name,
		Symbol:      params.Symbol,
		Pool:        params.Pool,
		Referrer:    params.Referrer,
		Salt:        params.Salt,
	})
	if err != nil {
		return nil, externalErr("token deploy", err)
	}
	ref, err := e.pool.Open(deployed.Asset, params.Pool)
	if err != nil && !errors.Is(err, ErrPoolAlreadyInitialized) {
		return nil, externalErr("pool open", err)
	}
	if err := e.pool.Subscribe(ref, e); err != nil {
		return nil, externalErr("pool subscribe", err)
	}
	record, err := e.registry.Register(caller, params.Fingerprint, deployed.Asset, ref, params.Salt)
	if err != nil {
		return nil, err
	}
	if err := e.state.PositionIndexPut(deployed.PositionID, record.ID); err != nil {
		return nil, err
	}
	return record, nil
}

// CreateDerivativeParams extends a registration with the inspiration claim
// terms binding it to an original.
type CreateDerivativeParams struct {
	CreateContentParams
	OriginalID [32]byte
	ShareBps   uint32
	ProofHash  string
	ProofType  claims.ProofType
}

// CreateDerivative registers derivative content and its inspiration claim in
// one operation. All claim terms are validated before any side effect, so an
// invalid share leaves no content behind. Proof verification runs last: a
// negative or failed oracle answer leaves the claim unverified without
// failing the creation.
func (e *Engine) CreateDerivative(caller [20]byte, params CreateDerivativeParams) (*content.Record, *claims.Claim, error) {
	e.registryMu.Lock()
	defer e.registryMu.Unlock()
	if params.ShareBps > claims.MaxShareBps {
		return nil, nil, claims.ErrInvalidShare
	}
	if !params.ProofType.Valid() {
		return nil, nil, claims.ErrInvalidProofType
	}
	original, err := e.registry.Get(params.OriginalID)
	if err != nil {
		return nil, nil, err
	}
	record, err := e.createContentLocked(caller, params.CreateContentParams)
	if err != nil {
		return nil, nil, err
	}
	claim, err := e.claims.Create(original.ID, record.ID, original.Asset, record.Asset, params.ShareBps, params.ProofHash, params.ProofType)
	if err != nil {
		return nil, nil, err
	}
	if err := e.registry.LinkDerivative(original.ID, record.ID); err != nil {
		return nil, nil, err
	}
	if _, err := e.rep.Apply(caller, reputation.EventDerivativeCreated); err != nil {
		return nil, nil, err
	}
	if _, err := e.rep.Apply(original.Creator, reputation.EventInspiredOthers); err != nil {
		return nil, nil, err
	}
	if claim.ProofType.RequiresOracle() {
		if err := e.verifyProof(claim, caller); err != nil {
			return nil, nil, err
		}
		claim, err = e.claims.Get(claim.ID)
		if err != nil {
			return nil, nil, err
		}
	}
	return record, claim, nil
}

// verifyProof consults the oracle for a similarity claim. A missing oracle
// and an oracle transport failure both leave the claim unverified; only the
// ledger write itself can fail the operation.
func (e *Engine) verifyProof(claim *claims.Claim, prover [20]byte) error {
	oracle := e.proofOracle()
	if oracle == nil {
		return nil
	}
	verified, err := oracle.Verify(claim.ProofHash)
	if err != nil {
		verified = false
	}
	if err := e.claims.MarkVerified(claim.ID, verified); err != nil {
		return err
	}
	if verified {
		if _, err := e.rep.Apply(prover, reputation.EventProofVerified); err != nil {
			return err
		}
	}
	return nil
}

// DisputeInspiration flags a claim as disputed. Only the original content's
// current creator or the engine owner may dispute. The derivative's creator
// takes the reputation penalty on the first dispute only; repeat disputes
// succeed without further effect, and the flag itself is permanent.
func (e *Engine) DisputeInspiration(caller [20]byte, claimID [32]byte) (*claims.Claim, error) {
	lock := e.lockFor(claimID[:])
	lock.Lock()
	defer lock.Unlock()
	claim, err := e.claims.Get(claimID)
	if err != nil {
		return nil, err
	}
	original, err := e.registry.Get(claim.Original)
	if err != nil {
		return nil, err
	}
	e.adminMu.RLock()
	owner := e.owner
	e.adminMu.RUnlock()
	if caller != original.Creator && caller != owner {
		return nil, ErrUnauthorized
	}
	claim, changed, err := e.claims.Dispute(claimID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return claim, nil
	}
	derivative, err := e.registry.Get(claim.Derivative)
	if err != nil {
		return nil, err
	}
	if _, err := e.rep.Apply(derivative.Creator, reputation.EventClaimDisputed); err != nil {
		return nil, err
	}
	e.emit(events.ClaimDisputed{ID: claimID, Disputer: caller, DerivativeCreator: derivative.Creator})
	return claim, nil
}

// DistributeRevenue handles the direct-transfer path: the derivative asset
// pushes trading revenue, the engine pulls it into custody and splits it
// between the original creator, the platform and the derivative creator.
// Only the claim's derivative asset itself may call.
func (e *Engine) DistributeRevenue(caller [20]byte, claimID [32]byte, amount *big.Int) error {
	lock := e.lockFor(claimID[:])
	lock.Lock()
	defer lock.Unlock()
	if e.transfers == nil {
		return errNilCollaborator
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	claim, err := e.claims.Get(claimID)
	if err != nil {
		return err
	}
	if claim.Disputed {
		return ErrClaimDisputed
	}
	if caller != claim.DerivativeAsset {
		return ErrUnauthorized
	}
	split, err := revenue.SplitDirect(amount, claim.ShareBps, e.PlatformFeeBps(), claim.ProofVerified)
	if err != nil {
		return err
	}
	original, err := e.registry.Get(claim.Original)
	if err != nil {
		return err
	}
	derivative, err := e.registry.Get(claim.Derivative)
	if err != nil {
		return err
	}
	custody := e.custodyAccount()
	if err := e.transfers.Move(claim.DerivativeAsset, caller, custody, amount); err != nil {
		return externalErr("revenue pull", err)
	}
	if split.Original.Sign() > 0 {
		if err := e.rev.Credit(claim.OriginalAsset, original.Creator, split.Original); err != nil {
			return err
		}
	}
	if split.Platform.Sign() > 0 {
		e.adminMu.RLock()
		treasury := e.platformTreasury
		e.adminMu.RUnlock()
		if err := e.rev.Credit(claim.DerivativeAsset, treasury, split.Platform); err != nil {
			return err
		}
	}
	if split.Derivative.Sign() > 0 {
		if err := e.rev.Credit(claim.DerivativeAsset, derivative.Creator, split.Derivative); err != nil {
			return err
		}
	}
	if err := e.rev.AccumulateTotal(claim.Original, split.Original); err != nil {
		return err
	}
	e.emit(events.RevenueDistributed{
		ClaimID:     claimID,
		Asset:       claim.OriginalAsset,
		Beneficiary: original.Creator,
		Amount:      split.Original,
		Bonus:       split.Bonus,
	})
	return nil
}

// ClaimRevenue withdraws the full pending balance for (asset, beneficiary).
// The ledger balance is zeroed before the external transfer runs, so a
// re-entrant call cannot be paid twice; a failed transfer restores the
// balance and reports the failure.
func (e *Engine) ClaimRevenue(asset, beneficiary [20]byte) (*big.Int, error) {
	key := make([]byte, 0, 40)
	key = append(key, asset[:]...)
	key = append(key, beneficiary[:]...)
	lock := e.lockFor(key)
	lock.Lock()
	defer lock.Unlock()
	if e.transfers == nil {
		return nil, errNilCollaborator
	}
	amount, err := e.rev.BeginWithdrawal(asset, beneficiary)
	if err != nil {
		return nil, err
	}
	custody := e.custodyAccount()
	if err := e.transfers.Move(asset, custody, beneficiary, amount); err != nil {
		if restoreErr := e.rev.Credit(asset, beneficiary, amount); restoreErr != nil {
			return nil, restoreErr
		}
		return nil, externalErr("revenue payout", err)
	}
	e.emit(events.RevenueClaimed{Asset: asset, Beneficiary: beneficiary, Amount: amount})
	return amount, nil
}

// OnFeesAccrued ingests a fee notification from the liquidity pool. Unmapped
// positions and non-positive deltas are silently ignored. For every
// undisputed claim naming the position's content as the derivative, the
// original's current creator is credited with the share (plus the proof bonus
// when verified); disputed claims contribute nothing while the rest still
// distribute.
func (e *Engine) OnFeesAccrued(positionID uint64, liquidityDelta, feeDelta *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	_ = liquidityDelta
	if feeDelta == nil || feeDelta.Sign() <= 0 {
		return nil
	}
	contentID, ok, err := e.state.PositionIndexGet(positionID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	lock := e.lockFor(contentID[:])
	lock.Lock()
	defer lock.Unlock()
	e.emit(events.RevenueFeesAccrued{ContentID: contentID, Amount: feeDelta})
	claimsList, err := e.claims.ClaimsForDerivative(contentID)
	if err != nil {
		return err
	}
	for _, claim := range claimsList {
		if claim.Disputed {
			continue
		}
		share := revenue.ShareAmount(feeDelta, claim.ShareBps)
		bonus := big.NewInt(0)
		if claim.ProofVerified {
			bonus = revenue.ProofBonus(share)
		}
		total := new(big.Int).Add(share, bonus)
		if total.Sign() == 0 {
			continue
		}
		original, err := e.registry.Get(claim.Original)
		if err != nil {
			return err
		}
		if err := e.rev.Credit(claim.DerivativeAsset, original.Creator, total); err != nil {
			return err
		}
		if err := e.rev.AccumulateTotal(claim.Original, total); err != nil {
			return err
		}
		e.emit(events.RevenueDistributed{
			ClaimID:     claim.ID,
			Asset:       claim.DerivativeAsset,
			Beneficiary: original.Creator,
			Amount:      share,
			Bonus:       bonus,
		})
	}
	return nil
}

// OnPositionTransferred forwards an ownership change notification to the
// registry. Unmapped positions are silently ignored.
func (e *Engine) OnPositionTransferred(positionID uint64, previousOwner, newOwner [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	contentID, ok, err := e.state.PositionIndexGet(positionID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return e.registry.TransferOwnership(contentID, previousOwner, newOwner)
}

// RankingScore assembles the scoring inputs for a piece of content and
// returns its current rank.
func (e *Engine) RankingScore(contentID [32]byte) (uint64, error) {
	record, err := e.registry.Get(contentID)
	if err != nil {
		return 0, err
	}
	claimsList, err := e.claims.ClaimsForOriginal(contentID)
	if err != nil {
		return 0, err
	}
	var verified uint64
	for _, claim := range claimsList {
		if claim.ProofVerified {
			verified++
		}
	}
	metrics, err := e.rep.Get(record.Creator)
	if err != nil {
		return 0, err
	}
	return ranking.Score(ranking.Inputs{
		DerivativeCount:    record.DerivativeCount,
		ClaimCount:         uint64(len(claimsList)),
		VerifiedClaimCount: verified,
		CollaboratorScore:  metrics.CollaboratorScore,
		FraudFlags:         metrics.FraudFlags,
	}), nil
}
