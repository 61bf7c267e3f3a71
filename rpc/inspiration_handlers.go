package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"strings"

	"musechain/crypto"
	"musechain/native/claims"
	"musechain/native/content"
	"musechain/native/inspiration"
	"musechain/native/revenue"
	"musechain/observability"
	"musechain/oracle"
)

type handlerFunc func(s *Server, params []json.RawMessage) (interface{}, *rpcError)

type methodSpec struct {
	fn       handlerFunc
	mutating bool
}

var methods = map[string]methodSpec{
	"muse_createContent":      {fn: handleCreateContent, mutating: true},
	"muse_createDerivative":   {fn: handleCreateDerivative, mutating: true},
	"muse_disputeInspiration": {fn: handleDispute, mutating: true},
	"muse_distributeRevenue":  {fn: handleDistribute, mutating: true},
	"muse_claimRevenue":       {fn: handleClaimRevenue, mutating: true},
	"muse_setPlatformFee":     {fn: handleSetPlatformFee, mutating: true},
	"muse_setProofOracle":     {fn: handleSetProofOracle, mutating: true},
	"muse_getContent":         {fn: handleGetContent},
	"muse_getClaim":           {fn: handleGetClaim},
	"muse_pendingRevenue":     {fn: handlePendingRevenue},
	"muse_totalRevenue":       {fn: handleTotalRevenue},
	"muse_rankingScore":       {fn: handleRankingScore},
	"muse_derivatives":        {fn: handleDerivatives},
	"muse_depth":              {fn: handleDepth},
}

type createContentParams struct {
	Caller      string `json:"caller"`
	Fingerprint string `json:"fingerprint"`
	MetadataURI string `json:"metadataURI"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	PairedAsset string `json:"pairedAsset,omitempty"`
	PoolFeeBps  uint32 `json:"poolFeeBps,omitempty"`
	Salt        string `json:"salt"`
}

type createDerivativeParams struct {
	createContentParams
	OriginalID string `json:"originalId"`
	ShareBps   uint32 `json:"shareBps"`
	ProofHash  string `json:"proofHash,omitempty"`
	ProofType  string `json:"proofType,omitempty"`
}

type claimRefParams struct {
	Caller  string `json:"caller"`
	ClaimID string `json:"claimId"`
}

type distributeParams struct {
	Caller  string `json:"caller"`
	ClaimID string `json:"claimId"`
	Amount  string `json:"amount"`
}

type revenueQueryParams struct {
	Asset       string `json:"asset"`
	Beneficiary string `json:"beneficiary"`
}

type contentRefParams struct {
	ID string `json:"id"`
}

type setPlatformFeeParams struct {
	Caller string `json:"caller"`
	FeeBps uint32 `json:"feeBps"`
}

type setProofOracleParams struct {
	Caller string `json:"caller"`
	// Endpoint of the similarity verifier; empty clears the oracle.
	Endpoint string `json:"endpoint"`
}

type contentResult struct {
	ID              string `json:"id"`
	Creator         string `json:"creator"`
	Asset           string `json:"asset"`
	Fingerprint     string `json:"fingerprint"`
	CreatedAt       int64  `json:"createdAt"`
	DerivativeCount uint64 `json:"derivativeCount"`
	PoolKey         string `json:"poolKey"`
	PositionID      uint64 `json:"positionId"`
}

type claimResult struct {
	ID              string `json:"id"`
	Original        string `json:"original"`
	Derivative      string `json:"derivative"`
	OriginalAsset   string `json:"originalAsset"`
	DerivativeAsset string `json:"derivativeAsset"`
	ShareBps        uint32 `json:"shareBps"`
	ProofHash       string `json:"proofHash,omitempty"`
	ProofType       string `json:"proofType"`
	ProofVerified   bool   `json:"proofVerified"`
	Disputed        bool   `json:"disputed"`
	CreatedAt       int64  `json:"createdAt"`
}

type createDerivativeResult struct {
	Content contentResult `json:"content"`
	Claim   claimResult   `json:"claim"`
}

func formatContent(record *content.Record) contentResult {
	return contentResult{
		ID:              hex.EncodeToString(record.ID[:]),
		Creator:         crypto.MustNewAddress(record.Creator).String(),
		Asset:           hex.EncodeToString(record.Asset[:]),
		Fingerprint:     record.Fingerprint,
		CreatedAt:       record.CreatedAt,
		DerivativeCount: record.DerivativeCount,
		PoolKey:         record.Pool.PoolKey,
		PositionID:      record.Pool.PositionID,
	}
}

func formatClaim(claim *claims.Claim) claimResult {
	return claimResult{
		ID:              hex.EncodeToString(claim.ID[:]),
		Original:        hex.EncodeToString(claim.Original[:]),
		Derivative:      hex.EncodeToString(claim.Derivative[:]),
		OriginalAsset:   hex.EncodeToString(claim.OriginalAsset[:]),
		DerivativeAsset: hex.EncodeToString(claim.DerivativeAsset[:]),
		ShareBps:        claim.ShareBps,
		ProofHash:       claim.ProofHash,
		ProofType:       claim.ProofType.String(),
		ProofVerified:   claim.ProofVerified,
		Disputed:        claim.Disputed,
		CreatedAt:       claim.CreatedAt,
	}
}

func decodeParams(params []json.RawMessage, out interface{}) *rpcError {
	if len(params) != 1 {
		return &rpcError{Code: codeInvalidParams, Message: "expected a single params object"}
	}
	if err := json.Unmarshal(params[0], out); err != nil {
		return &rpcError{Code: codeInvalidParams, Message: "malformed params: " + err.Error()}
	}
	return nil
}

func parseCaller(value string) ([20]byte, *rpcError) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, &rpcError{Code: codeInvalidParams, Message: "invalid caller address: " + err.Error()}
	}
	return addr.Raw(), nil
}

func parseHash32(value string) ([32]byte, *rpcError) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil || len(raw) != 32 {
		return [32]byte{}, &rpcError{Code: codeInvalidParams, Message: "expected a 32-byte hex identifier"}
	}
	var out [32]byte
	copy(out[:], raw)
	return out, nil
}

func parseAsset(value string) ([20]byte, *rpcError) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil || len(raw) != 20 {
		return [20]byte{}, &rpcError{Code: codeInvalidParams, Message: "expected a 20-byte hex asset address"}
	}
	var out [20]byte
	copy(out[:], raw)
	return out, nil
}

func parseAmount(value string) (*big.Int, *rpcError) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok || amount.Sign() <= 0 {
		return nil, &rpcError{Code: codeInvalidParams, Message: "amount must be a positive decimal string"}
	}
	return amount, nil
}

func engineError(err error) *rpcError {
	switch {
	case errors.Is(err, inspiration.ErrUnauthorized):
		return &rpcError{Code: codeUnauthorized, Message: err.Error()}
	case errors.Is(err, content.ErrContentNotFound),
		errors.Is(err, claims.ErrClaimNotFound),
		errors.Is(err, revenue.ErrNoPendingRevenue):
		return &rpcError{Code: codeNotFound, Message: err.Error()}
	case errors.Is(err, claims.ErrInvalidShare),
		errors.Is(err, claims.ErrInvalidProofType),
		errors.Is(err, claims.ErrClaimExists),
		errors.Is(err, content.ErrFingerprintRequired),
		errors.Is(err, content.ErrDuplicateContent),
		errors.Is(err, inspiration.ErrFeeTooHigh),
		errors.Is(err, inspiration.ErrInvalidAmount),
		errors.Is(err, revenue.ErrShareUnderflow):
		return &rpcError{Code: codeInvalidParams, Message: err.Error()}
	default:
		return &rpcError{Code: codeServerError, Message: err.Error()}
	}
}

func buildContentParams(p createContentParams) (inspiration.CreateContentParams, *rpcError) {
	out := inspiration.CreateContentParams{
		Fingerprint: p.Fingerprint,
		MetadataURI: p.MetadataURI,
		Name:        p.Name,
		Symbol:      p.Symbol,
	}
	if strings.TrimSpace(p.PairedAsset) != "" {
		paired, rpcErr := parseAsset(p.PairedAsset)
		if rpcErr != nil {
			return inspiration.CreateContentParams{}, rpcErr
		}
		out.Pool = inspiration.PoolConfig{PairedAsset: paired, FeeBps: p.PoolFeeBps}
	}
	salt, rpcErr := parseHash32(p.Salt)
	if rpcErr != nil {
		return inspiration.CreateContentParams{}, rpcErr
	}
	out.Salt = salt
	return out, nil
}

func handleCreateContent(s *Server, params []json.RawMessage) (interface{}, *rpcError) {
	var p createContentParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseCaller(p.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engineParams, rpcErr := buildContentParams(p)
	if rpcErr != nil {
		return nil, rpcErr
	}
	record, err := s.engine.CreateContent(caller, engineParams)
	if err != nil {
		return nil, engineError(err)
	}
	return formatContent(record), nil
}

func handleCreateDerivative(s *Server, params []json.RawMessage) (interface{}, *rpcError) {
	var p createDerivativeParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseCaller(p.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	contentParams, rpcErr := buildContentParams(p.createContentParams)
	if rpcErr != nil {
		return nil, rpcErr
	}
	originalID, rpcErr := parseHash32(p.OriginalID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	proofType, err := claims.ParseProofType(p.ProofType)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	record, claim, err := s.engine.CreateDerivative(caller, inspiration.CreateDerivativeParams{
		CreateContentParams: contentParams,
		OriginalID:          originalID,
		ShareBps:            p.ShareBps,
		ProofHash:           p.ProofHash,
		ProofType:           proofType,
	})
	if err != nil {
		return nil, engineError(err)
	}
	return createDerivativeResult{Content: formatContent(record), Claim: formatClaim(claim)}, nil
}

func handleDispute(s *Server, params []json.RawMessage) (interface{}, *rpcError) {
	var p claimRefParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseCaller(p.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	claimID, rpcErr := parseHash32(p.ClaimID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	claim, err := s.engine.DisputeInspiration(caller, claimID)
	if err != nil {
		return nil, engineError(err)
	}
	observability.Ledger().Disputes.Inc()
	return formatClaim(claim), nil
}

func handleDistribute(s *Server, params []json.RawMessage) (interface{}, *rpcError) {
	var p distributeParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	// The caller on this path is the derivative asset contract, so the
	// identity is a raw asset address rather than a bech32 account.
	caller, rpcErr := parseAsset(p.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	claimID, rpcErr := parseHash32(p.ClaimID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount(p.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.DistributeRevenue(caller, claimID, amount); err != nil {
		return nil, engineError(err)
	}
	observability.Ledger().Distributions.WithLabelValues("direct").Inc()
	return map[string]string{"status": "distributed"}, nil
}

func handleClaimRevenue(s *Server, params []json.RawMessage) (interface{}, *rpcError) {
	var p revenueQueryParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	asset, rpcErr := parseAsset(p.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	beneficiary, rpcErr := parseCaller(p.Beneficiary)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, err := s.engine.ClaimRevenue(asset, beneficiary)
	if err != nil {
		return nil, engineError(err)
	}
	observability.Ledger().Withdrawals.Inc()
	return map[string]string{"amount": amount.String()}, nil
}

func handleSetPlatformFee(s *Server, params []json.RawMessage) (interface{}, *rpcError) {
	var p setPlatformFeeParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseCaller(p.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.SetPlatformFeeBps(caller, p.FeeBps); err != nil {
		return nil, engineError(err)
	}
	return map[string]uint32{"feeBps": p.FeeBps}, nil
}

func handleSetProofOracle(s *Server, params []json.RawMessage) (interface{}, *rpcError) {
	var p setProofOracleParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseCaller(p.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	var verifier inspiration.ProofOracle
	if strings.TrimSpace(p.Endpoint) != "" {
		client, err := oracle.NewHTTPClient(p.Endpoint)
		if err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
		}
		verifier = client
	}
	if err := s.engine.SetProofOracle(caller, verifier); err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"status": "configured"}, nil
}

func handleGetContent(s *Server, params []json.RawMessage) (interface{}, *rpcError) {
	record, rpcErr := lookupContent(s, params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return formatContent(record), nil
}

func handleGetClaim(s *Server, params []json.RawMessage) (interface{}, *rpcError) {
	var p contentRefParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	claimID, rpcErr := parseHash32(p.ID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	claim, err := s.engine.Claims().Get(claimID)
	if err != nil {
		return nil, engineError(err)
	}
	return formatClaim(claim), nil
}

func handlePendingRevenue(s *Server, params []json.RawMessage) (interface{}, *rpcError) {
	var p revenueQueryParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	asset, rpcErr := parseAsset(p.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	beneficiary, rpcErr := parseCaller(p.Beneficiary)
	if rpcErr != nil {
		return nil, rpcErr
	}
	pending, err := s.engine.Revenue().Pending(asset, beneficiary)
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"pending": pending.String()}, nil
}

func handleTotalRevenue(s *Server, params []json.RawMessage) (interface{}, *rpcError) {
	var p contentRefParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	contentID, rpcErr := parseHash32(p.ID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	total, err := s.engine.Revenue().TotalRevenue(contentID)
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"total": total.String()}, nil
}

func handleRankingScore(s *Server, params []json.RawMessage) (interface{}, *rpcError) {
	var p contentRefParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	contentID, rpcErr := parseHash32(p.ID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	score, err := s.engine.RankingScore(contentID)
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]uint64{"score": score}, nil
}

func handleDerivatives(s *Server, params []json.RawMessage) (interface{}, *rpcError) {
	var p contentRefParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	contentID, rpcErr := parseHash32(p.ID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	children, err := s.engine.Registry().DerivativesOf(contentID)
	if err != nil {
		return nil, engineError(err)
	}
	out := make([]string, 0, len(children))
	for _, child := range children {
		out = append(out, hex.EncodeToString(child[:]))
	}
	return map[string][]string{"derivatives": out}, nil
}

func handleDepth(s *Server, params []json.RawMessage) (interface{}, *rpcError) {
	var p contentRefParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	contentID, rpcErr := parseHash32(p.ID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	depth, err := s.engine.Registry().DepthOf(contentID)
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]uint64{"depth": depth}, nil
}

func lookupContent(s *Server, params []json.RawMessage) (*content.Record, *rpcError) {
	var p contentRefParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	contentID, rpcErr := parseHash32(p.ID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	record, err := s.engine.Registry().Get(contentID)
	if err != nil {
		return nil, engineError(err)
	}
	return record, nil
}
