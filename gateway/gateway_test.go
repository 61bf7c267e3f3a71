package gateway

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"musechain/crypto"
	"musechain/devnet"
	"musechain/native/claims"
	"musechain/native/content"
	"musechain/native/inspiration"
	"musechain/native/reputation"
	"musechain/native/revenue"
	"musechain/state"
	"musechain/storage"
)

func newTestGateway(t *testing.T) (*Gateway, *inspiration.Engine) {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())

	registry := content.NewRegistry()
	registry.SetState(manager)
	claimLedger := claims.NewLedger()
	claimLedger.SetState(manager)
	repStore := reputation.NewStore()
	repStore.SetState(manager)
	revLedger := revenue.NewLedger()
	revLedger.SetState(manager)

	var owner [20]byte
	owner[0] = 0xEE
	engine := inspiration.NewEngine(owner, registry, claimLedger, repStore, revLedger)
	engine.SetState(manager)
	hub := devnet.NewAssetHub()
	engine.SetTokenFactory(hub)
	engine.SetLiquidityPool(hub)
	engine.SetAssetTransfer(devnet.NewBank())

	return New(engine, nil), engine
}

func registerContent(t *testing.T, engine *inspiration.Engine, creator byte) *content.Record {
	t.Helper()
	var caller [20]byte
	caller[0] = creator
	var salt [32]byte
	salt[0] = creator
	record, err := engine.CreateContent(caller, inspiration.CreateContentParams{
		Fingerprint: "fp-gateway",
		Salt:        salt,
	})
	require.NoError(t, err)
	return record
}

func get(t *testing.T, gw *Gateway, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	gw.Handler().ServeHTTP(rec, req)
	var body map[string]interface{}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	gw, _ := newTestGateway(t)
	rec, body := get(t, gw, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])
}

func TestContentEndpoint(t *testing.T) {
	gw, engine := newTestGateway(t)
	record := registerContent(t, engine, 1)

	rec, body := get(t, gw, "/v1/content/"+hex.EncodeToString(record.ID[:]))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "fp-gateway", body["fingerprint"])
	require.Equal(t, crypto.MustNewAddress(record.Creator).String(), body["creator"])
	require.Equal(t, float64(0), body["depth"])
}

func TestContentNotFound(t *testing.T) {
	gw, _ := newTestGateway(t)
	rec, _ := get(t, gw, "/v1/content/"+hex.EncodeToString(make([]byte, 32)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContentBadID(t *testing.T) {
	gw, _ := newTestGateway(t)
	rec, _ := get(t, gw, "/v1/content/nothex")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRankingEndpoint(t *testing.T) {
	gw, engine := newTestGateway(t)
	record := registerContent(t, engine, 1)

	rec, body := get(t, gw, "/v1/content/"+hex.EncodeToString(record.ID[:])+"/ranking")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(1000), body["score"])
}

func TestRevenueEndpoint(t *testing.T) {
	gw, engine := newTestGateway(t)
	record := registerContent(t, engine, 1)

	addr := crypto.MustNewAddress(record.Creator).String()
	rec, body := get(t, gw, "/v1/revenue/"+hex.EncodeToString(record.Asset[:])+"/"+addr)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "0", body["pending"])

	rec, _ = get(t, gw, "/v1/revenue/zz/"+addr)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = get(t, gw, "/v1/revenue/"+hex.EncodeToString(record.Asset[:])+"/not-bech32")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsExposed(t *testing.T) {
	gw, _ := newTestGateway(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	gw.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
