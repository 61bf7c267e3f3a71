package gateway

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"musechain/crypto"
	"musechain/native/claims"
	"musechain/native/content"
	"musechain/native/inspiration"
)

// Gateway serves the read-only REST surface in front of the engine. Writes go
// through JSON-RPC only.
type Gateway struct {
	engine *inspiration.Engine
	log    *slog.Logger
	router chi.Router
}

// New assembles the gateway router.
func New(engine *inspiration.Engine, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	g := &Gateway{engine: engine, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", g.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/content/{id}", g.handleContent)
		r.Get("/content/{id}/ranking", g.handleRanking)
		r.Get("/content/{id}/derivatives", g.handleDerivatives)
		r.Get("/content/{id}/claims", g.handleClaims)
		r.Get("/revenue/{asset}/{addr}", g.handleRevenue)
	})
	g.router = r
	return g
}

// Handler returns the HTTP entry point.
func (g *Gateway) Handler() http.Handler { return g.router }

// Start serves the gateway on addr and blocks.
func (g *Gateway) Start(addr string) error {
	g.log.Info("starting gateway", "addr", addr)
	server := &http.Server{
		Addr:              addr,
		Handler:           g.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) handleContent(w http.ResponseWriter, r *http.Request) {
	id, ok := contentID(w, r)
	if !ok {
		return
	}
	record, err := g.engine.Registry().Get(id)
	if err != nil {
		g.writeError(w, err)
		return
	}
	depth, err := g.engine.Registry().DepthOf(id)
	if err != nil {
		g.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":              hex.EncodeToString(record.ID[:]),
		"creator":         crypto.MustNewAddress(record.Creator).String(),
		"asset":           hex.EncodeToString(record.Asset[:]),
		"fingerprint":     record.Fingerprint,
		"createdAt":       record.CreatedAt,
		"derivativeCount": record.DerivativeCount,
		"depth":           depth,
	})
}

func (g *Gateway) handleRanking(w http.ResponseWriter, r *http.Request) {
	id, ok := contentID(w, r)
	if !ok {
		return
	}
	score, err := g.engine.RankingScore(id)
	if err != nil {
		g.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":    hex.EncodeToString(id[:]),
		"score": score,
	})
}

func (g *Gateway) handleDerivatives(w http.ResponseWriter, r *http.Request) {
	id, ok := contentID(w, r)
	if !ok {
		return
	}
	children, err := g.engine.Registry().DerivativesOf(id)
	if err != nil {
		g.writeError(w, err)
		return
	}
	out := make([]string, 0, len(children))
	for _, child := range children {
		out = append(out, hex.EncodeToString(child[:]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"derivatives": out})
}

func (g *Gateway) handleClaims(w http.ResponseWriter, r *http.Request) {
	id, ok := contentID(w, r)
	if !ok {
		return
	}
	list, err := g.engine.Claims().ClaimsForOriginal(id)
	if err != nil {
		g.writeError(w, err)
		return
	}
	out := make([]map[string]interface{}, 0, len(list))
	for _, claim := range list {
		out = append(out, map[string]interface{}{
			"id":            hex.EncodeToString(claim.ID[:]),
			"derivative":    hex.EncodeToString(claim.Derivative[:]),
			"shareBps":      claim.ShareBps,
			"proofType":     claim.ProofType.String(),
			"proofVerified": claim.ProofVerified,
			"disputed":      claim.Disputed,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"claims": out})
}

func (g *Gateway) handleRevenue(w http.ResponseWriter, r *http.Request) {
	assetRaw, err := hex.DecodeString(strings.TrimPrefix(chi.URLParam(r, "asset"), "0x"))
	if err != nil || len(assetRaw) != 20 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "asset must be a 20-byte hex address"})
		return
	}
	addr, err := crypto.DecodeAddress(chi.URLParam(r, "addr"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid beneficiary address"})
		return
	}
	var asset [20]byte
	copy(asset[:], assetRaw)
	pending, err := g.engine.Revenue().Pending(asset, addr.Raw())
	if err != nil {
		g.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"pending": pending.String()})
}

func (g *Gateway) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, content.ErrContentNotFound) || errors.Is(err, claims.ErrClaimNotFound) {
		status = http.StatusNotFound
	} else {
		g.log.Error("gateway request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func contentID(w http.ResponseWriter, r *http.Request) ([32]byte, bool) {
	raw, err := hex.DecodeString(strings.TrimPrefix(chi.URLParam(r, "id"), "0x"))
	if err != nil || len(raw) != 32 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id must be a 32-byte hex identifier"})
		return [32]byte{}, false
	}
	var id [32]byte
	copy(id[:], raw)
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
