package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"musechain/native/inspiration"
	"musechain/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	writeRateLimit  = rate.Limit(5.0 / 60.0)
	writeRateBurst  = 5
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeNotFound       = -32004
	codeServerError    = -32000
	codeRateLimited    = -32020
)

// Server exposes the inspiration engine over JSON-RPC 2.0.
type Server struct {
	engine *inspiration.Engine
	log    *slog.Logger

	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	authToken string
}

// NewServer builds an RPC server around the engine. Mutating methods require
// the bearer token from MUSE_RPC_TOKEN when one is configured.
func NewServer(engine *inspiration.Engine, log *slog.Logger) *Server {
	token := strings.TrimSpace(os.Getenv("MUSE_RPC_TOKEN"))
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		engine:    engine,
		log:       log,
		limiters:  make(map[string]*rate.Limiter),
		authToken: token,
	}
}

// Start serves the RPC endpoint on addr and blocks.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	s.log.Info("starting JSON-RPC server", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

// Handler returns the RPC entry point for embedding in another mux.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handle)
}

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeRPCError(w, nil, codeParseError, "unable to read request body")
		return
	}
	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeRPCError(w, nil, codeParseError, "invalid JSON payload")
		return
	}
	if req.JSONRPC != jsonRPCVersion || strings.TrimSpace(req.Method) == "" {
		writeRPCError(w, req.ID, codeInvalidRequest, "malformed JSON-RPC request")
		return
	}

	method, ok := methods[req.Method]
	if !ok {
		writeRPCError(w, req.ID, codeMethodNotFound, "unknown method "+req.Method)
		return
	}
	if method.mutating {
		if !s.authorized(r) {
			writeRPCError(w, req.ID, codeUnauthorized, "missing or invalid bearer token")
			return
		}
		if !s.allow(sourceAddr(r)) {
			writeRPCError(w, req.ID, codeRateLimited, "rate limit exceeded")
			return
		}
	}

	metrics := observability.Modules()
	started := time.Now()
	result, rpcErr := method.fn(s, req.Params)
	metrics.Latency.WithLabelValues(req.Method).Observe(time.Since(started).Seconds())
	if rpcErr != nil {
		metrics.Requests.WithLabelValues(req.Method, "error").Inc()
		metrics.Errors.WithLabelValues(req.Method).Inc()
		writeRPCError(w, req.ID, rpcErr.Code, rpcErr.Message)
		return
	}
	metrics.Requests.WithLabelValues(req.Method, "ok").Inc()
	writeRPCResult(w, req.ID, result)
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) == 1
}

func (s *Server) allow(source string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	limiter, ok := s.limiters[source]
	if !ok {
		limiter = rate.NewLimiter(writeRateLimit, writeRateBurst)
		s.limiters[source] = limiter
	}
	return limiter.Allow()
}

func sourceAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRPCResult(w http.ResponseWriter, id interface{}, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func writeRPCError(w http.ResponseWriter, id interface{}, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &rpcError{Code: code, Message: message}})
}
