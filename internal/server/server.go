// Package server exposes the live index over a read-only JSON HTTP API.
//
// Route table:
//
//	GET /api/v1/terms/{term}          → exact term lookup
//	GET /api/v1/documents/{position}  → resolve a document position
//	GET /api/v1/search?q=&limit=      → ranked query search
//	GET /api/v1/info                  → index statistics
//	GET /healthz                      → liveness
//	GET /metrics                      → Prometheus exposition
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kamusis/docidx/internal/live"
	"github.com/kamusis/docidx/internal/metrics"
	"github.com/kamusis/docidx/internal/search"
	searchindex "github.com/kamusis/docidx/internal/search/index"
)

// DefaultSearchLimit applies when a search request has no limit.
const DefaultSearchLimit = 20

// Source provides the snapshot to answer from.
type Source interface {
	Current() *live.Snapshot
}

// Options configures a Server.
type Options struct {
	// CacheSize is the number of term and search responses kept; 0 disables
	// the cache.
	CacheSize int
	// Metrics and Gatherer default to a private registry when nil.
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Server answers lookups against the snapshot its Source currently serves.
type Server struct {
	src     Source
	cache   *lru.Cache[string, any]
	metrics *metrics.Metrics
	gather  prometheus.Gatherer
	logger  *slog.Logger
}

// TermResponse is the body of a term lookup.
type TermResponse struct {
	Term    string                      `json:"term"`
	Present bool                        `json:"present"`
	Matches []searchindex.DocumentMatch `json:"matches"`
}

// SearchResponse is the body of a query search.
type SearchResponse struct {
	Query   search.Query    `json:"query"`
	Results []search.Result `json:"results"`
}

// InfoResponse describes the snapshot being served.
type InfoResponse struct {
	Generation uint64            `json:"generation"`
	Path       string            `json:"path,omitempty"`
	LoadedAt   time.Time         `json:"loaded_at"`
	Stats      searchindex.Stats `json:"stats"`
	EnvVersion map[string]int    `json:"envversion"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New creates a Server reading from src.
func New(src Source, opts Options) (*Server, error) {
	s := &Server{
		src:     src,
		metrics: opts.Metrics,
		gather:  opts.Gatherer,
		logger:  opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "server")
	}
	if s.metrics == nil {
		reg := prometheus.NewRegistry()
		s.metrics = metrics.New(reg)
		s.gather = reg
	}
	if s.gather == nil {
		s.gather = prometheus.DefaultGatherer
	}
	if opts.CacheSize > 0 {
		c, err := lru.New[string, any](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("cannot create result cache: %w", err)
		}
		s.cache = c
	}
	return s, nil
}

// Metrics returns the collectors the server records into.
func (s *Server) Metrics() *metrics.Metrics { return s.metrics }

// Handler builds the HTTP handler with all routes and instrumentation.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.Handle("GET /metrics", metrics.Handler(s.gather))

	mux.HandleFunc("GET /api/v1/terms/{term}", s.lookupTerm)
	mux.HandleFunc("GET /api/v1/documents/{position}", s.resolveDocument)
	mux.HandleFunc("GET /api/v1/search", s.search)
	mux.HandleFunc("GET /api/v1/info", s.info)

	return instrument(s.metrics, s.logger, mux)
}

func (s *Server) snapshot() (*live.Snapshot, error) {
	snap := s.src.Current()
	if snap == nil || snap.Index == nil {
		return nil, ErrNoIndex
	}
	return snap, nil
}

// cached returns the value stored under key for the snapshot's generation,
// computing and storing it on a miss.
func (s *Server) cached(snap *live.Snapshot, key string, compute func() any) any {
	if s.cache == nil {
		return compute()
	}
	k := strconv.FormatUint(snap.Generation, 10) + "\x00" + key
	if v, ok := s.cache.Get(k); ok {
		s.metrics.CacheHitsTotal.Inc()
		return v
	}
	s.metrics.CacheMissesTotal.Inc()
	v := compute()
	s.cache.Add(k, v)
	return v
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	if _, err := s.snapshot(); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) lookupTerm(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		s.lookupFailed("term", w, err)
		return
	}
	term := r.PathValue("term")
	resp := s.cached(snap, "term\x00"+term, func() any {
		return TermResponse{
			Term:    term,
			Present: snap.Index.HasTerm(term),
			Matches: snap.Index.LookupTerm(term),
		}
	}).(TermResponse)

	s.countLookup("term", len(resp.Matches))
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) resolveDocument(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		s.lookupFailed("document", w, err)
		return
	}
	raw := r.PathValue("position")
	pos, err := strconv.Atoi(raw)
	if err != nil {
		s.lookupFailed("document", w, fmt.Errorf("%w: position %q is not an integer", ErrInvalidInput, raw))
		return
	}
	info, err := snap.Index.ResolveDocument(searchindex.DocumentID(pos))
	if err != nil {
		s.lookupFailed("document", w, err)
		return
	}
	s.countLookup("document", 1)
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		s.lookupFailed("search", w, err)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.lookupFailed("search", w, fmt.Errorf("%w: query parameter q is required", ErrInvalidInput))
		return
	}
	limit := DefaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.lookupFailed("search", w, fmt.Errorf("%w: limit %q must be a non-negative integer", ErrInvalidInput, v))
			return
		}
		limit = n
	}

	resp := s.cached(snap, "search\x00"+strconv.Itoa(limit)+"\x00"+q, func() any {
		return SearchResponse{
			Query:   search.Tokenize(q),
			Results: search.Search(snap.Index, q, search.Options{Limit: limit}),
		}
	}).(SearchResponse)

	s.countLookup("search", len(resp.Results))
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) info(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, InfoResponse{
		Generation: snap.Generation,
		Path:       snap.Path,
		LoadedAt:   snap.LoadedAt,
		Stats:      snap.Index.Stats(),
		EnvVersion: snap.Index.EnvVersion(),
	})
}

func (s *Server) countLookup(kind string, n int) {
	result := "hit"
	if n == 0 {
		result = "empty"
	}
	s.metrics.LookupsTotal.WithLabelValues(kind, result).Inc()
}

func (s *Server) lookupFailed(kind string, w http.ResponseWriter, err error) {
	s.metrics.LookupsTotal.WithLabelValues(kind, "error").Inc()
	s.writeError(w, err)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
