package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/kjannette/marketpulse/internal/ingest"
	"github.com/kjannette/marketpulse/internal/models"
)

const maxQueryLimit = 1000

var dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// MarketDataReader is the read side of the market_data table.
type MarketDataReader interface {
	LatestN(ctx context.Context, symbol models.MarketSymbol, n int) ([]models.MarketDataPoint, error)
}

// MetricReader is the read side of the market_metrics table.
type MetricReader interface {
	LatestN(ctx context.Context, name models.MarketSymbol, n int) ([]models.MarketMetricPoint, error)
	Latest(ctx context.Context, name models.MarketSymbol) (*models.MarketMetricPoint, error)
	LatestForNames(ctx context.Context, names []models.MarketSymbol) ([]models.MarketMetricPoint, error)
	Range(ctx context.Context, name models.MarketSymbol, from, to time.Time) ([]models.MarketMetricPoint, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// WorkerStatus is what the health endpoint reports per ingestion worker.
type WorkerStatus interface {
	Name() string
	State() ingest.State
	Cycles() int64
}

// Deps are the server's collaborators. DB, Gatherer and Workers are optional.
type Deps struct {
	Data     MarketDataReader
	Metrics  MetricReader
	DB       Pinger
	Gatherer prometheus.Gatherer
	Workers  []WorkerStatus
	Log      zerolog.Logger
}

type Server struct {
	data       MarketDataReader
	metrics    MetricReader
	db         Pinger
	workers    []WorkerStatus
	log        zerolog.Logger
	handler    http.Handler
	httpServer *http.Server
	apiKey     string
}

func NewServer(d Deps, port int, apiKey, corsOrigin string) *Server {
	s := &Server{
		data:    d.Data,
		metrics: d.Metrics,
		db:      d.DB,
		workers: d.Workers,
		log:     d.Log,
		apiKey:  apiKey,
	}

	mux := http.NewServeMux()

	// Dashboard
	mux.HandleFunc("GET /api/btc/dashboard", s.handleDashboard)

	// Asset routes
	mux.HandleFunc("GET /v1/assets/{symbol}/latest", s.handleAssetLatest)

	// Metric routes
	mux.HandleFunc("GET /v1/metrics/{name}/latest", s.handleMetricLatest)
	mux.HandleFunc("GET /v1/metrics/{name}/range", s.handleMetricRange)

	// Health check and scrape endpoint (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)
	if d.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	s.handler = s.authMiddleware(corsMiddleware(mux, corsOrigin))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Handler exposes the full middleware chain.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) Start() error {
	s.log.Info().
		Str("addr", s.httpServer.Addr).
		Bool("auth", s.apiKey != "").
		Msg("REST API server started")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

func validateDate(date string) bool {
	if !dateRegexp.MatchString(date) {
		return false
	}
	_, err := time.Parse(models.DateLayout, date)
	return err == nil
}

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
