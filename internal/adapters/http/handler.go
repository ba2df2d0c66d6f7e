package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const KeepAliveMessage = "Stock price alert bot is running!"

type QuoteLister interface {
	ListTracked() []domain.ListEntry
}

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) bool

type Handler struct {
	service QuoteLister
	checks  map[string]Check
}

func NewHandler(s QuoteLister) *Handler {
	return &Handler{service: s, checks: make(map[string]Check)}
}

func (h *Handler) AddCheck(name string, c Check) {
	h.checks[name] = c
}

// SourceCheck reports the price source reachable when it can quote t.
func SourceCheck(src domain.PriceSource, t domain.Ticker) Check {
	return func(ctx context.Context) bool {
		_, err := src.LiveQuote(ctx, t)
		return err == nil
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(metricsMiddleware)

	r.Get("/", h.keepAlive)
	r.Get("/api/v1/quotes", h.listQuotes)
	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type successResponse struct {
	Data interface{}            `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type healthzResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "", http.StatusInternalServerError)
	}
}

func (h *Handler) keepAlive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(KeepAliveMessage))
}

// listQuotes optionally filters by ?tickers=AAPL,NVDA while keeping the
// configured order.
func (h *Handler) listQuotes(w http.ResponseWriter, r *http.Request) {
	entries := h.service.ListTracked()

	if q := strings.TrimSpace(r.URL.Query().Get("tickers")); q != "" {
		wanted := make(map[domain.Ticker]bool)
		for _, p := range strings.Split(q, ",") {
			if t := strings.ToUpper(strings.TrimSpace(p)); t != "" {
				wanted[domain.Ticker(t)] = true
			}
		}
		filtered := entries[:0]
		for _, e := range entries {
			if wanted[e.Ticker] {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if len(entries) == 0 {
		respondJSON(w, http.StatusNotFound, errorResponse{
			Error: "Requested tickers are not tracked",
			Code:  "NOT_FOUND",
		})
		return
	}

	live := 0
	for _, e := range entries {
		if e.HasQuote() {
			live++
		}
	}
	respondJSON(w, http.StatusOK, successResponse{
		Data: entries,
		Meta: map[string]interface{}{
			"count": len(entries),
			"live":  live,
		},
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		respondJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "not ready"})
		return
	}
	respondJSON(w, http.StatusOK, statusResponse{Status: "ready"})
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	services := make(map[string]string, len(names))
	status := "ok"
	for _, name := range names {
		if h.checks[name](ctx) {
			services[name] = "reachable"
		} else {
			services[name] = "unreachable"
			status = "degraded"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, healthzResponse{Status: status, Services: services})
}

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: []float64{0.1, 0.5, 1, 2, 5},
	}, []string{"method", "path"})
)

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}
		httpRequestsTotal.WithLabelValues(r.Method, path, http.StatusText(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
