// internal/api/router.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"customer-onboarding/internal/common/logger"
	"customer-onboarding/internal/common/metrics"
	"customer-onboarding/internal/common/observability"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestIDHeader = "X-Request-ID"

// ReadinessCheck is probed by /ready.
type ReadinessCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Dependencies collects handler dependencies. A nil FraudMock leaves the mock
// fraud endpoint unmounted.
type Dependencies struct {
	Customers     CustomerService
	Blacklist     BlacklistStore
	FraudMock     FraudScorer
	Readiness     []ReadinessCheck
	Observability *observability.Observability
	MinimumAge    int
	Now           func() time.Time
}

// NewRouter wires every HTTP route of the service.
func NewRouter(log logger.Logger, deps Dependencies) http.Handler {
	h := newHandlers(log, deps)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /customers", h.createCustomer)
	mux.HandleFunc("POST /customers/{$}", h.createCustomer)
	mux.HandleFunc("GET /customers", h.listCustomers)
	mux.HandleFunc("GET /customers/{$}", h.listCustomers)
	mux.HandleFunc("GET /customers/{id}", h.getCustomer)

	mux.HandleFunc("POST /blacklist", h.createBlacklistEntry)
	mux.HandleFunc("POST /blacklist/{$}", h.createBlacklistEntry)

	if deps.FraudMock != nil {
		mux.HandleFunc("POST /fraud/fraud-detection", h.detectFraud)
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("GET /ready", readyHandler(log, deps.Readiness))
	mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(log, deps.Observability, mux)
}

func readyHandler(log logger.Logger, checks []ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Probe(ctx); err != nil {
				log.Warn("readiness probe failed", map[string]interface{}{
					"check": c.Name,
					"error": err,
				})
				status = http.StatusServiceUnavailable
				results[c.Name] = err.Error()
				continue
			}
			results[c.Name] = "ok"
		}

		payload := map[string]interface{}{
			"status": "ready",
			"checks": results,
			"time":   time.Now().UTC().Format(time.RFC3339),
		}
		if status != http.StatusOK {
			payload["status"] = "not_ready"
		}
		respondJSON(w, status, payload)
	}
}

func loggingMiddleware(log logger.Logger, obs *observability.Observability, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, requestID)

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		duration := time.Since(start)

		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).
			Observe(duration.Seconds())
		obs.RecordRequest(r.Context(), route, rec.status, duration)

		log.Info("request completed", map[string]interface{}{
			"requestId":   requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": duration.Milliseconds(),
		})
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
