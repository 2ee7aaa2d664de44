package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fintrackr/fintrackr/internal/core/domain"
	"github.com/fintrackr/fintrackr/internal/telemetry/logger"
	"github.com/fintrackr/fintrackr/internal/telemetry/metric"
)

// Pinger is implemented by backends that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Registry is exposed on /metrics. Nil disables the endpoint.
	Registry *prometheus.Registry

	// Storage is pinged by /healthz when it implements Pinger.
	Storage any

	// PingTimeout bounds the storage ping. Defaults to 2s.
	PingTimeout time.Duration

	// RateLimit caps requests per second. Zero disables the limit.
	RateLimit int

	Logger logger.Logger
}

// NewRouter creates the handler for the operational endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 2 * time.Second
	}

	mux := http.NewServeMux()
	if cfg.Registry != nil {
		mux.Handle("GET /metrics", metric.Handler(cfg.Registry))
	}
	pinger, _ := cfg.Storage.(Pinger)
	mux.HandleFunc("GET /healthz", healthHandler(pinger, cfg.PingTimeout))

	middlewares := []Middleware{Recover(log), RequestID(), Audit(log)}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimit))
	}
	return Chain(mux, middlewares...)
}

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
	Time    string `json:"time"`
}

func healthHandler(pinger Pinger, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status: "healthy",
			Time:   time.Now().UTC().Format(time.RFC3339),
		}
		if pinger == nil {
			writeJSON(w, http.StatusOK, resp)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := pinger.Ping(ctx); err != nil {
			logger.L(r.Context()).Warn("storage ping failed", "error", err)
			resp.Status = "unhealthy"
			resp.Storage = domain.ErrStorage.Code
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Storage = "ok"
		writeJSON(w, http.StatusOK, resp)
	}
}
