package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lalithlochan/returns-notifier/internal/circuitbreaker"
	"github.com/lalithlochan/returns-notifier/internal/metrics"
	"github.com/lalithlochan/returns-notifier/internal/redis"
)

// RouterConfig collects what the HTTP surface needs. Cache, Limiter and the
// health entries are optional.
type RouterConfig struct {
	Handler  *Handler
	Cache    *CacheHandler
	Limiter  *redis.RateLimiter
	Health   map[string]Pinger
	Breakers []*circuitbreaker.CircuitBreaker
	Timeout  time.Duration
}

// NewRouter wires middleware and routes.
func NewRouter(cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Timeout > 0 {
		r.Use(middleware.Timeout(cfg.Timeout))
	}
	r.Use(metrics.Middleware)
	r.Use(requestLogger(logger))

	r.Route("/v1", func(r chi.Router) {
		r.Use(RateLimitMiddleware(cfg.Limiter, logger, ResellerKeyFunc))

		r.Post("/returns/notifications", cfg.Handler.NotifyReturn)
		if cfg.Cache != nil {
			r.Delete("/resellers/{resellerID}/settings/cache", cfg.Cache.InvalidateSettings)
		}
	})

	r.Get("/health", HealthHandler(cfg.Health, cfg.Breakers...))
	r.Handle("/metrics", metrics.Handler())

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration_ms", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
