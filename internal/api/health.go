package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/lalithlochan/returns-notifier/internal/circuitbreaker"
)

// Pinger is a dependency whose liveness the health check reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status       string                 `json:"status"`
	Dependencies map[string]string      `json:"dependencies,omitempty"`
	Breakers     []circuitbreaker.Stats `json:"breakers,omitempty"`
}

// HealthHandler reports "ok" when every dependency answers and no breaker is
// open, "degraded" otherwise. A failing dependency turns the status code to 503.
func HealthHandler(deps map[string]Pinger, breakers ...*circuitbreaker.CircuitBreaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		code := http.StatusOK

		if len(deps) > 0 {
			resp.Dependencies = make(map[string]string, len(deps))
			for name, dep := range deps {
				if err := dep.Ping(ctx); err != nil {
					resp.Dependencies[name] = err.Error()
					resp.Status = "degraded"
					code = http.StatusServiceUnavailable
					continue
				}
				resp.Dependencies[name] = "ok"
			}
		}

		for _, cb := range breakers {
			stats := cb.Stats()
			if stats.State == circuitbreaker.StateOpen.String() {
				resp.Status = "degraded"
			}
			resp.Breakers = append(resp.Breakers, stats)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(resp)
	}
}

// PingFunc adapts a plain check function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }
