package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/lalithlochan/returns-notifier/internal/metrics"
	"github.com/lalithlochan/returns-notifier/internal/redis"
)

// ResellerHeader names the reseller for requests whose body does not.
const ResellerHeader = "X-Reseller-ID"

// RateLimitMiddleware creates an HTTP middleware that enforces per-reseller rate limits.
// The keyFunc extracts the reseller ID; requests without one pass through.
func RateLimitMiddleware(limiter *redis.RateLimiter, logger *zap.Logger, keyFunc func(*http.Request) (int64, bool)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			resellerID, ok := keyFunc(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.Allow(r.Context(), resellerID)
			if err != nil {
				logger.Warn("rate limit check failed",
					zap.Error(err),
					zap.Int64("reseller_id", resellerID),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				metrics.RecordRateLimitRejection("reseller:" + strconv.FormatInt(resellerID, 10))

				retryAfter := int(time.Until(result.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/problem+json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(ErrorResponse{
					Type:   "rate_limit_exceeded",
					Title:  "Too Many Requests",
					Status: http.StatusTooManyRequests,
					Detail: "Rate limit exceeded. Please retry after the specified time.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// maxKeyPeek bounds how much of the body ResellerKeyFunc buffers.
const maxKeyPeek = 64 << 10

// ResellerKeyFunc extracts the reseller ID the request is rate limited under.
// The operation payload (data.resellerId) wins; the X-Reseller-ID header
// covers requests without one. Missing, malformed and non-positive values are
// not rate limited. The body is restored for the next handler.
func ResellerKeyFunc(r *http.Request) (int64, bool) {
	if id, ok := resellerFromBody(r); ok {
		return id, true
	}

	raw := r.Header.Get(ResellerHeader)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func resellerFromBody(r *http.Request) (int64, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return 0, false
	}

	peeked, err := io.ReadAll(io.LimitReader(r.Body, maxKeyPeek))
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(peeked), r.Body), Closer: r.Body}
	if err != nil || len(peeked) == 0 {
		return 0, false
	}

	var body struct {
		Data *struct {
			ResellerID int64 `json:"resellerId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(peeked, &body); err != nil || body.Data == nil || body.Data.ResellerID <= 0 {
		return 0, false
	}
	return body.Data.ResellerID, true
}

type readCloser struct {
	io.Reader
	io.Closer
}
