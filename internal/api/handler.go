package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lalithlochan/returns-notifier/internal/complaint"
	"github.com/lalithlochan/returns-notifier/internal/metrics"
	"github.com/lalithlochan/returns-notifier/internal/redis"
)

// Notifier runs the return notification operation.
type Notifier interface {
	Do(ctx context.Context, req complaint.NotificationRequest) (complaint.NotificationResult, error)
}

// NotificationRequest is the incoming request body; the operation input
// travels under "data".
type NotificationRequest struct {
	Data *complaint.NotificationRequest `json:"data"`
}

// ErrorResponse represents an error in problem+json format
type ErrorResponse struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Handler holds dependencies for API handlers
type Handler struct {
	logger      *zap.Logger
	notifier    Notifier
	idempotency *redis.IdempotencyService // nil if Redis not configured
	timeout     time.Duration
}

// NewHandler creates a new API handler. idempotency may be nil; a zero
// timeout leaves the request context unbounded.
func NewHandler(logger *zap.Logger, notifier Notifier, idempotency *redis.IdempotencyService, timeout time.Duration) *Handler {
	return &Handler{
		logger:      logger,
		notifier:    notifier,
		idempotency: idempotency,
		timeout:     timeout,
	}
}

// NotifyReturn handles POST /v1/returns/notifications.
// Supports idempotency via the Idempotency-Key header.
func (h *Handler) NotifyReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body NotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body", err.Error())
		return
	}

	var req complaint.NotificationRequest
	if body.Data != nil {
		req = *body.Data
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	useIdempotency := idempotencyKey != "" && h.idempotency != nil && req.ResellerID != 0

	if useIdempotency {
		cached, err := h.idempotency.CheckOrReserve(ctx, req.ResellerID, idempotencyKey)
		switch {
		case errors.Is(err, redis.ErrDuplicateRequest):
			h.writeError(w, http.StatusConflict, "duplicate_request",
				"Request is already being processed",
				"Another request with this idempotency key is in progress")
			return
		case err != nil:
			h.logger.Warn("idempotency check failed, proceeding",
				zap.Error(err),
				zap.String("idempotency_key", idempotencyKey),
			)
			useIdempotency = false
		case cached != nil:
			metrics.RecordIdempotencyHit()
			contentType := "application/json"
			if cached.StatusCode >= 400 {
				contentType = "application/problem+json"
			}
			w.Header().Set("Content-Type", contentType)
			w.Header().Set("X-Idempotency-Replayed", "true")
			w.WriteHeader(cached.StatusCode)
			_, _ = w.Write(cached.Body)
			return
		}
	}

	opCtx := ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	status := http.StatusOK
	var payload any
	contentType := "application/json"

	result, err := h.notifier.Do(opCtx, req)
	if err != nil {
		status, payload = problemFor(err)
		contentType = "application/problem+json"
	} else {
		payload = result
	}

	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to encode response", "")
		return
	}

	if useIdempotency {
		h.rememberOutcome(ctx, req.ResellerID, idempotencyKey, status, data)
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// rememberOutcome caches deterministic outcomes (success and 4xx) for replay.
// Server-side failures free the key so the client can retry.
func (h *Handler) rememberOutcome(ctx context.Context, resellerID int64, key string, status int, body []byte) {
	// The request context may already be cancelled by the time we get here.
	ctx = context.WithoutCancel(ctx)

	if status >= http.StatusInternalServerError {
		if err := h.idempotency.Release(ctx, resellerID, key); err != nil {
			h.logger.Warn("failed to release idempotency key",
				zap.Error(err),
				zap.String("idempotency_key", key),
			)
		}
		return
	}

	result := &redis.IdempotencyResult{StatusCode: status, Body: body}
	if err := h.idempotency.Store(ctx, resellerID, key, result, redis.IdempotencyTTL); err != nil {
		h.logger.Warn("failed to store idempotency result",
			zap.Error(err),
			zap.String("idempotency_key", key),
		)
	}
}

// problemFor maps an operation error to its HTTP status and problem body.
func problemFor(err error) (int, ErrorResponse) {
	var opErr *complaint.Error
	if !errors.As(err, &opErr) {
		return http.StatusInternalServerError, ErrorResponse{
			Type:   "internal_error",
			Title:  "Internal error",
			Status: http.StatusInternalServerError,
		}
	}

	resp := ErrorResponse{
		Type:   string(opErr.Kind),
		Title:  opErr.Message,
		Status: opErr.Code(),
	}
	if opErr.Kind == complaint.KindValidation {
		resp.Detail = opErr.Field
	}
	return opErr.Code(), resp
}

func (h *Handler) writeError(w http.ResponseWriter, status int, errType, title, detail string) {
	writeProblem(w, status, errType, title, detail)
}

func writeProblem(w http.ResponseWriter, status int, errType, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Type:   errType,
		Title:  title,
		Status: status,
		Detail: detail,
	})
}
