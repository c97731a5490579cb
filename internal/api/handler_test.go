package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lalithlochan/returns-notifier/internal/complaint"
	"github.com/lalithlochan/returns-notifier/internal/redis"
)

// MockNotifier records operation calls and returns a canned outcome.
type MockNotifier struct {
	result complaint.NotificationResult
	err    error
	calls  []complaint.NotificationRequest
	// deadline reports whether the last call saw a context deadline.
	deadline bool
}

func (m *MockNotifier) Do(ctx context.Context, req complaint.NotificationRequest) (complaint.NotificationResult, error) {
	m.calls = append(m.calls, req)
	_, m.deadline = ctx.Deadline()
	return m.result, m.err
}

func newRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := redis.New(context.Background(), redis.Config{Host: mr.Host(), Port: port}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func postNotification(t *testing.T, h http.HandlerFunc, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/returns/notifications", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

const validBody = `{"data":{"resellerId":7,"notificationType":1,"clientId":100,"creatorId":200,"expertId":201,"complaintId":300,"complaintNumber":"C-300","consumptionId":400,"consumptionNumber":"R-400","agreementNumber":"AG-1","date":"2024-05-01"}}`

func TestNotifyReturn_Success(t *testing.T) {
	notifier := &MockNotifier{result: complaint.NotificationResult{ClientBySMS: complaint.SMSOutcome{IsSent: true}}}
	h := NewHandler(zap.NewNop(), notifier, nil, time.Second)

	rec := postNotification(t, h.NotifyReturn, validBody, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Len(t, notifier.calls, 1)

	got := notifier.calls[0]
	assert.Equal(t, int64(7), got.ResellerID)
	assert.Equal(t, complaint.TypeNew, got.NotificationType)
	assert.Equal(t, "C-300", got.ComplaintNumber)
	assert.True(t, notifier.deadline, "operation should run under the request timeout")

	var result complaint.NotificationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.ClientBySMS.IsSent)
}

func TestNotifyReturn_MalformedJSON(t *testing.T) {
	notifier := &MockNotifier{}
	h := NewHandler(zap.NewNop(), notifier, nil, 0)

	rec := postNotification(t, h.NotifyReturn, `{"data":`, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeProblem(t, rec).Type)
	assert.Empty(t, notifier.calls)
}

func TestNotifyReturn_MissingDataRunsEmptyRequest(t *testing.T) {
	notifier := &MockNotifier{}
	h := NewHandler(zap.NewNop(), notifier, nil, 0)

	rec := postNotification(t, h.NotifyReturn, `{}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, complaint.NotificationRequest{}, notifier.calls[0])
	assert.False(t, notifier.deadline)
}

func TestNotifyReturn_OperationErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantTitle  string
		wantDetail string
	}{
		{
			name:       "input error",
			err:        &complaint.Error{Kind: complaint.KindInput, Message: "Empty resellerId"},
			wantStatus: http.StatusBadRequest,
			wantType:   "input",
			wantTitle:  "Empty resellerId",
		},
		{
			name:       "not found",
			err:        &complaint.Error{Kind: complaint.KindNotFound, Message: "Client not found!"},
			wantStatus: http.StatusBadRequest,
			wantType:   "not_found",
			wantTitle:  "Client not found!",
		},
		{
			name:       "validation carries the field",
			err:        &complaint.Error{Kind: complaint.KindValidation, Message: "Template Data (DATE) is empty!", Field: "DATE"},
			wantStatus: http.StatusInternalServerError,
			wantType:   "validation",
			wantTitle:  "Template Data (DATE) is empty!",
			wantDetail: "DATE",
		},
		{
			name:       "collaborator hides the cause",
			err:        &complaint.Error{Kind: complaint.KindCollaborator, Message: "send employee emails", Err: errors.New("ses: throttled")},
			wantStatus: http.StatusInternalServerError,
			wantType:   "collaborator",
			wantTitle:  "send employee emails",
		},
		{
			name:       "foreign error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   "internal_error",
			wantTitle:  "Internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(zap.NewNop(), &MockNotifier{err: tt.err}, nil, 0)

			rec := postNotification(t, h.NotifyReturn, validBody, nil)

			require.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, resp.Type)
			assert.Equal(t, tt.wantTitle, resp.Title)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantDetail, resp.Detail)
		})
	}
}

func TestNotifyReturn_IdempotentReplay(t *testing.T) {
	client, _ := newRedisClient(t)
	notifier := &MockNotifier{result: complaint.NotificationResult{ClientBySMS: complaint.SMSOutcome{Message: "client has no mobile number"}}}
	h := NewHandler(zap.NewNop(), notifier, redis.NewIdempotencyService(client, zap.NewNop()), 0)
	headers := map[string]string{"Idempotency-Key": "abc"}

	first := postNotification(t, h.NotifyReturn, validBody, headers)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get("X-Idempotency-Replayed"))

	second := postNotification(t, h.NotifyReturn, validBody, headers)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	assert.Len(t, notifier.calls, 1, "replay must not re-run the operation")
}

func TestNotifyReturn_IdempotentReplayOfClientError(t *testing.T) {
	client, _ := newRedisClient(t)
	notifier := &MockNotifier{err: &complaint.Error{Kind: complaint.KindNotFound, Message: "Seller not found!"}}
	h := NewHandler(zap.NewNop(), notifier, redis.NewIdempotencyService(client, zap.NewNop()), 0)
	headers := map[string]string{"Idempotency-Key": "abc"}

	postNotification(t, h.NotifyReturn, validBody, headers)
	second := postNotification(t, h.NotifyReturn, validBody, headers)

	require.Equal(t, http.StatusBadRequest, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, "Seller not found!", decodeProblem(t, second).Title)
	assert.Len(t, notifier.calls, 1)
}

func TestNotifyReturn_ServerFailureReleasesKey(t *testing.T) {
	client, _ := newRedisClient(t)
	notifier := &MockNotifier{err: &complaint.Error{Kind: complaint.KindCollaborator, Message: "send employee emails", Err: errors.New("down")}}
	h := NewHandler(zap.NewNop(), notifier, redis.NewIdempotencyService(client, zap.NewNop()), 0)
	headers := map[string]string{"Idempotency-Key": "abc"}

	first := postNotification(t, h.NotifyReturn, validBody, headers)
	require.Equal(t, http.StatusInternalServerError, first.Code)

	notifier.err = nil
	second := postNotification(t, h.NotifyReturn, validBody, headers)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Empty(t, second.Header().Get("X-Idempotency-Replayed"))
	assert.Len(t, notifier.calls, 2)
}

func TestNotifyReturn_InFlightDuplicate(t *testing.T) {
	client, _ := newRedisClient(t)
	idem := redis.NewIdempotencyService(client, zap.NewNop())
	notifier := &MockNotifier{}
	h := NewHandler(zap.NewNop(), notifier, idem, 0)

	reserved, err := idem.Reserve(context.Background(), 7, "abc")
	require.NoError(t, err)
	require.True(t, reserved)

	rec := postNotification(t, h.NotifyReturn, validBody, map[string]string{"Idempotency-Key": "abc"})

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_request", decodeProblem(t, rec).Type)
	assert.Empty(t, notifier.calls)
}

func TestNotifyReturn_RedisDownProceeds(t *testing.T) {
	client, mr := newRedisClient(t)
	notifier := &MockNotifier{}
	h := NewHandler(zap.NewNop(), notifier, redis.NewIdempotencyService(client, zap.NewNop()), 0)
	mr.Close()

	rec := postNotification(t, h.NotifyReturn, validBody, map[string]string{"Idempotency-Key": "abc"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, notifier.calls, 1)
}

func TestNotifyReturn_KeyWithoutResellerIsIgnored(t *testing.T) {
	client, mr := newRedisClient(t)
	notifier := &MockNotifier{err: &complaint.Error{Kind: complaint.KindInput, Message: "Empty resellerId"}}
	h := NewHandler(zap.NewNop(), notifier, redis.NewIdempotencyService(client, zap.NewNop()), 0)

	rec := postNotification(t, h.NotifyReturn, `{"data":{"notificationType":1}}`, map[string]string{"Idempotency-Key": "abc"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, mr.Keys())
}
