package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubVerifier struct {
	webhookID string
	verified  bool
	calls     int
}

func (v *stubVerifier) VerifyWebhookSignature(ctx context.Context, headers http.Header, eventBody []byte) bool {
	v.calls++
	return v.verified
}

func (v *stubVerifier) WebhookID() string { return v.webhookID }

type stubRecorder struct {
	events []string
	err    error
}

func (r *stubRecorder) RecordProviderEvent(ctx context.Context, eventID, eventType string, resource json.RawMessage) error {
	r.events = append(r.events, eventID)
	return r.err
}

func postEvent(t *testing.T, handler *WebhookHandler, body string) webhookResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/paypal", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.HandleEvent(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, "webhook deliveries are always acknowledged")
	var res webhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestHandleEvent(t *testing.T) {
	eventBody := `{"id":"WH-EVENT-1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP-1"}}`

	t.Run("verified event is recorded", func(t *testing.T) {
		recorder := &stubRecorder{}
		handler := NewWebhookHandler(&stubVerifier{webhookID: "WH-1", verified: true}, recorder, zap.NewNop())

		res := postEvent(t, handler, eventBody)

		assert.True(t, res.Received)
		assert.True(t, res.Verified)
		assert.Nil(t, res.Configured)
		assert.Equal(t, []string{"WH-EVENT-1"}, recorder.events)
	})

	t.Run("failed verification has no side effects", func(t *testing.T) {
		recorder := &stubRecorder{}
		handler := NewWebhookHandler(&stubVerifier{webhookID: "WH-1", verified: false}, recorder, zap.NewNop())

		res := postEvent(t, handler, eventBody)

		assert.True(t, res.Received)
		assert.False(t, res.Verified)
		assert.Empty(t, recorder.events)
	})

	t.Run("missing webhook id skips verification entirely", func(t *testing.T) {
		verifier := &stubVerifier{webhookID: "", verified: true}
		recorder := &stubRecorder{}
		handler := NewWebhookHandler(verifier, recorder, zap.NewNop())

		res := postEvent(t, handler, eventBody)

		assert.True(t, res.Received)
		assert.False(t, res.Verified)
		require.NotNil(t, res.Configured)
		assert.False(t, *res.Configured)
		assert.Zero(t, verifier.calls)
		assert.Empty(t, recorder.events)
	})

	t.Run("recording failure still acknowledges the delivery", func(t *testing.T) {
		recorder := &stubRecorder{err: assert.AnError}
		handler := NewWebhookHandler(&stubVerifier{webhookID: "WH-1", verified: true}, recorder, zap.NewNop())

		res := postEvent(t, handler, eventBody)

		assert.True(t, res.Received)
		assert.True(t, res.Verified)
	})

	t.Run("unknown event types are still recorded", func(t *testing.T) {
		recorder := &stubRecorder{}
		handler := NewWebhookHandler(&stubVerifier{webhookID: "WH-1", verified: true}, recorder, zap.NewNop())

		res := postEvent(t, handler, `{"id":"WH-EVENT-2","event_type":"BILLING.SUBSCRIPTION.CREATED"}`)

		assert.True(t, res.Verified)
		assert.Equal(t, []string{"WH-EVENT-2"}, recorder.events)
	})
}
