package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const (
	EventOrderApproved   = "CHECKOUT.ORDER.APPROVED"
	EventCaptureComplete = "PAYMENT.CAPTURE.COMPLETED"
	EventCaptureDenied   = "PAYMENT.CAPTURE.DENIED"
)

// Verifier is the signature-verification slice of the PayPal client.
type Verifier interface {
	VerifyWebhookSignature(ctx context.Context, headers http.Header, eventBody []byte) bool
	WebhookID() string
}

// EventRecorder stores verified notifications for telemetry.
type EventRecorder interface {
	RecordProviderEvent(ctx context.Context, eventID, eventType string, resource json.RawMessage) error
}

// WebhookHandler receives asynchronous provider notifications. The endpoint is
// public; trust comes entirely from signature verification. It always
// acknowledges receipt: an unverifiable delivery is answered verified:false
// with no processing, which neither leaks why verification failed nor invites
// sender retry storms.
type WebhookHandler struct {
	verifier Verifier
	recorder EventRecorder
	logger   *zap.Logger
}

func NewWebhookHandler(verifier Verifier, recorder EventRecorder, l *zap.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, recorder: recorder, logger: l}
}

type webhookEvent struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Resource  json.RawMessage `json:"resource"`
}

type webhookResponse struct {
	Received   bool  `json:"received"`
	Verified   bool  `json:"verified"`
	Configured *bool `json:"configured,omitempty"`
}

func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Warn("Failed to read webhook body", zap.Error(err))
		writeJSON(w, webhookResponse{Received: true, Verified: false})
		return
	}

	if h.verifier.WebhookID() == "" {
		// Degraded mode: without a configured webhook id nothing can be
		// verified, so the delivery is acknowledged and dropped.
		h.logger.Warn("Webhook received but no webhook id is configured, skipping verification")
		configured := false
		writeJSON(w, webhookResponse{Received: true, Verified: false, Configured: &configured})
		return
	}

	if !h.verifier.VerifyWebhookSignature(r.Context(), r.Header, body) {
		h.logger.Warn("Webhook signature verification failed",
			zap.String("transmission_id", r.Header.Get("Paypal-Transmission-Id")))
		writeJSON(w, webhookResponse{Received: true, Verified: false})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Warn("Verified webhook body could not be decoded", zap.Error(err))
		writeJSON(w, webhookResponse{Received: true, Verified: true})
		return
	}

	switch event.EventType {
	case EventOrderApproved:
		h.logger.Info("Provider reports order approved", zap.String("event_id", event.ID))
	case EventCaptureComplete:
		h.logger.Info("Provider reports capture completed", zap.String("event_id", event.ID))
	case EventCaptureDenied:
		h.logger.Warn("Provider reports capture denied", zap.String("event_id", event.ID))
	default:
		h.logger.Debug("Unhandled webhook event type",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.EventType))
	}

	if err := h.recorder.RecordProviderEvent(r.Context(), event.ID, event.EventType, event.Resource); err != nil {
		// Telemetry only; the delivery is still acknowledged.
		h.logger.Error("Failed to record webhook event", zap.String("event_id", event.ID), zap.Error(err))
	}

	writeJSON(w, webhookResponse{Received: true, Verified: true})
}

func writeJSON(w http.ResponseWriter, v webhookResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
