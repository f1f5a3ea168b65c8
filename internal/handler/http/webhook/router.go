package webhook

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func RegisterRoutes(r chi.Router, verifier Verifier, recorder EventRecorder, l *zap.Logger) {
	handler := NewWebhookHandler(verifier, recorder, l.With(zap.String("component", "WebhookHandler")))

	r.Post("/webhook/paypal", handler.HandleEvent)
}
