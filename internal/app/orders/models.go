package orders

import (
	"encoding/json"
	"time"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/domain"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/repository/outbox_repo"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/util"
)

type OrderResponse struct {
	ID                string                  `json:"id"`
	BuyerID           string                  `json:"buyer_id"`
	ItemID            string                  `json:"item_id"`
	ProviderOrderID   string                  `json:"provider_order_id,omitempty"`
	ProviderCaptureID string                  `json:"provider_capture_id,omitempty"`
	PayerEmail        string                  `json:"payer_email,omitempty"`
	Amount            string                  `json:"amount"`
	Currency          string                  `json:"currency"`
	Status            string                  `json:"status"`
	Metadata          domain.PurchaseMetadata `json:"metadata"`
	CreatedAt         time.Time               `json:"created_at"`
	CompletedAt       *time.Time              `json:"completed_at,omitempty"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

type CreateOrderResponse struct {
	Order *OrderResponse  `json:"order"`
	Item  json.RawMessage `json:"item,omitempty"`
}

type InitiatePaymentResponse struct {
	ProviderOrderID string `json:"provider_order_id"`
	ApprovalURL     string `json:"approval_url"`
}

func mapOrderToResponse(order *domain.Order) *OrderResponse {
	return &OrderResponse{
		ID:                order.ID,
		BuyerID:           order.BuyerID,
		ItemID:            order.ItemID,
		ProviderOrderID:   order.ProviderOrderID,
		ProviderCaptureID: order.ProviderCaptureID,
		PayerEmail:        order.PayerEmail,
		Amount:            order.Amount.StringFixed(2),
		Currency:          order.Currency,
		Status:            string(order.Status),
		Metadata:          order.Metadata,
		CreatedAt:         order.CreatedAt,
		CompletedAt:       order.CompletedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

func mapOrdersToResponse(orders []*domain.Order) []*OrderResponse {
	responses := make([]*OrderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, mapOrderToResponse(order))
	}
	return responses
}

const (
	EventOrderCreated   = "order_created"
	EventOrderCompleted = "order_completed"
	EventOrderCancelled = "order_cancelled"
	EventOrderFailed    = "order_failed"
)

type orderEvent struct {
	Event     string    `json:"event"`
	OrderID   string    `json:"order_id"`
	BuyerID   string    `json:"buyer_id"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

type providerEvent struct {
	Event      string          `json:"event"`
	Source     string          `json:"source"`
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	Resource   json.RawMessage `json:"resource,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
}

func newOrderEventMessage(topic, event string, order *domain.Order, at time.Time) (*outbox_repo.OutboxMessage, error) {
	payload, err := json.Marshal(orderEvent{
		Event:     event,
		OrderID:   order.ID,
		BuyerID:   order.BuyerID,
		Amount:    order.Amount.StringFixed(2),
		Currency:  order.Currency,
		Status:    string(order.Status),
		Kind:      string(order.Metadata.Kind),
		Timestamp: at,
	})
	if err != nil {
		return nil, err
	}
	return &outbox_repo.OutboxMessage{
		ID:        util.GenerateUUID(),
		Topic:     topic,
		Payload:   payload,
		Status:    outbox_repo.StatusPending,
		CreatedAt: at,
	}, nil
}
