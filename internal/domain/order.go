package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order tracks a single purchase from creation through settlement. Amount and
// Currency are fixed at creation; the provider correlation fields are filled
// in progressively as the external checkout advances.
type Order struct {
	ID                string
	BuyerID           string
	ItemID            string
	ProviderOrderID   string
	ProviderCaptureID string
	PayerID           string
	PayerEmail        string
	Amount            decimal.Decimal
	Currency          string
	Status            OrderStatus
	Metadata          PurchaseMetadata
	CreatedAt         time.Time
	CompletedAt       *time.Time
	UpdatedAt         time.Time
}

func NewOrder(id, buyerID, itemID string, amount decimal.Decimal, currency string, metadata PurchaseMetadata) (*Order, error) {
	if id == "" || buyerID == "" || itemID == "" {
		return nil, fmt.Errorf("order requires id, buyer and item: %w", ErrValidation)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("order amount must be positive: %w", ErrValidation)
	}
	if err := metadata.Validate(); err != nil {
		return nil, err
	}
	if currency == "" {
		currency = "USD"
	}
	now := time.Now()
	return &Order{
		ID:        id,
		BuyerID:   buyerID,
		ItemID:    itemID,
		Amount:    amount,
		Currency:  currency,
		Status:    OrderStatusPending,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// RegisterProviderOrder records the remote checkout order id. The id is set at
// most once; registering the same id again is a no-op.
func (o *Order) RegisterProviderOrder(providerOrderID string) error {
	if providerOrderID == "" {
		return fmt.Errorf("provider order id is empty: %w", ErrValidation)
	}
	if o.Status != OrderStatusPending {
		return fmt.Errorf("cannot register a provider order on a %s order: %w", o.Status, ErrInvalidState)
	}
	if o.ProviderOrderID != "" && o.ProviderOrderID != providerOrderID {
		return fmt.Errorf("provider order id already set: %w", ErrInvalidState)
	}
	o.ProviderOrderID = providerOrderID
	o.UpdatedAt = time.Now()
	return nil
}

// RecordCapture stores the capture id and payer identity while the order is
// still pending; completion happens only after the ledger confirms.
func (o *Order) RecordCapture(captureID, payerID, payerEmail string) error {
	if o.Status != OrderStatusPending {
		return fmt.Errorf("cannot record a capture on a %s order: %w", o.Status, ErrInvalidState)
	}
	o.ProviderCaptureID = captureID
	o.PayerID = payerID
	o.PayerEmail = payerEmail
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) MarkAsCompleted(at time.Time) error {
	if o.Status == OrderStatusCompleted {
		return nil
	}
	if o.Status != OrderStatusPending {
		return fmt.Errorf("cannot complete a %s order: %w", o.Status, ErrInvalidState)
	}
	o.Status = OrderStatusCompleted
	o.CompletedAt = &at
	o.UpdatedAt = at
	return nil
}

func (o *Order) MarkAsCancelled() error {
	if o.Status != OrderStatusPending {
		return fmt.Errorf("cannot cancel a %s order: %w", o.Status, ErrInvalidState)
	}
	o.Status = OrderStatusCancelled
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) MarkAsFailed() error {
	if o.Status != OrderStatusPending {
		return fmt.Errorf("cannot fail a %s order: %w", o.Status, ErrInvalidState)
	}
	o.Status = OrderStatusFailed
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) IsOwnedBy(userID string) bool {
	return o.BuyerID == userID
}
