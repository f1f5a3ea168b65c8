package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMetadata() PurchaseMetadata {
	return PurchaseMetadata{Kind: PurchaseKindCreditPackage, Credits: 500}
}

func TestNewOrder(t *testing.T) {
	t.Run("creates a pending order with USD default", func(t *testing.T) {
		order, err := NewOrder("order-1", "buyer-1", "item-1", decimal.NewFromFloat(9.99), "", validMetadata())
		require.NoError(t, err)

		assert.Equal(t, OrderStatusPending, order.Status)
		assert.Equal(t, "USD", order.Currency)
		assert.Nil(t, order.CompletedAt)
		assert.Empty(t, order.ProviderOrderID)
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		_, err := NewOrder("order-1", "buyer-1", "item-1", decimal.Zero, "USD", validMetadata())
		assert.ErrorIs(t, err, ErrValidation)

		_, err = NewOrder("order-1", "buyer-1", "item-1", decimal.NewFromInt(-5), "USD", validMetadata())
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects missing identifiers", func(t *testing.T) {
		_, err := NewOrder("", "buyer-1", "item-1", decimal.NewFromInt(5), "USD", validMetadata())
		assert.ErrorIs(t, err, ErrValidation)

		_, err = NewOrder("order-1", "", "item-1", decimal.NewFromInt(5), "USD", validMetadata())
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects invalid metadata", func(t *testing.T) {
		_, err := NewOrder("order-1", "buyer-1", "item-1", decimal.NewFromInt(5), "USD",
			PurchaseMetadata{Kind: PurchaseKindCreditPackage})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestOrderRegisterProviderOrder(t *testing.T) {
	order, err := NewOrder("order-1", "buyer-1", "item-1", decimal.NewFromInt(10), "USD", validMetadata())
	require.NoError(t, err)

	require.NoError(t, order.RegisterProviderOrder("PP-1"))
	assert.Equal(t, "PP-1", order.ProviderOrderID)

	t.Run("same id is a no-op", func(t *testing.T) {
		assert.NoError(t, order.RegisterProviderOrder("PP-1"))
		assert.Equal(t, "PP-1", order.ProviderOrderID)
	})

	t.Run("different id is rejected", func(t *testing.T) {
		err := order.RegisterProviderOrder("PP-2")
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Equal(t, "PP-1", order.ProviderOrderID)
	})

	t.Run("empty id is rejected", func(t *testing.T) {
		assert.ErrorIs(t, order.RegisterProviderOrder(""), ErrValidation)
	})
}

func TestOrderLifecycle(t *testing.T) {
	newPending := func(t *testing.T) *Order {
		order, err := NewOrder("order-1", "buyer-1", "item-1", decimal.NewFromInt(10), "USD", validMetadata())
		require.NoError(t, err)
		return order
	}

	t.Run("complete sets status and completion time", func(t *testing.T) {
		order := newPending(t)
		at := time.Now()

		require.NoError(t, order.MarkAsCompleted(at))
		assert.Equal(t, OrderStatusCompleted, order.Status)
		require.NotNil(t, order.CompletedAt)
		assert.Equal(t, at, *order.CompletedAt)
	})

	t.Run("completing twice is a no-op", func(t *testing.T) {
		order := newPending(t)
		first := time.Now()
		require.NoError(t, order.MarkAsCompleted(first))

		assert.NoError(t, order.MarkAsCompleted(first.Add(time.Hour)))
		assert.Equal(t, first, *order.CompletedAt)
	})

	t.Run("only pending orders can be cancelled", func(t *testing.T) {
		order := newPending(t)
		require.NoError(t, order.MarkAsCancelled())
		assert.Equal(t, OrderStatusCancelled, order.Status)
		assert.Nil(t, order.CompletedAt)

		assert.ErrorIs(t, order.MarkAsCancelled(), ErrInvalidState)
		assert.ErrorIs(t, order.MarkAsCompleted(time.Now()), ErrInvalidState)
		assert.ErrorIs(t, order.MarkAsFailed(), ErrInvalidState)
	})

	t.Run("capture is only recorded while pending", func(t *testing.T) {
		order := newPending(t)
		require.NoError(t, order.RecordCapture("CAP-1", "payer-1", "payer@example.com"))
		assert.Equal(t, "CAP-1", order.ProviderCaptureID)
		assert.Equal(t, "payer@example.com", order.PayerEmail)

		require.NoError(t, order.MarkAsFailed())
		err := order.RecordCapture("CAP-2", "payer-1", "payer@example.com")
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Equal(t, "CAP-1", order.ProviderCaptureID)
	})

	t.Run("cancelled and failed orders keep no completion time", func(t *testing.T) {
		order := newPending(t)
		require.NoError(t, order.MarkAsFailed())
		assert.Nil(t, order.CompletedAt)
	})
}

func TestOrderIsOwnedBy(t *testing.T) {
	order, err := NewOrder("order-1", "buyer-1", "item-1", decimal.NewFromInt(10), "USD", validMetadata())
	require.NoError(t, err)

	assert.True(t, order.IsOwnedBy("buyer-1"))
	assert.False(t, order.IsOwnedBy("buyer-2"))
	assert.False(t, order.IsOwnedBy(""))
}

func TestPurchaseMetadataValidate(t *testing.T) {
	tests := []struct {
		name     string
		metadata PurchaseMetadata
		wantErr  bool
	}{
		{"credit package", PurchaseMetadata{Kind: PurchaseKindCreditPackage, Credits: 100}, false},
		{"credit package without credits", PurchaseMetadata{Kind: PurchaseKindCreditPackage}, true},
		{"membership", PurchaseMetadata{Kind: PurchaseKindMembership, PlanCode: "gold"}, false},
		{"membership without plan", PurchaseMetadata{Kind: PurchaseKindMembership}, true},
		{"service request", PurchaseMetadata{Kind: PurchaseKindServiceRequest, RequestedValue: "ProGamer"}, false},
		{"service request without value", PurchaseMetadata{Kind: PurchaseKindServiceRequest}, true},
		{"missing kind", PurchaseMetadata{}, true},
		{"unknown kind passes through", PurchaseMetadata{Kind: "tournament_pass"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.metadata.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSupportTicketResolve(t *testing.T) {
	t.Run("approval", func(t *testing.T) {
		ticket, err := NewSupportTicket("ticket-1", "order-1", "user-1", TicketTypeNicknameReclaim, "ProGamer")
		require.NoError(t, err)
		assert.Equal(t, TicketStatusPending, ticket.Status)

		at := time.Now()
		require.NoError(t, ticket.Resolve("admin-1", true, "verified ownership", at))
		assert.Equal(t, TicketStatusApproved, ticket.Status)
		assert.Equal(t, "admin-1", ticket.ResolverID)
		require.NotNil(t, ticket.ResolvedAt)
		assert.Equal(t, at, *ticket.ResolvedAt)
	})

	t.Run("rejection", func(t *testing.T) {
		ticket, err := NewSupportTicket("ticket-1", "order-1", "user-1", TicketTypeNicknameReclaim, "ProGamer")
		require.NoError(t, err)

		require.NoError(t, ticket.Resolve("admin-1", false, "could not verify", time.Now()))
		assert.Equal(t, TicketStatusRejected, ticket.Status)
	})

	t.Run("resolved tickets stay resolved", func(t *testing.T) {
		ticket, err := NewSupportTicket("ticket-1", "order-1", "user-1", TicketTypeNicknameReclaim, "ProGamer")
		require.NoError(t, err)
		require.NoError(t, ticket.Resolve("admin-1", true, "", time.Now()))

		err = ticket.Resolve("admin-2", false, "", time.Now())
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Equal(t, TicketStatusApproved, ticket.Status)
		assert.Equal(t, "admin-1", ticket.ResolverID)
	})
}
