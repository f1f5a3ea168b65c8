package order_repo

import (
	"context"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/domain"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/repository/outbox_repo"
)

type OrderRepository interface {
	// CreateOrderAndOutboxMessage persists a new order and its lifecycle
	// event in a single transaction.
	CreateOrderAndOutboxMessage(ctx context.Context, order *domain.Order, msg *outbox_repo.OutboxMessage) error
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	GetOrdersByBuyerID(ctx context.Context, buyerID string, limit, offset int) ([]*domain.Order, error)
	// RegisterProviderOrder sets provider_order_id once; re-registering the
	// same id is a no-op, a different id is rejected.
	RegisterProviderOrder(ctx context.Context, orderID, providerOrderID string) error
	UpdateOrder(ctx context.Context, order *domain.Order) error
	// UpdateOrderAndOutboxMessage persists a status change together with its
	// lifecycle event in a single transaction.
	UpdateOrderAndOutboxMessage(ctx context.Context, order *domain.Order, msg *outbox_repo.OutboxMessage) error
}
