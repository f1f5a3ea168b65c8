package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/domain"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/repository/order_repo"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/repository/outbox_repo"
)

type pgOrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOrderRepository(db *sql.DB, l *zap.Logger) order_repo.OrderRepository {
	return &pgOrderRepository{db: db, logger: l}
}

const orderColumns = `id, buyer_id, item_id, provider_order_id, provider_capture_id, payer_id, payer_email, amount, currency, status, metadata, created_at, completed_at, updated_at`

func (r *pgOrderRepository) CreateOrderAndOutboxMessage(ctx context.Context, order *domain.Order, msg *outbox_repo.OutboxMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction for order creation", zap.String("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Panic during order creation transaction, rolling back", zap.String("order_id", order.ID))
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			r.logger.Warn("Rolling back order creation transaction", zap.String("order_id", order.ID), zap.Error(err))
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
			if err != nil {
				r.logger.Error("Failed to commit order creation transaction", zap.String("order_id", order.ID), zap.Error(err))
			}
		}
	}()

	orderQuery := `INSERT INTO orders (id, buyer_id, item_id, amount, currency, status, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = tx.ExecContext(ctx, orderQuery,
		order.ID, order.BuyerID, order.ItemID, order.Amount, order.Currency, order.Status, order.Metadata, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("tx failed to create order: %w", err)
	}

	outboxQuery := `INSERT INTO outbox_messages (id, topic, payload, status, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = tx.ExecContext(ctx, outboxQuery, msg.ID, msg.Topic, msg.Payload, msg.Status, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("tx failed to create outbox message: %w", err)
	}

	return err
}

func (r *pgOrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to get order by ID", zap.String("order_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return order, nil
}

func (r *pgOrderRepository) GetOrdersByBuyerID(ctx context.Context, buyerID string, limit, offset int) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, buyerID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to query orders for buyer", zap.String("buyer_id", buyerID), zap.Error(err))
		return nil, fmt.Errorf("failed to get orders for buyer %s: %w", buyerID, err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			r.logger.Error("Failed to scan order row", zap.String("buyer_id", buyerID), zap.Error(err))
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return orders, nil
}

func (r *pgOrderRepository) RegisterProviderOrder(ctx context.Context, orderID, providerOrderID string) error {
	query := `UPDATE orders SET provider_order_id = $2, updated_at = NOW()
		WHERE id = $1 AND (provider_order_id IS NULL OR provider_order_id = $2)`
	res, err := r.db.ExecContext(ctx, query, orderID, providerOrderID)
	if err != nil {
		r.logger.Error("Failed to register provider order", zap.String("order_id", orderID), zap.Error(err))
		return fmt.Errorf("failed to register provider order for %s: %w", orderID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("Provider order registration rejected, id already set",
			zap.String("order_id", orderID),
			zap.String("provider_order_id", providerOrderID))
		return domain.ErrInvalidState
	}
	return nil
}

func (r *pgOrderRepository) UpdateOrder(ctx context.Context, order *domain.Order) error {
	res, err := r.db.ExecContext(ctx, updateOrderQuery,
		order.ID, order.ProviderCaptureID, order.PayerID, order.PayerEmail, order.Status, order.CompletedAt, order.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update order", zap.String("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("failed to update order %s: %w", order.ID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *pgOrderRepository) UpdateOrderAndOutboxMessage(ctx context.Context, order *domain.Order, msg *outbox_repo.OutboxMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction for order update", zap.String("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Panic during order update transaction, rolling back", zap.String("order_id", order.ID))
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			r.logger.Warn("Rolling back order update transaction", zap.String("order_id", order.ID), zap.Error(err))
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
			if err != nil {
				r.logger.Error("Failed to commit order update transaction", zap.String("order_id", order.ID), zap.Error(err))
			}
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx, updateOrderQuery,
		order.ID, order.ProviderCaptureID, order.PayerID, order.PayerEmail, order.Status, order.CompletedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("tx failed to update order: %w", err)
	}
	var rowsAffected int64
	rowsAffected, err = res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rowsAffected == 0 {
		err = sql.ErrNoRows
		return err
	}

	outboxQuery := `INSERT INTO outbox_messages (id, topic, payload, status, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = tx.ExecContext(ctx, outboxQuery, msg.ID, msg.Topic, msg.Payload, msg.Status, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("tx failed to create outbox message: %w", err)
	}

	return err
}

const updateOrderQuery = `UPDATE orders
	SET provider_capture_id = NULLIF($2, ''), payer_id = NULLIF($3, ''), payer_email = NULLIF($4, ''),
	    status = $5, completed_at = $6, updated_at = $7
	WHERE id = $1`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *pgOrderRepository) scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var providerOrderID, providerCaptureID, payerID, payerEmail sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&order.ID, &order.BuyerID, &order.ItemID,
		&providerOrderID, &providerCaptureID, &payerID, &payerEmail,
		&order.Amount, &order.Currency, &order.Status, &order.Metadata,
		&order.CreatedAt, &completedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.ProviderOrderID = providerOrderID.String
	order.ProviderCaptureID = providerCaptureID.String
	order.PayerID = payerID.String
	order.PayerEmail = payerEmail.String
	if completedAt.Valid {
		t := completedAt.Time
		order.CompletedAt = &t
	}
	return order, nil
}
