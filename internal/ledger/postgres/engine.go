package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/ledger"
)

// pgEngine invokes the ledger engine's stored functions. Each function takes
// positional arguments and returns a single jsonb envelope; all business
// logic, including confirm idempotency, lives on the database side.
type pgEngine struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewEngine(db *sql.DB, l *zap.Logger) ledger.Engine {
	return &pgEngine{db: db, logger: l}
}

func (e *pgEngine) QuoteItem(ctx context.Context, itemID string) (*ledger.Result, error) {
	return e.call(ctx, "SELECT sp_cotizar_articulo($1)", itemID)
}

func (e *pgEngine) ConfirmPurchase(ctx context.Context, orderID, captureID string) (*ledger.Result, error) {
	return e.call(ctx, "SELECT sp_confirmar_compra($1, $2)", orderID, captureID)
}

func (e *pgEngine) PurchaseWithBalance(ctx context.Context, orderID string) (*ledger.Result, error) {
	return e.call(ctx, "SELECT sp_comprar_con_saldo($1)", orderID)
}

func (e *pgEngine) CheckNickname(ctx context.Context, nickname string) (*ledger.Result, error) {
	return e.call(ctx, "SELECT sp_verificar_nickname($1)", nickname)
}

func (e *pgEngine) ListCatalog(ctx context.Context, userID string) (*ledger.Result, error) {
	if userID == "" {
		return e.call(ctx, "SELECT sp_catalogo(NULL)")
	}
	return e.call(ctx, "SELECT sp_catalogo($1)", userID)
}

func (e *pgEngine) ResolveTicket(ctx context.Context, resolverID, ticketID string, approve bool, notes string) (*ledger.Result, error) {
	return e.call(ctx, "SELECT sp_resolver_solicitud($1, $2, $3, $4)", resolverID, ticketID, approve, notes)
}

func (e *pgEngine) call(ctx context.Context, query string, args ...interface{}) (*ledger.Result, error) {
	var raw []byte
	if err := e.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		e.logger.Error("Ledger engine call failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("ledger engine call failed: %w", err)
	}

	res, err := ledger.ParseEnvelope(raw)
	if err != nil {
		e.logger.Error("Ledger engine returned a malformed envelope", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	return res, nil
}
