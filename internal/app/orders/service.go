package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/domain"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/ledger"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/paypal"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/repository/order_repo"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/repository/outbox_repo"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/repository/ticket_repo"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/util"
)

// PaymentGateway is the slice of the PayPal client the order lifecycle needs.
type PaymentGateway interface {
	CreateRemoteOrder(ctx context.Context, correlationID string, amount decimal.Decimal, currency, description, returnURL, cancelURL string) (*paypal.RemoteOrder, error)
	GetRemoteOrder(ctx context.Context, remoteOrderID string) (*paypal.RemoteOrder, error)
	CaptureRemoteOrder(ctx context.Context, remoteOrderID string) (*paypal.CaptureResult, error)
}

type CheckoutURLs struct {
	ReturnURL string
	CancelURL string
}

type OrderService interface {
	CreateOrder(ctx context.Context, buyerID, itemID string, metadata domain.PurchaseMetadata) (*CreateOrderResponse, error)
	InitiatePayment(ctx context.Context, orderID, buyerID string) (*InitiatePaymentResponse, error)
	CaptureAndConfirm(ctx context.Context, orderID, providerOrderID string) (*OrderResponse, error)
	PayWithBalance(ctx context.Context, orderID, buyerID string) (*OrderResponse, error)
	CancelOrder(ctx context.Context, orderID, requesterID string) (*OrderResponse, error)
	GetOrder(ctx context.Context, orderID, requesterID string) (*OrderResponse, error)
	GetHistory(ctx context.Context, buyerID string, limit, offset int) ([]*OrderResponse, error)
	RecordProviderEvent(ctx context.Context, eventID, eventType string, resource json.RawMessage) error
}

type orderService struct {
	orderRepo    order_repo.OrderRepository
	ticketRepo   ticket_repo.TicketRepository
	outboxRepo   outbox_repo.OutboxRepository
	gateway      PaymentGateway
	engine       ledger.Engine
	checkoutURLs CheckoutURLs
	eventsTopic  string
	logger       *zap.Logger
}

func NewOrderService(
	orderRepo order_repo.OrderRepository,
	ticketRepo ticket_repo.TicketRepository,
	outboxRepo outbox_repo.OutboxRepository,
	gateway PaymentGateway,
	engine ledger.Engine,
	checkoutURLs CheckoutURLs,
	eventsTopic string,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		ticketRepo:   ticketRepo,
		outboxRepo:   outboxRepo,
		gateway:      gateway,
		engine:       engine,
		checkoutURLs: checkoutURLs,
		eventsTopic:  eventsTopic,
		logger:       logger,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, buyerID, itemID string, metadata domain.PurchaseMetadata) (*CreateOrderResponse, error) {
	if buyerID == "" || itemID == "" {
		return nil, fmt.Errorf("buyer and item are required: %w", domain.ErrValidation)
	}

	quote, err := s.engine.QuoteItem(ctx, itemID)
	if err != nil {
		s.logger.Error("Ledger quote failed", zap.String("item_id", itemID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	if !quote.Success {
		if quote.Error == "item_not_found" {
			return nil, fmt.Errorf("item %s: %w", itemID, domain.ErrItemNotFound)
		}
		s.logger.Warn("Ledger rejected order creation", zap.String("item_id", itemID), zap.String("reason", quote.Error))
		return nil, &domain.LedgerError{Message: quote.Error}
	}

	amount, err := decimal.NewFromString(quote.PayloadString("price"))
	if err != nil {
		s.logger.Error("Ledger quote has a malformed price",
			zap.String("item_id", itemID),
			zap.String("price", quote.PayloadString("price")),
			zap.Error(err))
		return nil, errors.New("internal server error")
	}
	currency := quote.PayloadString("currency")

	order, err := domain.NewOrder(util.GenerateUUID(), buyerID, itemID, amount, currency, metadata)
	if err != nil {
		return nil, err
	}

	msg, err := newOrderEventMessage(s.eventsTopic, EventOrderCreated, order, order.CreatedAt)
	if err != nil {
		s.logger.Error("Failed to build order created event", zap.String("order_id", order.ID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	if err := s.orderRepo.CreateOrderAndOutboxMessage(ctx, order, msg); err != nil {
		s.logger.Error("Failed to persist order", zap.String("order_id", order.ID), zap.Error(err))
		return nil, errors.New("internal server error")
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("buyer_id", buyerID),
		zap.String("item_id", itemID),
		zap.String("amount", order.Amount.StringFixed(2)))

	return &CreateOrderResponse{Order: mapOrderToResponse(order), Item: quote.Payload["item"]}, nil
}

func (s *orderService) InitiatePayment(ctx context.Context, orderID, buyerID string) (*InitiatePaymentResponse, error) {
	order, err := s.getOwnedOrder(ctx, orderID, buyerID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPending {
		return nil, fmt.Errorf("payment cannot be initiated for a %s order: %w", order.Status, domain.ErrInvalidState)
	}

	// A provider order is registered at most once. Re-initiation reuses the
	// existing remote order and just recovers its approval link.
	if order.ProviderOrderID != "" {
		remote, err := s.gateway.GetRemoteOrder(ctx, order.ProviderOrderID)
		if err != nil {
			s.logger.Error("Failed to re-read provider order",
				zap.String("order_id", order.ID),
				zap.String("provider_order_id", order.ProviderOrderID),
				zap.Error(err))
			return nil, err
		}
		return &InitiatePaymentResponse{ProviderOrderID: remote.ID, ApprovalURL: remote.ApprovalURL}, nil
	}

	description := fmt.Sprintf("Compra %s (%s)", order.ItemID, order.Metadata.Kind)
	remote, err := s.gateway.CreateRemoteOrder(ctx, order.ID, order.Amount, order.Currency, description,
		s.checkoutURLs.ReturnURL, s.checkoutURLs.CancelURL)
	if err != nil {
		s.logger.Error("Failed to create provider order", zap.String("order_id", order.ID), zap.Error(err))
		return nil, err
	}

	if err := s.orderRepo.RegisterProviderOrder(ctx, order.ID, remote.ID); err != nil {
		s.logger.Error("Failed to register provider order",
			zap.String("order_id", order.ID),
			zap.String("provider_order_id", remote.ID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Payment initiated",
		zap.String("order_id", order.ID),
		zap.String("provider_order_id", remote.ID))
	return &InitiatePaymentResponse{ProviderOrderID: remote.ID, ApprovalURL: remote.ApprovalURL}, nil
}

// CaptureAndConfirm drives the settlement: capture at the provider, confirm at
// the ledger engine, then mark the order completed. A replay for an already
// completed order is a no-op returning the completed state; the engine
// deduplicates confirms by (orderID, captureID), so a retry after a partial
// failure cannot credit twice.
func (s *orderService) CaptureAndConfirm(ctx context.Context, orderID, providerOrderID string) (*OrderResponse, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrOrderNotFound)
		}
		s.logger.Error("Failed to load order for capture", zap.String("order_id", orderID), zap.Error(err))
		return nil, errors.New("internal server error")
	}

	if order.Status == domain.OrderStatusCompleted {
		s.logger.Info("Capture replay on a completed order, returning current state",
			zap.String("order_id", order.ID),
			zap.String("provider_capture_id", order.ProviderCaptureID))
		return mapOrderToResponse(order), nil
	}
	if order.Status != domain.OrderStatusPending {
		return nil, fmt.Errorf("cannot capture a %s order: %w", order.Status, domain.ErrInvalidState)
	}
	if order.ProviderOrderID == "" {
		return nil, fmt.Errorf("payment was never initiated for order %s: %w", orderID, domain.ErrInvalidState)
	}
	if providerOrderID != order.ProviderOrderID {
		return nil, fmt.Errorf("provider order id does not match order %s: %w", orderID, domain.ErrValidation)
	}

	capture, err := s.gateway.CaptureRemoteOrder(ctx, order.ProviderOrderID)
	if err != nil {
		s.logger.Error("Provider capture failed, order stays pending",
			zap.String("order_id", order.ID),
			zap.String("provider_order_id", order.ProviderOrderID),
			zap.Error(err))
		return nil, err
	}

	if err := order.RecordCapture(capture.CaptureID, capture.PayerID, capture.PayerEmail); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateOrder(ctx, order); err != nil {
		s.logger.Error("Failed to persist capture details", zap.String("order_id", order.ID), zap.Error(err))
		return nil, errors.New("internal server error")
	}

	if capture.Status == "DECLINED" {
		if err := order.MarkAsFailed(); err != nil {
			return nil, err
		}
		s.persistStatusChange(ctx, order, EventOrderFailed)
		s.logger.Warn("Provider declined the capture",
			zap.String("order_id", order.ID),
			zap.String("provider_capture_id", capture.CaptureID))
		return nil, fmt.Errorf("capture was declined by the provider: %w", domain.ErrExternalService)
	}

	confirm, err := s.engine.ConfirmPurchase(ctx, order.ID, capture.CaptureID)
	if err != nil {
		s.logger.Error("Ledger confirm failed after capture, order stays pending for retry",
			zap.String("order_id", order.ID),
			zap.String("provider_capture_id", capture.CaptureID),
			zap.Error(err))
		return nil, errors.New("internal server error")
	}
	if !confirm.Success {
		s.logger.Warn("Ledger rejected purchase confirmation",
			zap.String("order_id", order.ID),
			zap.String("reason", confirm.Error))
		return nil, &domain.LedgerError{Message: confirm.Error}
	}

	if confirm.PayloadBool("requires_review") {
		s.fileReviewTicket(ctx, order, confirm)
	}

	now := time.Now()
	if err := order.MarkAsCompleted(now); err != nil {
		return nil, err
	}
	s.persistStatusChange(ctx, order, EventOrderCompleted)

	s.logger.Info("Order completed",
		zap.String("order_id", order.ID),
		zap.String("provider_capture_id", capture.CaptureID),
		zap.String("payer_id", capture.PayerID))
	return mapOrderToResponse(order), nil
}

func (s *orderService) PayWithBalance(ctx context.Context, orderID, buyerID string) (*OrderResponse, error) {
	order, err := s.getOwnedOrder(ctx, orderID, buyerID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.OrderStatusCompleted {
		return mapOrderToResponse(order), nil
	}
	if order.Status != domain.OrderStatusPending {
		return nil, fmt.Errorf("cannot pay for a %s order: %w", order.Status, domain.ErrInvalidState)
	}

	// The balance purchase debits credit and applies the effect in one
	// atomic ledger call; there is no external provider leg.
	res, err := s.engine.PurchaseWithBalance(ctx, order.ID)
	if err != nil {
		s.logger.Error("Ledger balance purchase failed", zap.String("order_id", order.ID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	if !res.Success {
		s.logger.Warn("Ledger rejected balance purchase",
			zap.String("order_id", order.ID),
			zap.String("reason", res.Error))
		return nil, &domain.LedgerError{Message: res.Error}
	}

	if err := order.RecordCapture("saldo-"+order.ID, "", ""); err != nil {
		return nil, err
	}
	if res.PayloadBool("requires_review") {
		s.fileReviewTicket(ctx, order, res)
	}

	now := time.Now()
	if err := order.MarkAsCompleted(now); err != nil {
		return nil, err
	}
	s.persistStatusChange(ctx, order, EventOrderCompleted)

	s.logger.Info("Order paid with balance", zap.String("order_id", order.ID))
	return mapOrderToResponse(order), nil
}

// CancelOrder flips the order locally; the remote provider order, if any, is
// left to expire on its own.
func (s *orderService) CancelOrder(ctx context.Context, orderID, requesterID string) (*OrderResponse, error) {
	order, err := s.getOwnedOrder(ctx, orderID, requesterID)
	if err != nil {
		return nil, err
	}
	if err := order.MarkAsCancelled(); err != nil {
		return nil, err
	}
	s.persistStatusChange(ctx, order, EventOrderCancelled)

	s.logger.Info("Order cancelled", zap.String("order_id", order.ID), zap.String("buyer_id", requesterID))
	return mapOrderToResponse(order), nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID, requesterID string) (*OrderResponse, error) {
	order, err := s.getOwnedOrder(ctx, orderID, requesterID)
	if err != nil {
		return nil, err
	}
	return mapOrderToResponse(order), nil
}

func (s *orderService) GetHistory(ctx context.Context, buyerID string, limit, offset int) ([]*OrderResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	orders, err := s.orderRepo.GetOrdersByBuyerID(ctx, buyerID, limit, offset)
	if err != nil {
		s.logger.Error("Failed to get order history", zap.String("buyer_id", buyerID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return mapOrdersToResponse(orders), nil
}

// RecordProviderEvent stores a verified webhook notification as a telemetry
// event. The webhook path never confirms purchases; the synchronous capture
// endpoint is the single reconciliation path.
func (s *orderService) RecordProviderEvent(ctx context.Context, eventID, eventType string, resource json.RawMessage) error {
	payload, err := json.Marshal(providerEvent{
		Event:      "provider_notification",
		Source:     "paypal_webhook",
		EventID:    eventID,
		EventType:  eventType,
		Resource:   resource,
		ReceivedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode provider event: %w", err)
	}
	msg := &outbox_repo.OutboxMessage{
		ID:        util.GenerateUUID(),
		Topic:     s.eventsTopic,
		Payload:   payload,
		Status:    outbox_repo.StatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.outboxRepo.CreateMessage(ctx, msg); err != nil {
		s.logger.Error("Failed to record provider event",
			zap.String("event_id", eventID),
			zap.String("event_type", eventType),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *orderService) getOwnedOrder(ctx context.Context, orderID, requesterID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order id is required: %w", domain.ErrValidation)
	}
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrOrderNotFound)
		}
		s.logger.Error("Failed to load order", zap.String("order_id", orderID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	if !order.IsOwnedBy(requesterID) {
		s.logger.Warn("Order access denied",
			zap.String("order_id", orderID),
			zap.String("requester_id", requesterID))
		return nil, fmt.Errorf("order %s does not belong to requester: %w", orderID, domain.ErrForbidden)
	}
	return order, nil
}

// persistStatusChange writes the order update and its lifecycle event in one
// transaction. A failure here is logged but not surfaced: the business effect
// already happened and replaying the caller's request would be worse than a
// delayed event.
func (s *orderService) persistStatusChange(ctx context.Context, order *domain.Order, event string) {
	msg, err := newOrderEventMessage(s.eventsTopic, event, order, order.UpdatedAt)
	if err != nil {
		s.logger.Error("Failed to build order event", zap.String("order_id", order.ID), zap.Error(err))
		if err := s.orderRepo.UpdateOrder(ctx, order); err != nil {
			s.logger.Error("Failed to persist order status", zap.String("order_id", order.ID), zap.Error(err))
		}
		return
	}
	if err := s.orderRepo.UpdateOrderAndOutboxMessage(ctx, order, msg); err != nil {
		s.logger.Error("Failed to persist order status change", zap.String("order_id", order.ID), zap.Error(err))
	}
}

func (s *orderService) fileReviewTicket(ctx context.Context, order *domain.Order, res *ledger.Result) {
	ticketType := domain.TicketType(res.PayloadString("review_type"))
	if ticketType == "" {
		ticketType = domain.TicketTypeNicknameReclaim
	}
	requestedValue := order.Metadata.RequestedValue
	if requestedValue == "" {
		requestedValue = res.PayloadString("requested_value")
	}

	ticket, err := domain.NewSupportTicket(util.GenerateUUID(), order.ID, order.BuyerID, ticketType, requestedValue)
	if err != nil {
		s.logger.Error("Failed to build review ticket", zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	if err := s.ticketRepo.CreateTicket(ctx, ticket); err != nil {
		s.logger.Error("Failed to file review ticket", zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	s.logger.Info("Purchase escalated for manual review",
		zap.String("order_id", order.ID),
		zap.String("ticket_id", ticket.ID),
		zap.String("ticket_type", string(ticketType)))
}
