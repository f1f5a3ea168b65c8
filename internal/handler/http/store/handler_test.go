package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/app/orders"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/domain"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/handler/http/middleware"
)

type stubOrderService struct {
	createFn  func(ctx context.Context, buyerID, itemID string, metadata domain.PurchaseMetadata) (*orders.CreateOrderResponse, error)
	cancelFn  func(ctx context.Context, orderID, requesterID string) (*orders.OrderResponse, error)
	captureFn func(ctx context.Context, orderID, providerOrderID string) (*orders.OrderResponse, error)
}

func (s *stubOrderService) CreateOrder(ctx context.Context, buyerID, itemID string, metadata domain.PurchaseMetadata) (*orders.CreateOrderResponse, error) {
	if s.createFn == nil {
		return nil, fmt.Errorf("unexpected CreateOrder call")
	}
	return s.createFn(ctx, buyerID, itemID, metadata)
}

func (s *stubOrderService) InitiatePayment(ctx context.Context, orderID, buyerID string) (*orders.InitiatePaymentResponse, error) {
	return nil, fmt.Errorf("unexpected InitiatePayment call")
}

func (s *stubOrderService) CaptureAndConfirm(ctx context.Context, orderID, providerOrderID string) (*orders.OrderResponse, error) {
	if s.captureFn == nil {
		return nil, fmt.Errorf("unexpected CaptureAndConfirm call")
	}
	return s.captureFn(ctx, orderID, providerOrderID)
}

func (s *stubOrderService) PayWithBalance(ctx context.Context, orderID, buyerID string) (*orders.OrderResponse, error) {
	return nil, fmt.Errorf("unexpected PayWithBalance call")
}

func (s *stubOrderService) CancelOrder(ctx context.Context, orderID, requesterID string) (*orders.OrderResponse, error) {
	if s.cancelFn == nil {
		return nil, fmt.Errorf("unexpected CancelOrder call")
	}
	return s.cancelFn(ctx, orderID, requesterID)
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID, requesterID string) (*orders.OrderResponse, error) {
	return nil, fmt.Errorf("unexpected GetOrder call")
}

func (s *stubOrderService) GetHistory(ctx context.Context, buyerID string, limit, offset int) ([]*orders.OrderResponse, error) {
	return nil, fmt.Errorf("unexpected GetHistory call")
}

func (s *stubOrderService) RecordProviderEvent(ctx context.Context, eventID, eventType string, resource json.RawMessage) error {
	return fmt.Errorf("unexpected RecordProviderEvent call")
}

type stubCatalogService struct {
	catalog json.RawMessage
}

func (s *stubCatalogService) GetCatalog(ctx context.Context) (json.RawMessage, error) {
	return s.catalog, nil
}

func (s *stubCatalogService) GetCatalogForUser(ctx context.Context, userID string) (json.RawMessage, error) {
	return s.catalog, nil
}

func (s *stubCatalogService) CheckNickname(ctx context.Context, nickname string) (json.RawMessage, error) {
	if nickname == "" {
		return nil, domain.ErrValidation
	}
	return json.RawMessage(`{"available":true}`), nil
}

func newTestRouter(orderService *stubOrderService) *chi.Mux {
	r := chi.NewRouter()
	RegisterRoutes(r, orderService, &stubCatalogService{catalog: json.RawMessage(`{"items":[]}`)}, zap.NewNop())
	return r
}

func TestStoreRoutesAuthentication(t *testing.T) {
	router := newTestRouter(&stubOrderService{})

	t.Run("catalog is public", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/catalogo", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
	})

	t.Run("order routes require an identity header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/orden", strings.NewReader(`{"item_id":"item-1"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestStoreCreateOrder(t *testing.T) {
	t.Run("buyer comes from the identity header", func(t *testing.T) {
		service := &stubOrderService{
			createFn: func(ctx context.Context, buyerID, itemID string, metadata domain.PurchaseMetadata) (*orders.CreateOrderResponse, error) {
				assert.Equal(t, "buyer-1", buyerID)
				assert.Equal(t, "item-1", itemID)
				assert.Equal(t, domain.PurchaseKindCreditPackage, metadata.Kind)
				return &orders.CreateOrderResponse{Order: &orders.OrderResponse{ID: "order-1", Status: "pending"}}, nil
			},
		}
		router := newTestRouter(service)

		body := `{"item_id":"item-1","metadata":{"kind":"credit_package","credits":500}}`
		req := httptest.NewRequest(http.MethodPost, "/orden", strings.NewReader(body))
		req.Header.Set(middleware.HeaderUserID, "buyer-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var res orders.CreateOrderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "order-1", res.Order.ID)
	})

	t.Run("malformed body", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{})

		req := httptest.NewRequest(http.MethodPost, "/orden", strings.NewReader("not json"))
		req.Header.Set(middleware.HeaderUserID, "buyer-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStoreErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"validation", fmt.Errorf("bad input: %w", domain.ErrValidation), http.StatusBadRequest, ""},
		{"order not found", fmt.Errorf("order x: %w", domain.ErrOrderNotFound), http.StatusNotFound, ""},
		{"item not found", fmt.Errorf("item x: %w", domain.ErrItemNotFound), http.StatusNotFound, ""},
		{"forbidden", fmt.Errorf("not yours: %w", domain.ErrForbidden), http.StatusForbidden, ""},
		{"invalid state", fmt.Errorf("already done: %w", domain.ErrInvalidState), http.StatusConflict, ""},
		{"provider failure", fmt.Errorf("timeout: %w", domain.ErrExternalService), http.StatusBadGateway, "Payment provider is unavailable"},
		{"ledger rejection", &domain.LedgerError{Message: "saldo_insuficiente"}, http.StatusBadRequest, "saldo_insuficiente"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubOrderService{
				cancelFn: func(ctx context.Context, orderID, requesterID string) (*orders.OrderResponse, error) {
					return nil, tt.err
				},
			}
			router := newTestRouter(service)

			req := httptest.NewRequest(http.MethodPost, "/orden/order-1/cancelar", nil)
			req.Header.Set(middleware.HeaderUserID, "buyer-1")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, strings.TrimSpace(rec.Body.String()))
			}
		})
	}
}

func TestStoreCapturePayment(t *testing.T) {
	service := &stubOrderService{
		captureFn: func(ctx context.Context, orderID, providerOrderID string) (*orders.OrderResponse, error) {
			assert.Equal(t, "order-1", orderID)
			assert.Equal(t, "PP-1", providerOrderID)
			return &orders.OrderResponse{ID: "order-1", Status: "completed", ProviderCaptureID: "CAP-1"}, nil
		},
	}
	router := newTestRouter(service)

	body := `{"order_id":"order-1","provider_order_id":"PP-1"}`
	req := httptest.NewRequest(http.MethodPost, "/orden/paypal/capture", strings.NewReader(body))
	req.Header.Set(middleware.HeaderUserID, "buyer-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var res orders.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "completed", res.Status)
	assert.Equal(t, "CAP-1", res.ProviderCaptureID)
}

func TestVerifyNickname(t *testing.T) {
	router := newTestRouter(&stubOrderService{})

	req := httptest.NewRequest(http.MethodGet, "/verificar-nickname/ProGamer", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available":true}`, rec.Body.String())
}
