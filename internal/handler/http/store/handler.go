package store

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/app/catalog"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/app/orders"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/domain"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/handler/http/middleware"
)

type StoreHandler struct {
	orderService   orders.OrderService
	catalogService catalog.CatalogService
	logger         *zap.Logger
}

func NewStoreHandler(orderService orders.OrderService, catalogService catalog.CatalogService, l *zap.Logger) *StoreHandler {
	return &StoreHandler{orderService: orderService, catalogService: catalogService, logger: l}
}

type createOrderRequest struct {
	ItemID   string                  `json:"item_id"`
	Metadata domain.PurchaseMetadata `json:"metadata"`
}

type initiatePaymentRequest struct {
	OrderID string `json:"order_id"`
}

type captureRequest struct {
	OrderID         string `json:"order_id"`
	ProviderOrderID string `json:"provider_order_id"`
}

func (h *StoreHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	payload, err := h.catalogService.GetCatalog(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, payload)
}

func (h *StoreHandler) GetCatalogForUser(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	payload, err := h.catalogService.GetCatalogForUser(r.Context(), identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, payload)
}

func (h *StoreHandler) VerifyNickname(w http.ResponseWriter, r *http.Request) {
	nickname := chi.URLParam(r, "nickname")
	payload, err := h.catalogService.CheckNickname(r.Context(), nickname)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, payload)
}

func (h *StoreHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for CreateOrder", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.orderService.CreateOrder(r.Context(), identity.UserID, req.ItemID, req.Metadata)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *StoreHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	var req initiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for InitiatePayment", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.orderService.InitiatePayment(r.Context(), req.OrderID, identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *StoreHandler) CapturePayment(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for CapturePayment", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.orderService.CaptureAndConfirm(r.Context(), req.OrderID, req.ProviderOrderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *StoreHandler) PayWithBalance(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	var req initiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for PayWithBalance", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.orderService.PayWithBalance(r.Context(), req.OrderID, identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *StoreHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	orderID := chi.URLParam(r, "orderID")

	res, err := h.orderService.CancelOrder(r.Context(), orderID, identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *StoreHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	orderID := chi.URLParam(r, "orderID")

	res, err := h.orderService.GetOrder(r.Context(), orderID, identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *StoreHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	res, err := h.orderService.GetHistory(r.Context(), identity.UserID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeError maps domain errors to HTTP statuses. Provider failures are
// surfaced as a generic message; their detail is already logged server-side.
func (h *StoreHandler) writeError(w http.ResponseWriter, err error) {
	var ledgerErr *domain.LedgerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrItemNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, "Operation not permitted", http.StatusForbidden)
	case errors.Is(err, domain.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrExternalService):
		http.Error(w, "Payment provider is unavailable", http.StatusBadGateway)
	case errors.As(err, &ledgerErr):
		http.Error(w, ledgerErr.Message, http.StatusBadRequest)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}
