package support

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/app/support"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/domain"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/handler/http/middleware"
)

type SupportHandler struct {
	service support.SupportService
	logger  *zap.Logger
}

func NewSupportHandler(s support.SupportService, l *zap.Logger) *SupportHandler {
	return &SupportHandler{service: s, logger: l}
}

type resolveTicketRequest struct {
	TicketID string `json:"ticket_id"`
	Approve  bool   `json:"approve"`
	Notes    string `json:"notes"`
}

func (h *SupportHandler) GetMyTickets(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	res, err := h.service.GetMyTickets(r.Context(), identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SupportHandler) GetOpenTickets(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetOpenTickets(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SupportHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	res, err := h.service.GetTicket(r.Context(), ticketID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SupportHandler) ResolveTicket(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	var req resolveTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for ResolveTicket", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.ResolveTicket(r.Context(), identity.UserID, req.TicketID, req.Approve, req.Notes)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SupportHandler) writeError(w http.ResponseWriter, err error) {
	var ledgerErr *domain.LedgerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrTicketNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, "Operation not permitted", http.StatusForbidden)
	case errors.Is(err, domain.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusConflict)
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
