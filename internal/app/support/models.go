package support

import (
	"time"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/domain"
)

type TicketResponse struct {
	ID              string     `json:"id"`
	OrderID         string     `json:"order_id,omitempty"`
	RequesterID     string     `json:"requester_id"`
	Type            string     `json:"type"`
	RequestedValue  string     `json:"requested_value"`
	Status          string     `json:"status"`
	ResolverID      string     `json:"resolver_id,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

func mapTicketToResponse(t *domain.SupportTicket) *TicketResponse {
	return &TicketResponse{
		ID:              t.ID,
		OrderID:         t.OrderID,
		RequesterID:     t.RequesterID,
		Type:            string(t.Type),
		RequestedValue:  t.RequestedValue,
		Status:          string(t.Status),
		ResolverID:      t.ResolverID,
		ResolutionNotes: t.ResolutionNotes,
		CreatedAt:       t.CreatedAt,
		ResolvedAt:      t.ResolvedAt,
	}
}

func mapTicketsToResponse(tickets []*domain.SupportTicket) []*TicketResponse {
	responses := make([]*TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		responses = append(responses, mapTicketToResponse(t))
	}
	return responses
}
