package ticket_repo

import (
	"context"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/domain"
)

type TicketRepository interface {
	CreateTicket(ctx context.Context, ticket *domain.SupportTicket) error
	GetTicketByID(ctx context.Context, id string) (*domain.SupportTicket, error)
	GetTicketsByRequesterID(ctx context.Context, requesterID string) ([]*domain.SupportTicket, error)
	GetOpenTickets(ctx context.Context) ([]*domain.SupportTicket, error)
	UpdateTicket(ctx context.Context, ticket *domain.SupportTicket) error
}
