package support

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/domain"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/ledger"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/repository/ticket_repo"
)

type SupportService interface {
	GetMyTickets(ctx context.Context, requesterID string) ([]*TicketResponse, error)
	GetOpenTickets(ctx context.Context) ([]*TicketResponse, error)
	GetTicket(ctx context.Context, ticketID string) (*TicketResponse, error)
	ResolveTicket(ctx context.Context, resolverID, ticketID string, approve bool, notes string) (*TicketResponse, error)
}

type supportService struct {
	ticketRepo ticket_repo.TicketRepository
	engine     ledger.Engine
	logger     *zap.Logger
}

func NewSupportService(ticketRepo ticket_repo.TicketRepository, engine ledger.Engine, logger *zap.Logger) SupportService {
	return &supportService{ticketRepo: ticketRepo, engine: engine, logger: logger}
}

func (s *supportService) GetMyTickets(ctx context.Context, requesterID string) ([]*TicketResponse, error) {
	tickets, err := s.ticketRepo.GetTicketsByRequesterID(ctx, requesterID)
	if err != nil {
		s.logger.Error("Failed to get tickets for requester", zap.String("requester_id", requesterID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return mapTicketsToResponse(tickets), nil
}

func (s *supportService) GetOpenTickets(ctx context.Context) ([]*TicketResponse, error) {
	tickets, err := s.ticketRepo.GetOpenTickets(ctx)
	if err != nil {
		s.logger.Error("Failed to get open tickets", zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return mapTicketsToResponse(tickets), nil
}

func (s *supportService) GetTicket(ctx context.Context, ticketID string) (*TicketResponse, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return mapTicketToResponse(ticket), nil
}

// ResolveTicket applies an operator decision. The ledger engine enforces the
// resolver privilege and applies the approved effect; the ticket row is
// updated only after the engine accepts the resolution.
func (s *supportService) ResolveTicket(ctx context.Context, resolverID, ticketID string, approve bool, notes string) (*TicketResponse, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.ResolveTicket(ctx, resolverID, ticketID, approve, notes)
	if err != nil {
		s.logger.Error("Ledger resolution failed", zap.String("ticket_id", ticketID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	if !res.Success {
		if res.Error == "forbidden" {
			s.logger.Warn("Resolution denied by ledger",
				zap.String("ticket_id", ticketID),
				zap.String("resolver_id", resolverID))
			return nil, fmt.Errorf("resolver lacks the required privilege: %w", domain.ErrForbidden)
		}
		s.logger.Warn("Ledger rejected ticket resolution",
			zap.String("ticket_id", ticketID),
			zap.String("reason", res.Error))
		return nil, &domain.LedgerError{Message: res.Error}
	}

	if err := ticket.Resolve(resolverID, approve, notes, time.Now()); err != nil {
		return nil, err
	}
	if err := s.ticketRepo.UpdateTicket(ctx, ticket); err != nil {
		s.logger.Error("Failed to persist ticket resolution", zap.String("ticket_id", ticketID), zap.Error(err))
		return nil, errors.New("internal server error")
	}

	s.logger.Info("Support ticket resolved",
		zap.String("ticket_id", ticketID),
		zap.String("resolver_id", resolverID),
		zap.Bool("approved", approve))
	return mapTicketToResponse(ticket), nil
}

func (s *supportService) loadTicket(ctx context.Context, ticketID string) (*domain.SupportTicket, error) {
	if ticketID == "" {
		return nil, fmt.Errorf("ticket id is required: %w", domain.ErrValidation)
	}
	ticket, err := s.ticketRepo.GetTicketByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ticket %s: %w", ticketID, domain.ErrTicketNotFound)
		}
		s.logger.Error("Failed to load ticket", zap.String("ticket_id", ticketID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return ticket, nil
}
