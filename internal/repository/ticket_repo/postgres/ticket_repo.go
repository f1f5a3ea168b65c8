package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/domain"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/repository/ticket_repo"
)

type pgTicketRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewTicketRepository(db *sql.DB, l *zap.Logger) ticket_repo.TicketRepository {
	return &pgTicketRepository{db: db, logger: l}
}

const ticketColumns = `id, order_id, requester_id, ticket_type, requested_value, status, resolver_id, resolution_notes, created_at, updated_at, resolved_at`

func (r *pgTicketRepository) CreateTicket(ctx context.Context, ticket *domain.SupportTicket) error {
	query := `INSERT INTO support_tickets (id, order_id, requester_id, ticket_type, requested_value, status, created_at, updated_at)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		ticket.ID, ticket.OrderID, ticket.RequesterID, ticket.Type, ticket.RequestedValue, ticket.Status, ticket.CreatedAt, ticket.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create support ticket", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return fmt.Errorf("failed to create support ticket: %w", err)
	}
	return nil
}

func (r *pgTicketRepository) GetTicketByID(ctx context.Context, id string) (*domain.SupportTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM support_tickets WHERE id = $1`
	ticket, err := r.scanTicket(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to get support ticket by ID", zap.String("ticket_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get support ticket %s: %w", id, err)
	}
	return ticket, nil
}

func (r *pgTicketRepository) GetTicketsByRequesterID(ctx context.Context, requesterID string) ([]*domain.SupportTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM support_tickets WHERE requester_id = $1 ORDER BY created_at DESC`
	return r.queryTickets(ctx, query, requesterID)
}

func (r *pgTicketRepository) GetOpenTickets(ctx context.Context) ([]*domain.SupportTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM support_tickets WHERE status IN ($1, $2) ORDER BY created_at ASC`
	return r.queryTickets(ctx, query, domain.TicketStatusPending, domain.TicketStatusInReview)
}

func (r *pgTicketRepository) UpdateTicket(ctx context.Context, ticket *domain.SupportTicket) error {
	query := `UPDATE support_tickets
		SET status = $2, resolver_id = NULLIF($3, ''), resolution_notes = NULLIF($4, ''), resolved_at = $5, updated_at = $6
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		ticket.ID, ticket.Status, ticket.ResolverID, ticket.ResolutionNotes, ticket.ResolvedAt, ticket.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update support ticket", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return fmt.Errorf("failed to update support ticket %s: %w", ticket.ID, err)
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

func (r *pgTicketRepository) queryTickets(ctx context.Context, query string, args ...interface{}) ([]*domain.SupportTicket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query support tickets", zap.Error(err))
		return nil, fmt.Errorf("failed to query support tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*domain.SupportTicket
	for rows.Next() {
		ticket, err := r.scanTicket(rows)
		if err != nil {
			r.logger.Error("Failed to scan support ticket row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan support ticket row: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return tickets, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *pgTicketRepository) scanTicket(row rowScanner) (*domain.SupportTicket, error) {
	ticket := &domain.SupportTicket{}
	var orderID, resolverID, resolutionNotes sql.NullString
	var resolvedAt sql.NullTime

	err := row.Scan(
		&ticket.ID, &orderID, &ticket.RequesterID, &ticket.Type, &ticket.RequestedValue, &ticket.Status,
		&resolverID, &resolutionNotes, &ticket.CreatedAt, &ticket.UpdatedAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	ticket.OrderID = orderID.String
	ticket.ResolverID = resolverID.String
	ticket.ResolutionNotes = resolutionNotes.String
	if resolvedAt.Valid {
		t := resolvedAt.Time
		ticket.ResolvedAt = &t
	}
	return ticket, nil
}
