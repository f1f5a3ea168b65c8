package domain

import (
	"fmt"
	"time"
)

type TicketStatus string

const (
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusInReview TicketStatus = "in_review"
	TicketStatusApproved TicketStatus = "approved"
	TicketStatusRejected TicketStatus = "rejected"
)

type TicketType string

const (
	TicketTypeNicknameReclaim TicketType = "nickname_reclaim"
)

// SupportTicket is the manual-review fallback for purchases the ledger engine
// cannot fulfill automatically. Tickets are never deleted; an operator
// resolution is the only mutation after creation.
type SupportTicket struct {
	ID              string
	OrderID         string
	RequesterID     string
	Type            TicketType
	RequestedValue  string
	Status          TicketStatus
	ResolverID      string
	ResolutionNotes string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ResolvedAt      *time.Time
}

func NewSupportTicket(id, orderID, requesterID string, ticketType TicketType, requestedValue string) (*SupportTicket, error) {
	if id == "" || requesterID == "" || ticketType == "" {
		return nil, fmt.Errorf("ticket requires id, requester and type: %w", ErrValidation)
	}
	now := time.Now()
	return &SupportTicket{
		ID:             id,
		OrderID:        orderID,
		RequesterID:    requesterID,
		Type:           ticketType,
		RequestedValue: requestedValue,
		Status:         TicketStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (t *SupportTicket) Resolve(resolverID string, approve bool, notes string, at time.Time) error {
	if t.Status == TicketStatusApproved || t.Status == TicketStatusRejected {
		return fmt.Errorf("ticket already resolved: %w", ErrInvalidState)
	}
	if approve {
		t.Status = TicketStatusApproved
	} else {
		t.Status = TicketStatusRejected
	}
	t.ResolverID = resolverID
	t.ResolutionNotes = notes
	t.ResolvedAt = &at
	t.UpdatedAt = at
	return nil
}
