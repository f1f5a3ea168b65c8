package outbox_repo

import (
	"context"
	"database/sql"
	"time"
)

type OutboxMessageStatus string

const (
	StatusPending OutboxMessageStatus = "PENDING"
	StatusSent    OutboxMessageStatus = "SENT"
)

type OutboxMessage struct {
	ID        string
	Topic     string
	Payload   []byte
	Status    OutboxMessageStatus
	CreatedAt time.Time
}

type OutboxRepository interface {
	CreateMessage(ctx context.Context, msg *OutboxMessage) error
	GetPendingMessages(ctx context.Context, limit int) ([]*OutboxMessage, error)
	UpdateMessageStatusTx(ctx context.Context, tx *sql.Tx, id string, status OutboxMessageStatus) error
}
