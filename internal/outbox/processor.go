package outbox

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/infrastructure/kafka"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/repository/outbox_repo"
)

const batchSize = 10

// Processor drains the transactional outbox: pending events written alongside
// order state changes are published to Kafka and marked sent.
type Processor struct {
	db           *sql.DB
	outboxRepo   outbox_repo.OutboxRepository
	producer     kafka.Producer
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       *zap.Logger
}

func NewProcessor(
	db *sql.DB,
	outboxRepo outbox_repo.OutboxRepository,
	producer kafka.Producer,
	pollInterval time.Duration,
	pollTimeout time.Duration,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		db:           db,
		outboxRepo:   outboxRepo,
		producer:     producer,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		logger:       logger,
	}
}

func (p *Processor) Run(ctx context.Context) {
	p.logger.Info("Outbox processor started", zap.Duration("poll_interval", p.pollInterval))
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox processor stopped.")
			return
		case <-ticker.C:
			p.processBatch(ctx)
		}
	}
}

func (p *Processor) processBatch(ctx context.Context) {
	queryCtx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	defer cancel()

	messages, err := p.outboxRepo.GetPendingMessages(queryCtx, batchSize)
	if err != nil {
		p.logger.Error("Failed to get pending outbox messages", zap.Error(err))
		return
	}
	if len(messages) == 0 {
		return
	}
	p.logger.Debug("Publishing pending outbox messages", zap.Int("count", len(messages)))

	for _, msg := range messages {
		if err := p.producer.Produce(ctx, msg.Payload); err != nil {
			p.logger.Error("Failed to publish outbox message",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			continue
		}

		tx, err := p.db.BeginTx(ctx, nil)
		if err != nil {
			p.logger.Error("Failed to begin transaction for outbox message", zap.String("message_id", msg.ID), zap.Error(err))
			continue
		}
		if err := p.outboxRepo.UpdateMessageStatusTx(ctx, tx, msg.ID, outbox_repo.StatusSent); err != nil {
			p.logger.Error("Failed to mark outbox message as sent", zap.String("message_id", msg.ID), zap.Error(err))
			_ = tx.Rollback()
			continue
		}
		if err := tx.Commit(); err != nil {
			p.logger.Error("Failed to commit outbox message status", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}
}
