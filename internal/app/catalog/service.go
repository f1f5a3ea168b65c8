package catalog

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/domain"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/ledger"
)

// CatalogService is a passthrough over the ledger engine's catalog truth; no
// pricing or availability rules live on this side.
type CatalogService interface {
	GetCatalog(ctx context.Context) (json.RawMessage, error)
	GetCatalogForUser(ctx context.Context, userID string) (json.RawMessage, error)
	CheckNickname(ctx context.Context, nickname string) (json.RawMessage, error)
}

type catalogService struct {
	engine ledger.Engine
	logger *zap.Logger
}

func NewCatalogService(engine ledger.Engine, logger *zap.Logger) CatalogService {
	return &catalogService{engine: engine, logger: logger}
}

func (s *catalogService) GetCatalog(ctx context.Context) (json.RawMessage, error) {
	return s.forward(ctx, func(ctx context.Context) (*ledger.Result, error) {
		return s.engine.ListCatalog(ctx, "")
	})
}

func (s *catalogService) GetCatalogForUser(ctx context.Context, userID string) (json.RawMessage, error) {
	return s.forward(ctx, func(ctx context.Context) (*ledger.Result, error) {
		return s.engine.ListCatalog(ctx, userID)
	})
}

func (s *catalogService) CheckNickname(ctx context.Context, nickname string) (json.RawMessage, error) {
	if nickname == "" {
		return nil, domain.ErrValidation
	}
	return s.forward(ctx, func(ctx context.Context) (*ledger.Result, error) {
		return s.engine.CheckNickname(ctx, nickname)
	})
}

func (s *catalogService) forward(ctx context.Context, call func(ctx context.Context) (*ledger.Result, error)) (json.RawMessage, error) {
	res, err := call(ctx)
	if err != nil {
		s.logger.Error("Ledger catalog call failed", zap.Error(err))
		return nil, errors.New("internal server error")
	}
	if !res.Success {
		return nil, &domain.LedgerError{Message: res.Error}
	}
	payload, err := res.PayloadJSON()
	if err != nil {
		s.logger.Error("Failed to encode catalog payload", zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return payload, nil
}
