package service

import (
	"context"
	"fmt"
	"time"

	"credit-ledger/internal/core/domain"
	"credit-ledger/internal/core/ports"
	"credit-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// CostRegistryImpl implements ports.CostRegistry. Lookups go through a
// best-effort cache: the database stays authoritative and a cache failure
// only costs a round trip.
type CostRegistryImpl struct {
	costRepo ports.CostRepository
	cache    ports.CostCache
	log      zerolog.Logger
}

// NewCostRegistry creates a new CostRegistryImpl.
func NewCostRegistry(costRepo ports.CostRepository, cache ports.CostCache, log zerolog.Logger) *CostRegistryImpl {
	return &CostRegistryImpl{
		costRepo: costRepo,
		cache:    cache,
		log:      log,
	}
}

// GetCost resolves the credit cost of one operation. A missing entry is a
// server misconfiguration, surfaced as a typed fatal error rather than a
// retryable one.
func (s *CostRegistryImpl) GetCost(ctx context.Context, operationID string) (int64, error) {
	canonical := domain.NormalizeOperationID(operationID)
	if !domain.ValidOperationID(canonical) {
		return 0, apperror.Validation(fmt.Sprintf("malformed operation id %q", operationID))
	}

	if cost, hit, err := s.cache.Get(ctx, canonical); err != nil {
		s.log.Warn().Err(err).Str("operation_id", canonical).Msg("cost cache read failed, falling through to DB")
	} else if hit {
		return cost, nil
	}

	entry, err := s.costRepo.Get(ctx, canonical)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("get cost: %w", err))
	}
	if entry == nil {
		return 0, apperror.ErrCostNotConfigured(canonical)
	}

	if err := s.cache.Set(ctx, canonical, entry.Cost); err != nil {
		s.log.Warn().Err(err).Str("operation_id", canonical).Msg("cost cache write failed")
	}
	return entry.Cost, nil
}

// SetCost registers or replaces the cost of an operation (idempotent by id).
func (s *CostRegistryImpl) SetCost(ctx context.Context, operationID string, cost int64) (*domain.CostEntry, error) {
	canonical := domain.NormalizeOperationID(operationID)
	if !domain.ValidOperationID(canonical) {
		return nil, apperror.Validation(fmt.Sprintf("malformed operation id %q", operationID))
	}
	if cost < 0 {
		return nil, apperror.Validation("cost must not be negative")
	}

	entry := &domain.CostEntry{
		OperationID: canonical,
		Cost:        cost,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.costRepo.Upsert(ctx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("upsert cost: %w", err))
	}

	if err := s.cache.Set(ctx, canonical, cost); err != nil {
		s.log.Warn().Err(err).Str("operation_id", canonical).Msg("cost cache refresh failed")
	}

	s.log.Info().Str("operation_id", canonical).Int64("cost", cost).Msg("operation cost configured")
	return entry, nil
}

// ListCosts returns every configured cost entry.
func (s *CostRegistryImpl) ListCosts(ctx context.Context) ([]domain.CostEntry, error) {
	entries, err := s.costRepo.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list costs: %w", err))
	}
	return entries, nil
}
