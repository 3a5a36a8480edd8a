package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"credit-ledger/internal/core/domain"
	"credit-ledger/internal/core/ports"
	"credit-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BillingServiceImpl implements ports.BillingService: the upfront,
// all-or-nothing charge for a batch of priced operations. Either every
// operation in the batch is paid for before any executes, or nothing is
// charged at all.
type BillingServiceImpl struct {
	registry   ports.CostRegistry
	walletRepo ports.WalletRepository
	ledgerRepo ports.LedgerRepository
	chargeKeys ports.ChargeKeyRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewBillingService creates a new BillingServiceImpl.
func NewBillingService(
	registry ports.CostRegistry,
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
	chargeKeys ports.ChargeKeyRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *BillingServiceImpl {
	return &BillingServiceImpl{
		registry:   registry,
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		chargeKeys: chargeKeys,
		transactor: transactor,
		log:        log,
	}
}

// Plan prices a batch without side effects. Any unconfigured operation
// fails the whole plan.
func (s *BillingServiceImpl) Plan(ctx context.Context, operationIDs []string) (*ports.ChargePlan, error) {
	if len(operationIDs) == 0 {
		return nil, apperror.Validation("operation_ids must not be empty")
	}

	plan := &ports.ChargePlan{
		Breakdown: make(map[string]int64, len(operationIDs)),
		Items:     make([]ports.ChargeItem, 0, len(operationIDs)),
	}
	for _, raw := range operationIDs {
		canonical := domain.NormalizeOperationID(raw)
		cost, err := s.registry.GetCost(ctx, canonical)
		if err != nil {
			return nil, err
		}
		plan.Items = append(plan.Items, ports.ChargeItem{OperationID: canonical, Cost: cost})
		plan.Breakdown[canonical] += cost
		plan.TotalCost += cost
	}
	return plan, nil
}

// ChargeBatch verifies affordability for the whole batch and consumes the
// total in one transaction: one CONSUME entry per operation, all sharing a
// batch id, and a single balance update. On insufficiency nothing is
// written. A caller-supplied idempotency key makes retries return the
// original result instead of charging twice.
func (s *BillingServiceImpl) ChargeBatch(ctx context.Context, req ports.ChargeRequest) (*ports.ChargeResult, error) {
	accountID := domain.NormalizeAccountID(req.AccountID)
	if !domain.ValidAccountID(accountID) {
		return nil, apperror.Validation("malformed account id")
	}

	if req.IdempotencyKey != nil {
		if *req.IdempotencyKey == "" {
			return nil, apperror.Validation("idempotency key must not be empty")
		}
		prior, err := s.chargeKeys.Get(ctx, *req.IdempotencyKey)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("idempotency check: %w", err))
		}
		if prior != nil {
			if prior.AccountID != accountID {
				return nil, apperror.Validation("idempotency key was used by a different account")
			}
			return s.unmarshalChargeResult(prior.ResponseJSON)
		}
	}

	plan, err := s.Plan(ctx, req.OperationIDs)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := lockOrCreateWallet(ctx, dbTx, s.walletRepo, accountID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	if wallet.Balance < plan.TotalCost {
		return nil, apperror.ErrInsufficientCredits(wallet.Balance, plan.TotalCost, plan.Breakdown)
	}

	batchID := uuid.New()
	now := time.Now().UTC()
	newBalance := wallet.Balance - plan.TotalCost

	entries := make([]domain.LedgerEntry, len(plan.Items))
	for i, item := range plan.Items {
		opID := item.OperationID
		entries[i] = domain.LedgerEntry{
			ID:          uuid.New(),
			AccountID:   accountID,
			Delta:       -item.Cost,
			Kind:        domain.EntryKindConsume,
			Reason:      fmt.Sprintf("batch charge: %s", opID),
			OperationID: &opID,
			BatchID:     &batchID,
			CreatedAt:   now,
		}
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}
	if err := s.ledgerRepo.CreateBatch(ctx, dbTx, entries); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create batch entries: %w", err))
	}

	result := &ports.ChargeResult{
		BatchID:    batchID,
		TotalCost:  plan.TotalCost,
		NewBalance: newBalance,
	}

	if req.IdempotencyKey != nil {
		respJSON, err := json.Marshal(result)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("marshal charge result: %w", err))
		}
		key := &domain.ChargeKey{
			Key:          *req.IdempotencyKey,
			AccountID:    accountID,
			BatchID:      batchID,
			ResponseJSON: respJSON,
			CreatedAt:    now,
		}
		if err := s.chargeKeys.Create(ctx, dbTx, key); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("save charge key: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("account_id", accountID).
		Str("batch_id", batchID.String()).
		Int("operations", len(plan.Items)).
		Int64("total_cost", plan.TotalCost).
		Int64("new_balance", newBalance).
		Msg("batch charged")

	return result, nil
}

func (s *BillingServiceImpl) unmarshalChargeResult(data []byte) (*ports.ChargeResult, error) {
	result := &ports.ChargeResult{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached charge result: %w", err))
	}
	return result, nil
}
