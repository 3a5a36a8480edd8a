package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"credit-ledger/internal/core/domain"
	"credit-ledger/internal/core/ports"
	"credit-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PaymentIngestServiceImpl implements ports.PaymentIngestService. The
// event-record insert and the wallet credit share one transaction keyed
// by the unique event id, so a crash between them cannot lose a payment
// and a redelivered notification cannot apply twice.
type PaymentIngestServiceImpl struct {
	eventRepo  ports.PaymentEventRepository
	walletRepo ports.WalletRepository
	ledgerRepo ports.LedgerRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewPaymentIngestService creates a new PaymentIngestServiceImpl.
func NewPaymentIngestService(
	eventRepo ports.PaymentEventRepository,
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *PaymentIngestServiceImpl {
	return &PaymentIngestServiceImpl{
		eventRepo:  eventRepo,
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		transactor: transactor,
		log:        log,
	}
}

// Ingest applies one verified payment notification exactly once. A
// duplicate delivery is a normal outcome: it returns applied == false
// and must be acknowledged successfully to the gateway.
func (s *PaymentIngestServiceImpl) Ingest(ctx context.Context, req ports.IngestRequest) (*ports.IngestResult, error) {
	eventID := strings.TrimSpace(req.EventID)
	if eventID == "" {
		return nil, apperror.Validation("event id must not be empty")
	}
	accountID := domain.NormalizeAccountID(req.AccountID)
	if !domain.ValidAccountID(accountID) {
		return nil, apperror.Validation("malformed account id")
	}
	if req.Amount <= 0 {
		return nil, apperror.Validation("payment amount must be positive")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	record := &domain.ExternalEventRecord{
		EventID:     eventID,
		AccountID:   accountID,
		Amount:      req.Amount,
		ProcessedAt: time.Now().UTC(),
	}
	inserted, err := s.eventRepo.Insert(ctx, dbTx, record)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record external event: %w", err))
	}
	if !inserted {
		s.log.Info().
			Str("event_id", eventID).
			Str("account_id", accountID).
			Msg("duplicate payment delivery ignored")
		return &ports.IngestResult{Applied: false}, nil
	}

	wallet, err := lockOrCreateWallet(ctx, dbTx, s.walletRepo, accountID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	newBalance := wallet.Balance + req.Amount
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	entry := &domain.LedgerEntry{
		ID:              uuid.New(),
		AccountID:       accountID,
		Delta:           req.Amount,
		Kind:            domain.EntryKindPurchase,
		Reason:          req.Reason,
		ExternalEventID: &eventID,
		CreatedAt:       record.ProcessedAt,
	}
	if err := s.ledgerRepo.Create(ctx, dbTx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create ledger entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("event_id", eventID).
		Str("account_id", accountID).
		Int64("amount", req.Amount).
		Int64("new_balance", newBalance).
		Msg("payment applied")

	return &ports.IngestResult{Applied: true, NewBalance: newBalance}, nil
}
