package service

import (
	"context"
	"fmt"
	"time"

	"credit-ledger/internal/core/domain"
	"credit-ledger/internal/core/ports"
	"credit-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const recentEntryCount = 20

// WalletServiceImpl implements ports.WalletService. Every mutation runs
// inside one database transaction that holds a FOR UPDATE lock on the
// wallet row across the read-check-write sequence, so concurrent callers
// against the same account serialize.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	ledgerRepo ports.LedgerRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		transactor: transactor,
		log:        log,
	}
}

// lockOrCreateWallet locks the wallet row, lazily creating a zero-balance
// wallet when the account has none yet. Safe under concurrent creation:
// the insert ignores conflicts and the second lock attempt wins the row.
func lockOrCreateWallet(ctx context.Context, tx pgx.Tx, repo ports.WalletRepository, accountID string) (*domain.Wallet, error) {
	w, err := repo.GetByAccountForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	if w != nil {
		return w, nil
	}

	now := time.Now().UTC()
	fresh := &domain.Wallet{
		ID:        uuid.New(),
		AccountID: accountID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateIfAbsent(ctx, tx, fresh); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	w, err = repo.GetByAccountForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, fmt.Errorf("lock created wallet: %w", err)
	}
	if w == nil {
		return nil, fmt.Errorf("wallet vanished after create: %s", accountID)
	}
	return w, nil
}

// Grant increases the balance and appends a credit ledger entry.
func (s *WalletServiceImpl) Grant(ctx context.Context, req ports.GrantRequest) (int64, error) {
	accountID := domain.NormalizeAccountID(req.AccountID)
	if !domain.ValidAccountID(accountID) {
		return 0, apperror.Validation("malformed account id")
	}
	if req.Amount <= 0 {
		return 0, apperror.Validation("grant amount must be positive")
	}
	if !req.Kind.CreditKind() {
		return 0, apperror.Validation(fmt.Sprintf("entry kind %q cannot credit a wallet", req.Kind))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := lockOrCreateWallet(ctx, dbTx, s.walletRepo, accountID)
	if err != nil {
		return 0, apperror.InternalError(err)
	}

	newBalance := wallet.Balance + req.Amount
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	entry := &domain.LedgerEntry{
		ID:              uuid.New(),
		AccountID:       accountID,
		Delta:           req.Amount,
		Kind:            req.Kind,
		Reason:          req.Reason,
		ExternalEventID: req.ExternalEventID,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.ledgerRepo.Create(ctx, dbTx, entry); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("create ledger entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("account_id", accountID).
		Int64("amount", req.Amount).
		Str("kind", string(req.Kind)).
		Int64("new_balance", newBalance).
		Msg("credits granted")

	return newBalance, nil
}

// Consume decrements the balance for one priced operation. When the
// balance cannot cover the amount, no state changes and the caller gets
// the structured insufficiency error.
func (s *WalletServiceImpl) Consume(ctx context.Context, req ports.ConsumeRequest) (int64, error) {
	accountID := domain.NormalizeAccountID(req.AccountID)
	if !domain.ValidAccountID(accountID) {
		return 0, apperror.Validation("malformed account id")
	}
	if req.Amount <= 0 {
		return 0, apperror.Validation("consume amount must be positive")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := lockOrCreateWallet(ctx, dbTx, s.walletRepo, accountID)
	if err != nil {
		return 0, apperror.InternalError(err)
	}

	if wallet.Balance < req.Amount {
		return 0, apperror.ErrInsufficientCredits(wallet.Balance, req.Amount, nil)
	}

	newBalance := wallet.Balance - req.Amount
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	entry := &domain.LedgerEntry{
		ID:          uuid.New(),
		AccountID:   accountID,
		Delta:       -req.Amount,
		Kind:        domain.EntryKindConsume,
		Reason:      req.Reason,
		OperationID: req.OperationID,
		BatchID:     req.BatchID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.ledgerRepo.Create(ctx, dbTx, entry); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("create ledger entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("account_id", accountID).
		Int64("amount", req.Amount).
		Int64("new_balance", newBalance).
		Msg("credits consumed")

	return newBalance, nil
}

// Adjust applies a signed administrative correction. A negative adjustment
// that would push the balance below zero is rejected with no state change.
func (s *WalletServiceImpl) Adjust(ctx context.Context, rawAccountID string, amount int64, reason string) (int64, error) {
	accountID := domain.NormalizeAccountID(rawAccountID)
	if !domain.ValidAccountID(accountID) {
		return 0, apperror.Validation("malformed account id")
	}
	if amount == 0 {
		return 0, apperror.Validation("adjustment amount must be non-zero")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := lockOrCreateWallet(ctx, dbTx, s.walletRepo, accountID)
	if err != nil {
		return 0, apperror.InternalError(err)
	}

	newBalance := wallet.Balance + amount
	if newBalance < 0 {
		return 0, apperror.ErrInsufficientCredits(wallet.Balance, -amount, nil)
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	entry := &domain.LedgerEntry{
		ID:        uuid.New(),
		AccountID: accountID,
		Delta:     amount,
		Kind:      domain.EntryKindAdjustment,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.ledgerRepo.Create(ctx, dbTx, entry); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("create ledger entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("account_id", accountID).
		Int64("amount", amount).
		Int64("new_balance", newBalance).
		Str("reason", reason).
		Msg("balance adjusted")

	return newBalance, nil
}

// Balance reads the current balance, lazily creating a zero wallet so
// read-only paths never require a pre-existing wallet.
func (s *WalletServiceImpl) Balance(ctx context.Context, rawAccountID string) (int64, error) {
	accountID := domain.NormalizeAccountID(rawAccountID)
	if !domain.ValidAccountID(accountID) {
		return 0, apperror.Validation("malformed account id")
	}

	wallet, err := s.walletRepo.GetByAccount(ctx, accountID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet != nil {
		return wallet.Balance, nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if _, err := lockOrCreateWallet(ctx, dbTx, s.walletRepo, accountID); err != nil {
		return 0, apperror.InternalError(err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return 0, nil
}

// GetWallet returns the balance together with the most recent entries.
func (s *WalletServiceImpl) GetWallet(ctx context.Context, rawAccountID string) (*ports.WalletView, error) {
	balance, err := s.Balance(ctx, rawAccountID)
	if err != nil {
		return nil, err
	}
	accountID := domain.NormalizeAccountID(rawAccountID)

	entries, err := s.ledgerRepo.ListByAccount(ctx, accountID, nil, recentEntryCount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list recent entries: %w", err))
	}

	return &ports.WalletView{
		AccountID:     accountID,
		Balance:       balance,
		RecentEntries: entries,
	}, nil
}

// ListEntries returns a page of the account's ledger, newest first.
func (s *WalletServiceImpl) ListEntries(ctx context.Context, rawAccountID string, cursor *uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	accountID := domain.NormalizeAccountID(rawAccountID)
	if !domain.ValidAccountID(accountID) {
		return nil, apperror.Validation("malformed account id")
	}
	if limit <= 0 {
		limit = recentEntryCount
	}
	if limit > 100 {
		return nil, apperror.Validation("limit must not exceed 100")
	}

	entries, err := s.ledgerRepo.ListByAccount(ctx, accountID, cursor, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list ledger entries: %w", err))
	}
	return entries, nil
}
