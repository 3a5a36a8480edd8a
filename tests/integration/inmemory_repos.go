package integration

import (
	"context"
	"fmt"
	"sync"

	"credit-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet // keyed by account id
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[string]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) GetByAccount(ctx context.Context, accountID string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[accountID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Wallet, error) {
	return r.GetByAccount(ctx, accountID)
}

func (r *inMemoryWalletRepo) CreateIfAbsent(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[w.AccountID]; ok {
		return nil
	}
	cp := *w
	r.wallets[w.AccountID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.ID == walletID {
			w.Balance = balance
			return nil
		}
	}
	return fmt.Errorf("wallet not found: %s", walletID)
}

// --- In-Memory Ledger Repo ---

type inMemoryLedgerRepo struct {
	mu      sync.RWMutex
	entries []domain.LedgerEntry
}

func newInMemoryLedgerRepo() *inMemoryLedgerRepo {
	return &inMemoryLedgerRepo{}
}

func (r *inMemoryLedgerRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *inMemoryLedgerRepo) CreateBatch(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *inMemoryLedgerRepo) ListByAccount(ctx context.Context, accountID string, cursor *uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.LedgerEntry
	skipping := cursor != nil
	for i := len(r.entries) - 1; i >= 0 && len(result) < limit; i-- {
		e := r.entries[i]
		if e.AccountID != accountID {
			continue
		}
		if skipping {
			if e.ID == *cursor {
				skipping = false
			}
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func (r *inMemoryLedgerRepo) SumDeltas(ctx context.Context, accountID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, e := range r.entries {
		if e.AccountID == accountID {
			sum += e.Delta
		}
	}
	return sum, nil
}

// --- In-Memory Cost Repo ---

type inMemoryCostRepo struct {
	mu    sync.RWMutex
	costs map[string]*domain.CostEntry
}

func newInMemoryCostRepo() *inMemoryCostRepo {
	return &inMemoryCostRepo{costs: make(map[string]*domain.CostEntry)}
}

func (r *inMemoryCostRepo) Get(ctx context.Context, operationID string) (*domain.CostEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.costs[operationID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *inMemoryCostRepo) Upsert(ctx context.Context, e *domain.CostEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.costs[e.OperationID] = &cp
	return nil
}

func (r *inMemoryCostRepo) List(ctx context.Context) ([]domain.CostEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.CostEntry
	for _, e := range r.costs {
		result = append(result, *e)
	}
	return result, nil
}

// --- In-Memory Payment Event Repo ---

type inMemoryPaymentEventRepo struct {
	mu     sync.Mutex
	events map[string]*domain.ExternalEventRecord
}

func newInMemoryPaymentEventRepo() *inMemoryPaymentEventRepo {
	return &inMemoryPaymentEventRepo{events: make(map[string]*domain.ExternalEventRecord)}
}

func (r *inMemoryPaymentEventRepo) Insert(ctx context.Context, tx pgx.Tx, rec *domain.ExternalEventRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[rec.EventID]; ok {
		return false, nil
	}
	cp := *rec
	r.events[rec.EventID] = &cp
	return true, nil
}

// --- In-Memory Charge Key Repo ---

type inMemoryChargeKeyRepo struct {
	mu   sync.RWMutex
	keys map[string]*domain.ChargeKey
}

func newInMemoryChargeKeyRepo() *inMemoryChargeKeyRepo {
	return &inMemoryChargeKeyRepo{keys: make(map[string]*domain.ChargeKey)}
}

func (r *inMemoryChargeKeyRepo) Create(ctx context.Context, tx pgx.Tx, k *domain.ChargeKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.keys[k.Key]; ok {
		return fmt.Errorf("duplicate charge key: %s", k.Key)
	}
	cp := *k
	r.keys[k.Key] = &cp
	return nil
}

func (r *inMemoryChargeKeyRepo) Get(ctx context.Context, key string) (*domain.ChargeKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.keys[key]
	if !ok {
		return nil, nil
	}
	cp := *k
	return &cp, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes transactions with a single mutex, standing
// in for the row lock the real store takes with SELECT ... FOR UPDATE.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	tx := &lockTx{}
	tx.release = func() { t.mu.Unlock() }
	return tx, nil
}

// lockTx is a no-op pgx.Tx whose Commit/Rollback releases the transactor
// lock exactly once.
type lockTx struct {
	release func()
	once    sync.Once
}

func (t *lockTx) done() {
	t.once.Do(t.release)
}

func (t *lockTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *lockTx) Commit(ctx context.Context) error          { t.done(); return nil }
func (t *lockTx) Rollback(ctx context.Context) error        { t.done(); return nil }
func (t *lockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *lockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *lockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *lockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *lockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *lockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *lockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *lockTx) Conn() *pgx.Conn { return nil }
