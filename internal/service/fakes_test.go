package service

import (
	"context"
	"fmt"
	"sync"

	"credit-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- Fake transactor ---

// fakeTransactor serializes transactions with one mutex, mimicking the
// FOR UPDATE row lock the real store provides. Begin blocks until the
// previous transaction commits or rolls back.
type fakeTransactor struct {
	mu sync.Mutex
}

func newFakeTransactor() *fakeTransactor {
	return &fakeTransactor{}
}

func (t *fakeTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	tx := &fakeTx{}
	tx.release = func() { t.mu.Unlock() }
	return tx, nil
}

// fakeTx is a no-op pgx.Tx whose Commit/Rollback releases the
// transactor lock exactly once.
type fakeTx struct {
	release func()
	once    sync.Once
}

func (t *fakeTx) done() {
	t.once.Do(t.release)
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *fakeTx) Commit(ctx context.Context) error          { t.done(); return nil }
func (t *fakeTx) Rollback(ctx context.Context) error        { t.done(); return nil }
func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *fakeTx) Conn() *pgx.Conn { return nil }

// --- Fake wallet repo ---

type fakeWalletRepo struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet // keyed by account id
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: make(map[string]*domain.Wallet)}
}

func (r *fakeWalletRepo) GetByAccount(ctx context.Context, accountID string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[accountID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWalletRepo) GetByAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Wallet, error) {
	return r.GetByAccount(ctx, accountID)
}

func (r *fakeWalletRepo) CreateIfAbsent(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[w.AccountID]; ok {
		return nil
	}
	cp := *w
	r.wallets[w.AccountID] = &cp
	return nil
}

func (r *fakeWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance int64) error {
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

// --- Fake ledger repo ---

type fakeLedgerRepo struct {
	mu      sync.RWMutex
	entries []domain.LedgerEntry
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{}
}

func (r *fakeLedgerRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeLedgerRepo) CreateBatch(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *fakeLedgerRepo) ListByAccount(ctx context.Context, accountID string, cursor *uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// Newest first: walk the append log backwards.
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

func (r *fakeLedgerRepo) SumDeltas(ctx context.Context, accountID string) (int64, error) {
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

func (r *fakeLedgerRepo) all(accountID string) []domain.LedgerEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.LedgerEntry
	for _, e := range r.entries {
		if e.AccountID == accountID {
			result = append(result, e)
		}
	}
	return result
}

// --- Fake cost repo ---

type fakeCostRepo struct {
	mu    sync.RWMutex
	costs map[string]*domain.CostEntry
}

func newFakeCostRepo() *fakeCostRepo {
	return &fakeCostRepo{costs: make(map[string]*domain.CostEntry)}
}

func (r *fakeCostRepo) Get(ctx context.Context, operationID string) (*domain.CostEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.costs[operationID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *fakeCostRepo) Upsert(ctx context.Context, e *domain.CostEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.costs[e.OperationID] = &cp
	return nil
}

func (r *fakeCostRepo) List(ctx context.Context) ([]domain.CostEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.CostEntry
	for _, e := range r.costs {
		result = append(result, *e)
	}
	return result, nil
}

// --- Fake payment event repo ---

type fakePaymentEventRepo struct {
	mu     sync.Mutex
	events map[string]*domain.ExternalEventRecord
}

func newFakePaymentEventRepo() *fakePaymentEventRepo {
	return &fakePaymentEventRepo{events: make(map[string]*domain.ExternalEventRecord)}
}

func (r *fakePaymentEventRepo) Insert(ctx context.Context, tx pgx.Tx, rec *domain.ExternalEventRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[rec.EventID]; ok {
		return false, nil
	}
	cp := *rec
	r.events[rec.EventID] = &cp
	return true, nil
}

// --- Fake charge key repo ---

type fakeChargeKeyRepo struct {
	mu   sync.RWMutex
	keys map[string]*domain.ChargeKey
}

func newFakeChargeKeyRepo() *fakeChargeKeyRepo {
	return &fakeChargeKeyRepo{keys: make(map[string]*domain.ChargeKey)}
}

func (r *fakeChargeKeyRepo) Create(ctx context.Context, tx pgx.Tx, k *domain.ChargeKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.keys[k.Key]; ok {
		return fmt.Errorf("duplicate charge key: %s", k.Key)
	}
	cp := *k
	r.keys[k.Key] = &cp
	return nil
}

func (r *fakeChargeKeyRepo) Get(ctx context.Context, key string) (*domain.ChargeKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.keys[key]
	if !ok {
		return nil, nil
	}
	cp := *k
	return &cp, nil
}

// --- Fake cost cache ---

type fakeCostCache struct {
	mu      sync.RWMutex
	values  map[string]int64
	getErr  error
	setErr  error
	getHits int
}

func newFakeCostCache() *fakeCostCache {
	return &fakeCostCache{values: make(map[string]int64)}
}

func (c *fakeCostCache) Get(ctx context.Context, operationID string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return 0, false, c.getErr
	}
	v, ok := c.values[operationID]
	if ok {
		c.getHits++
	}
	return v, ok, nil
}

func (c *fakeCostCache) Set(ctx context.Context, operationID string, cost int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.values[operationID] = cost
	return nil
}
