package service

import (
	"context"
	"sync"
	"testing"

	"credit-ledger/internal/core/domain"
	"credit-ledger/internal/core/ports"
	"credit-ledger/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type walletFixture struct {
	svc     *WalletServiceImpl
	wallets *fakeWalletRepo
	ledger  *fakeLedgerRepo
}

func newWalletFixture() *walletFixture {
	wallets := newFakeWalletRepo()
	ledger := newFakeLedgerRepo()
	svc := NewWalletService(wallets, ledger, newFakeTransactor(), zerolog.Nop())
	return &walletFixture{svc: svc, wallets: wallets, ledger: ledger}
}

func TestWalletService_Grant(t *testing.T) {
	f := newWalletFixture()
	ctx := context.Background()

	balance, err := f.svc.Grant(ctx, ports.GrantRequest{
		AccountID: "acct-1",
		Amount:    5000,
		Kind:      domain.EntryKindPurchase,
		Reason:    "credit pack purchase",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), balance)

	entries := f.ledger.all("acct-1")
	require.Len(t, entries, 1)
	assert.Equal(t, int64(5000), entries[0].Delta)
	assert.Equal(t, domain.EntryKindPurchase, entries[0].Kind)
}

func TestWalletService_Grant_Validation(t *testing.T) {
	f := newWalletFixture()
	ctx := context.Background()

	_, err := f.svc.Grant(ctx, ports.GrantRequest{AccountID: "acct-1", Amount: 0, Kind: domain.EntryKindGrant})
	assertCode(t, err, apperror.CodeValidation)

	_, err = f.svc.Grant(ctx, ports.GrantRequest{AccountID: "acct-1", Amount: -5, Kind: domain.EntryKindGrant})
	assertCode(t, err, apperror.CodeValidation)

	// CONSUME never credits a wallet.
	_, err = f.svc.Grant(ctx, ports.GrantRequest{AccountID: "acct-1", Amount: 10, Kind: domain.EntryKindConsume})
	assertCode(t, err, apperror.CodeValidation)

	_, err = f.svc.Grant(ctx, ports.GrantRequest{AccountID: "", Amount: 10, Kind: domain.EntryKindGrant})
	assertCode(t, err, apperror.CodeValidation)
}

func TestWalletService_Consume(t *testing.T) {
	f := newWalletFixture()
	ctx := context.Background()

	_, err := f.svc.Grant(ctx, ports.GrantRequest{AccountID: "acct-1", Amount: 100, Kind: domain.EntryKindGrant, Reason: "seed"})
	require.NoError(t, err)

	balance, err := f.svc.Consume(ctx, ports.ConsumeRequest{AccountID: "acct-1", Amount: 30, Reason: "agent call"})
	require.NoError(t, err)
	assert.Equal(t, int64(70), balance)

	entries := f.ledger.all("acct-1")
	require.Len(t, entries, 2)
	assert.Equal(t, int64(-30), entries[1].Delta)
	assert.Equal(t, domain.EntryKindConsume, entries[1].Kind)
}

func TestWalletService_Consume_Insufficient(t *testing.T) {
	f := newWalletFixture()
	ctx := context.Background()

	_, err := f.svc.Grant(ctx, ports.GrantRequest{AccountID: "acct-1", Amount: 100, Kind: domain.EntryKindGrant, Reason: "seed"})
	require.NoError(t, err)

	_, err = f.svc.Consume(ctx, ports.ConsumeRequest{AccountID: "acct-1", Amount: 155, Reason: "too big"})
	require.Error(t, err)

	d, ok := apperror.InsufficientCredits(err)
	require.True(t, ok)
	assert.Equal(t, int64(100), d.Available)
	assert.Equal(t, int64(155), d.Required)
	assert.Equal(t, int64(55), d.Shortfall)

	// Nothing changed: balance intact, no new ledger entry.
	balance, err := f.svc.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
	assert.Len(t, f.ledger.all("acct-1"), 1)
}

func TestWalletService_Consume_Concurrent(t *testing.T) {
	f := newWalletFixture()
	ctx := context.Background()

	_, err := f.svc.Grant(ctx, ports.GrantRequest{AccountID: "acct-1", Amount: 100, Kind: domain.EntryKindGrant, Reason: "seed"})
	require.NoError(t, err)

	// Two concurrent consumptions of 80 against 100: exactly one may win.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Consume(ctx, ports.ConsumeRequest{AccountID: "acct-1", Amount: 80, Reason: "race"})
		}(i)
	}
	wg.Wait()

	var succeeded, failed int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if _, ok := apperror.InsufficientCredits(err); ok {
			failed++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	balance, err := f.svc.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(20), balance)
}

func TestWalletService_Adjust(t *testing.T) {
	f := newWalletFixture()
	ctx := context.Background()

	_, err := f.svc.Grant(ctx, ports.GrantRequest{AccountID: "acct-1", Amount: 50, Kind: domain.EntryKindGrant, Reason: "seed"})
	require.NoError(t, err)

	balance, err := f.svc.Adjust(ctx, "acct-1", -20, "support correction")
	require.NoError(t, err)
	assert.Equal(t, int64(30), balance)

	balance, err = f.svc.Adjust(ctx, "acct-1", 10, "goodwill")
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance)

	entries := f.ledger.all("acct-1")
	require.Len(t, entries, 3)
	assert.Equal(t, domain.EntryKindAdjustment, entries[1].Kind)
	assert.Equal(t, int64(-20), entries[1].Delta)
}

func TestWalletService_Adjust_BelowZero(t *testing.T) {
	f := newWalletFixture()
	ctx := context.Background()

	_, err := f.svc.Grant(ctx, ports.GrantRequest{AccountID: "acct-1", Amount: 50, Kind: domain.EntryKindGrant, Reason: "seed"})
	require.NoError(t, err)

	_, err = f.svc.Adjust(ctx, "acct-1", -60, "over-correction")
	_, ok := apperror.InsufficientCredits(err)
	assert.True(t, ok)

	balance, err := f.svc.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)
}

func TestWalletService_Adjust_ZeroRejected(t *testing.T) {
	f := newWalletFixture()

	_, err := f.svc.Adjust(context.Background(), "acct-1", 0, "noop")
	assertCode(t, err, apperror.CodeValidation)
}

func TestWalletService_Balance_LazyCreate(t *testing.T) {
	f := newWalletFixture()
	ctx := context.Background()

	balance, err := f.svc.Balance(ctx, "brand-new")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	// The wallet now exists.
	w, err := f.wallets.GetByAccount(ctx, "brand-new")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, int64(0), w.Balance)
}

func TestWalletService_GetWallet(t *testing.T) {
	f := newWalletFixture()
	ctx := context.Background()

	_, err := f.svc.Grant(ctx, ports.GrantRequest{AccountID: "acct-1", Amount: 100, Kind: domain.EntryKindGrant, Reason: "seed"})
	require.NoError(t, err)
	_, err = f.svc.Consume(ctx, ports.ConsumeRequest{AccountID: "acct-1", Amount: 30, Reason: "call"})
	require.NoError(t, err)

	view, err := f.svc.GetWallet(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", view.AccountID)
	assert.Equal(t, int64(70), view.Balance)
	require.Len(t, view.RecentEntries, 2)
	// Newest first.
	assert.Equal(t, int64(-30), view.RecentEntries[0].Delta)
}

func TestWalletService_ListEntries_LimitCap(t *testing.T) {
	f := newWalletFixture()

	_, err := f.svc.ListEntries(context.Background(), "acct-1", nil, 101)
	assertCode(t, err, apperror.CodeValidation)
}

func TestWalletService_LedgerBalanceConsistency(t *testing.T) {
	f := newWalletFixture()
	ctx := context.Background()

	_, err := f.svc.Grant(ctx, ports.GrantRequest{AccountID: "acct-1", Amount: 500, Kind: domain.EntryKindPurchase, Reason: "pack"})
	require.NoError(t, err)
	_, err = f.svc.Consume(ctx, ports.ConsumeRequest{AccountID: "acct-1", Amount: 120, Reason: "call"})
	require.NoError(t, err)
	_, err = f.svc.Adjust(ctx, "acct-1", -30, "correction")
	require.NoError(t, err)
	_, err = f.svc.Grant(ctx, ports.GrantRequest{AccountID: "acct-1", Amount: 75, Kind: domain.EntryKindRefund, Reason: "refund"})
	require.NoError(t, err)

	balance, err := f.svc.Balance(ctx, "acct-1")
	require.NoError(t, err)

	sum, err := f.ledger.SumDeltas(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, balance, sum, "wallet balance must equal the sum of ledger deltas")
	assert.Equal(t, int64(425), balance)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
