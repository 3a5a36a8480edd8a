package service

import (
	"context"
	"testing"

	"credit-ledger/internal/core/domain"
	"credit-ledger/internal/core/ports"
	"credit-ledger/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ingestFixture struct {
	svc       *PaymentIngestServiceImpl
	walletSvc *WalletServiceImpl
	ledger    *fakeLedgerRepo
	events    *fakePaymentEventRepo
}

func newIngestFixture() *ingestFixture {
	wallets := newFakeWalletRepo()
	ledger := newFakeLedgerRepo()
	events := newFakePaymentEventRepo()
	transactor := newFakeTransactor()
	return &ingestFixture{
		svc:       NewPaymentIngestService(events, wallets, ledger, transactor, zerolog.Nop()),
		walletSvc: NewWalletService(wallets, ledger, transactor, zerolog.Nop()),
		ledger:    ledger,
		events:    events,
	}
}

func TestPaymentIngest_AppliesOnce(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	result, err := f.svc.Ingest(ctx, ports.IngestRequest{
		EventID:   "evt_abc123",
		AccountID: "acct-1",
		Amount:    5000,
		Reason:    "credit pack purchase",
	})
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, int64(5000), result.NewBalance)

	entries := f.ledger.all("acct-1")
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EntryKindPurchase, entries[0].Kind)
	assert.Equal(t, int64(5000), entries[0].Delta)
	require.NotNil(t, entries[0].ExternalEventID)
	assert.Equal(t, "evt_abc123", *entries[0].ExternalEventID)
}

func TestPaymentIngest_DuplicateDelivery(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	req := ports.IngestRequest{
		EventID:   "evt_abc123",
		AccountID: "acct-1",
		Amount:    5000,
		Reason:    "credit pack purchase",
	}
	first, err := f.svc.Ingest(ctx, req)
	require.NoError(t, err)
	require.True(t, first.Applied)

	// The gateway redelivers. No error, no second credit.
	second, err := f.svc.Ingest(ctx, req)
	require.NoError(t, err)
	assert.False(t, second.Applied)

	balance, err := f.walletSvc.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), balance)
	assert.Len(t, f.ledger.all("acct-1"), 1)
}

func TestPaymentIngest_CreatesWalletLazily(t *testing.T) {
	f := newIngestFixture()

	result, err := f.svc.Ingest(context.Background(), ports.IngestRequest{
		EventID:   "evt_first",
		AccountID: "never-seen-before",
		Amount:    100,
		Reason:    "first purchase",
	})
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, int64(100), result.NewBalance)
}

func TestPaymentIngest_Validation(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, ports.IngestRequest{EventID: "", AccountID: "acct-1", Amount: 100})
	assertCode(t, err, apperror.CodeValidation)

	_, err = f.svc.Ingest(ctx, ports.IngestRequest{EventID: "   ", AccountID: "acct-1", Amount: 100})
	assertCode(t, err, apperror.CodeValidation)

	_, err = f.svc.Ingest(ctx, ports.IngestRequest{EventID: "evt_1", AccountID: "", Amount: 100})
	assertCode(t, err, apperror.CodeValidation)

	_, err = f.svc.Ingest(ctx, ports.IngestRequest{EventID: "evt_1", AccountID: "acct-1", Amount: 0})
	assertCode(t, err, apperror.CodeValidation)

	_, err = f.svc.Ingest(ctx, ports.IngestRequest{EventID: "evt_1", AccountID: "acct-1", Amount: -50})
	assertCode(t, err, apperror.CodeValidation)
}
