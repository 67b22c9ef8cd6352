package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blackguard-bot/blackguard-economy/internal/config"
	"github.com/blackguard-bot/blackguard-economy/internal/db"
	"github.com/blackguard-bot/blackguard-economy/internal/db/model"
)

// fakeStore is an in-memory DbInterface honoring the adapter contract:
// snapshots are deep copies, mutators run on a scratch copy, ErrSkipUpdate
// leaves the stored document untouched.
type fakeStore struct {
	mu  sync.Mutex
	doc *model.EconomyDocument
}

func (f *fakeStore) Ping(_ context.Context) error {
	return nil
}

func (f *fakeStore) GetEconomyDoc(_ context.Context) (*model.EconomyDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.doc == nil {
		return nil, &db.NotFoundError{Key: model.EconomyDocID, Message: "economy document not found"}
	}
	return f.doc.Clone(), nil
}

func (f *fakeStore) InitEconomyDoc(_ context.Context, seed *model.EconomyDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.doc != nil {
		return &db.DuplicateKeyError{Key: model.EconomyDocID, Message: "economy document already exists"}
	}
	f.doc = seed.Clone()
	return nil
}

func (f *fakeStore) ResetEconomyDoc(_ context.Context, seed *model.EconomyDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := seed.Clone()
	if f.doc != nil {
		next.Version = f.doc.Version + 1
	}
	f.doc = next
	return nil
}

func (f *fakeStore) UpdateEconomyDoc(
	_ context.Context, mutate func(doc *model.EconomyDocument) error,
) (*model.EconomyDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.doc == nil {
		return nil, &db.NotFoundError{Key: model.EconomyDocID, Message: "economy document not found"}
	}

	next := f.doc.Clone()
	if err := mutate(next); err != nil {
		if errors.Is(err, db.ErrSkipUpdate) {
			return f.doc.Clone(), nil
		}
		return nil, err
	}
	next.Version++
	f.doc = next
	return next.Clone(), nil
}

// snapshot returns the stored document for assertions.
func (f *fakeStore) snapshot(t *testing.T) *model.EconomyDocument {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotNil(t, f.doc)
	return f.doc.Clone()
}

func testConfig() *config.Config {
	return &config.Config{
		Db: config.DbConfig{
			Username: "test",
			Password: "test",
			Address:  "mongodb://localhost:27017",
			DbName:   "test",
		},
		Economy: config.EconomyConfig{
			InterestRate:          0.1,
			StorableValueRatio:    0.5,
			InterestTickRate:      time.Hour,
			WithdrawalTime:        60 * time.Millisecond,
			CurrencyEmoji:         ":coin:",
			InitialCurrencyAmount: 100,
		},
		Metrics: config.MetricsConfig{
			Host: "0.0.0.0",
			Port: 2112,
		},
	}
}

// newTestService returns a service over a seeded in-memory store. The
// interest poller is not started; tests drive ticks directly.
func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()

	store := &fakeStore{}
	svc := NewService(testConfig(), store)
	require.NoError(t, svc.ensureEconomyDoc(t.Context()))
	t.Cleanup(svc.withdrawals.removeAll)

	return svc, store
}

// createWalletWith seeds a wallet with explicit balances.
func createWalletWith(t *testing.T, store *fakeStore, userID string, value, bank int64) {
	t.Helper()

	_, err := store.UpdateEconomyDoc(t.Context(), func(doc *model.EconomyDocument) error {
		doc.Wallets[userID] = model.Wallet{Value: value, Bank: bank}
		return nil
	})
	require.NoError(t, err)
}
