package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackguard-bot/blackguard-economy/internal/db/model"
	"github.com/blackguard-bot/blackguard-economy/internal/types"
	"github.com/blackguard-bot/blackguard-economy/pkg"
)

func TestDepositCurrency(t *testing.T) {
	// storable value ratio is 0.5 in the test config
	tests := []struct {
		name          string
		value         int64
		bank          int64
		rawAmount     string
		expectedCode  types.Code
		expectedMoved int64
	}{
		{
			name:         "invalid input",
			value:        100,
			rawAmount:    "lots",
			expectedCode: types.CodeInvalidInput,
		},
		{
			name:         "non-positive amount",
			value:        100,
			rawAmount:    "-5",
			expectedCode: types.CodePositiveValueNeeded,
		},
		{
			name:          "half of net worth fits exactly",
			value:         100,
			rawAmount:     "50",
			expectedCode:  types.CodeSuccess,
			expectedMoved: 50,
		},
		{
			name:         "more than liquid balance",
			value:        10,
			rawAmount:    "20",
			expectedCode: types.CodeInsufficientFunds,
		},
		{
			name:         "over the storable cap",
			value:        100,
			bank:         30,
			rawAmount:    "40",
			expectedCode: types.CodeValueTooHigh,
		},
		{
			name:          "max keyword deposits up to the cap",
			value:         100,
			rawAmount:     "max",
			expectedCode:  types.CodeSuccess,
			expectedMoved: 50,
		},
		{
			name:         "max keyword with empty wallet",
			value:        0,
			rawAmount:    "max",
			expectedCode: types.CodeInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)
			ctx := t.Context()
			createWalletWith(t, store, "alice", tt.value, tt.bank)

			res, err := svc.DepositCurrency(ctx, "alice", tt.rawAmount)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCode, res.Code)

			doc := store.snapshot(t)
			wallet := doc.Wallets["alice"]

			if tt.expectedCode != types.CodeSuccess {
				// failed deposits leave the wallet untouched
				assert.Equal(t, tt.value, wallet.Value)
				assert.Equal(t, tt.bank, wallet.Bank)
				return
			}

			assert.Equal(t, tt.expectedMoved, res.Amount)
			assert.Equal(t, tt.value-tt.expectedMoved, wallet.Value)
			assert.Equal(t, tt.bank+tt.expectedMoved, wallet.Bank)

			// bank never exceeds round((value+bank) * ratio)
			maxStorable := (wallet.Value + wallet.Bank) / 2
			assert.LessOrEqual(t, wallet.Bank, maxStorable)
		})
	}
}

func TestDepositCurrency_MissingWallet(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.DepositCurrency(t.Context(), "nobody", "10")
	require.NoError(t, err)
	assert.Equal(t, types.CodeDoesNotExist, res.Code)
}

func TestDepositCurrency_ReportsCap(t *testing.T) {
	svc, store := newTestService(t)
	createWalletWith(t, store, "alice", 100, 30)

	res, err := svc.DepositCurrency(t.Context(), "alice", "40")
	require.NoError(t, err)
	assert.Equal(t, types.CodeValueTooHigh, res.Code)
	// cap = round((100+30) * 0.5)
	assert.EqualValues(t, 65, res.MaxStorable)
}

func TestWithdrawCurrency_Validation(t *testing.T) {
	svc, store := newTestService(t)
	ctx := t.Context()
	createWalletWith(t, store, "alice", 0, 50)

	res, err := svc.WithdrawCurrency(ctx, "alice", pkg.Ptr[int64](0))
	require.NoError(t, err)
	assert.Equal(t, types.CodePositiveValueNeeded, res.Code)

	res, err = svc.WithdrawCurrency(ctx, "nobody", pkg.Ptr[int64](10))
	require.NoError(t, err)
	assert.Equal(t, types.CodeDoesNotExist, res.Code)

	res, err = svc.WithdrawCurrency(ctx, "alice", pkg.Ptr[int64](60))
	require.NoError(t, err)
	assert.Equal(t, types.CodeInsufficientFunds, res.Code)
}

func TestWithdrawCurrency_StatusQuery(t *testing.T) {
	svc, store := newTestService(t)
	ctx := t.Context()
	createWalletWith(t, store, "alice", 0, 50)

	res, err := svc.WithdrawCurrency(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, types.CodeNoExistingWithdrawal, res.Code)

	scheduled, err := svc.WithdrawCurrency(ctx, "alice", pkg.Ptr[int64](40))
	require.NoError(t, err)
	require.Equal(t, types.CodeSuccess, scheduled.Code)
	assert.False(t, scheduled.CommitsAt.IsZero())

	res, err = svc.WithdrawCurrency(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, types.CodeExistingWithdrawal, res.Code)
	assert.EqualValues(t, 40, res.Amount)
	assert.Equal(t, scheduled.CommitsAt, res.CommitsAt)
}

// slowStore delays writes so commit timers can race them.
type slowStore struct {
	*fakeStore
	delay time.Duration
}

func (s *slowStore) UpdateEconomyDoc(
	ctx context.Context, mutate func(doc *model.EconomyDocument) error,
) (*model.EconomyDocument, error) {
	time.Sleep(s.delay)
	return s.fakeStore.UpdateEconomyDoc(ctx, mutate)
}

// a timer that fires before the scheduling write lands must not leave a
// stale pending entry behind for the next restart to commit again
func TestWithdrawCurrency_SlowWriteLeavesNoStaleEntry(t *testing.T) {
	store := &slowStore{fakeStore: &fakeStore{}, delay: 20 * time.Millisecond}
	cfg := testConfig()
	cfg.Economy.WithdrawalTime = time.Millisecond
	svc := NewService(cfg, store)
	require.NoError(t, svc.ensureEconomyDoc(t.Context()))
	t.Cleanup(svc.withdrawals.removeAll)

	createWalletWith(t, store.fakeStore, "alice", 0, 80)

	res, err := svc.WithdrawCurrency(t.Context(), "alice", pkg.Ptr[int64](50))
	require.NoError(t, err)
	require.Equal(t, types.CodeSuccess, res.Code)

	require.Eventually(t, func() bool {
		doc := store.snapshot(t)
		wallet := doc.Wallets["alice"]
		return wallet.Value == 50 && wallet.Bank == 30
	}, time.Second, 5*time.Millisecond)

	doc := store.snapshot(t)
	assert.Empty(t, doc.PendingWithdrawals)
}

func TestWithdrawCurrency_CommitsAfterDelay(t *testing.T) {
	svc, store := newTestService(t)
	ctx := t.Context()
	createWalletWith(t, store, "alice", 0, 50)

	res, err := svc.WithdrawCurrency(ctx, "alice", pkg.Ptr[int64](40))
	require.NoError(t, err)
	require.Equal(t, types.CodeSuccess, res.Code)

	// the pending entry is persisted for restart reconciliation
	doc := store.snapshot(t)
	require.Contains(t, doc.PendingWithdrawals, "alice")
	assert.EqualValues(t, 40, doc.PendingWithdrawals["alice"].Amount)

	require.Eventually(t, func() bool {
		wallet := store.snapshot(t).Wallets["alice"]
		return wallet.Value == 40 && wallet.Bank == 10
	}, time.Second, 5*time.Millisecond)

	// pending entry cleared, registry back to NONE
	doc = store.snapshot(t)
	assert.NotContains(t, doc.PendingWithdrawals, "alice")
	status, err := svc.WithdrawCurrency(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, types.CodeNoExistingWithdrawal, status.Code)
}

func TestWithdrawCurrency_AmountUpdateKeepsTimer(t *testing.T) {
	svc, store := newTestService(t)
	ctx := t.Context()
	createWalletWith(t, store, "alice", 0, 100)

	first, err := svc.WithdrawCurrency(ctx, "alice", pkg.Ptr[int64](40))
	require.NoError(t, err)
	require.Equal(t, types.CodeSuccess, first.Code)

	updated, err := svc.WithdrawCurrency(ctx, "alice", pkg.Ptr[int64](60))
	require.NoError(t, err)
	assert.Equal(t, types.CodeWithdrawalAmountUpdated, updated.Code)
	assert.EqualValues(t, 40, updated.PreviousAmount)
	assert.EqualValues(t, 60, updated.Amount)

	// only one entry exists and the original commit time stands
	status, err := svc.WithdrawCurrency(ctx, "alice", nil)
	require.NoError(t, err)
	require.Equal(t, types.CodeExistingWithdrawal, status.Code)
	assert.Equal(t, first.CommitsAt, status.CommitsAt)
	assert.EqualValues(t, 60, status.Amount)

	// the updated amount commits, not the original one
	require.Eventually(t, func() bool {
		wallet := store.snapshot(t).Wallets["alice"]
		return wallet.Value == 60 && wallet.Bank == 40
	}, time.Second, 5*time.Millisecond)
}

func TestWithdrawCurrency_LapsesWhenBankDrained(t *testing.T) {
	svc, store := newTestService(t)
	ctx := t.Context()
	createWalletWith(t, store, "alice", 0, 50)

	res, err := svc.WithdrawCurrency(ctx, "alice", pkg.Ptr[int64](40))
	require.NoError(t, err)
	require.Equal(t, types.CodeSuccess, res.Code)

	// drain the bank before the timer fires
	mod, err := svc.ModifyCurrency(ctx, "alice", -50, types.LocationBank)
	require.NoError(t, err)
	require.Equal(t, types.CodeSuccess, mod.Code)

	// the withdrawal lapses silently: no funds move, pending entry cleared
	require.Eventually(t, func() bool {
		doc := store.snapshot(t)
		_, pending := doc.PendingWithdrawals["alice"]
		return !pending
	}, time.Second, 5*time.Millisecond)

	wallet := store.snapshot(t).Wallets["alice"]
	assert.Zero(t, wallet.Value)
	assert.Zero(t, wallet.Bank)
}

func TestSetBankConfig(t *testing.T) {
	svc, store := newTestService(t)
	ctx := t.Context()
	t.Cleanup(svc.StopInterestAccrual)

	code, err := svc.SetBankConfig(ctx, model.BankConfig{
		InterestRate:       0.2,
		StorableValueRatio: 1.5,
		InterestTickRateMs: 1000,
		WithdrawalTimeMs:   1000,
	})
	require.NoError(t, err)
	assert.Equal(t, types.CodeInvalidInput, code)

	next := model.BankConfig{
		InterestRate:       0.2,
		StorableValueRatio: 0.8,
		InterestTickRateMs: time.Hour.Milliseconds(),
		WithdrawalTimeMs:   time.Minute.Milliseconds(),
		CurrencyEmoji:      ":gem:",
	}
	code, err = svc.SetBankConfig(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, types.CodeSuccess, code)
	assert.Equal(t, next, store.snapshot(t).Config.Bank)
}

func TestResetEconomy(t *testing.T) {
	svc, store := newTestService(t)
	ctx := t.Context()
	t.Cleanup(svc.StopInterestAccrual)
	createWalletWith(t, store, "alice", 10, 90)

	_, err := svc.WithdrawCurrency(ctx, "alice", pkg.Ptr[int64](40))
	require.NoError(t, err)

	code, err := svc.ResetEconomy(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.CodeSuccess, code)

	doc := store.snapshot(t)
	assert.Empty(t, doc.Wallets)
	assert.Empty(t, doc.PendingWithdrawals)
	assert.Zero(t, svc.withdrawals.count())
}
