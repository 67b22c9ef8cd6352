package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackguard-bot/blackguard-economy/internal/config"
)

func TestNewSeedDocument(t *testing.T) {
	cfg := config.EconomyConfig{
		InterestRate:          0.01,
		StorableValueRatio:    0.5,
		InterestTickRate:      10 * time.Minute,
		WithdrawalTime:        5 * time.Minute,
		CurrencyEmoji:         ":coin:",
		InitialCurrencyAmount: 100,
	}

	seed := NewSeedDocument(cfg)

	assert.Equal(t, EconomyDocID, seed.ID)
	assert.Zero(t, seed.Version)
	assert.Empty(t, seed.Wallets)
	assert.Empty(t, seed.PendingWithdrawals)

	assert.Equal(t, cfg.InterestRate, seed.Config.Bank.InterestRate)
	assert.Equal(t, cfg.StorableValueRatio, seed.Config.Bank.StorableValueRatio)
	assert.Equal(t, cfg.InterestTickRate, seed.Config.Bank.InterestTickRate())
	assert.Equal(t, cfg.WithdrawalTime, seed.Config.Bank.WithdrawalTime())
	assert.Equal(t, cfg.CurrencyEmoji, seed.Config.Bank.CurrencyEmoji)
	assert.Equal(t, cfg.InitialCurrencyAmount, seed.Config.Wallet.InitialCurrencyAmount)
}

func TestEconomyDocument_Clone(t *testing.T) {
	doc := NewEconomyDocument(EconomyConfig{})
	doc.Wallets["alice"] = Wallet{Value: 10, Bank: 5}
	doc.PendingWithdrawals["alice"] = PendingWithdrawal{
		Amount:   5,
		CommitAt: time.Now(),
	}

	clone := doc.Clone()
	require.Equal(t, doc, clone)

	clone.Wallets["alice"] = Wallet{Value: 999}
	delete(clone.PendingWithdrawals, "alice")

	assert.EqualValues(t, 10, doc.Wallets["alice"].Value)
	assert.Contains(t, doc.PendingWithdrawals, "alice")
}
