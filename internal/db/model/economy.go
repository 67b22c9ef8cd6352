package model

import (
	"time"

	"github.com/blackguard-bot/blackguard-economy/internal/config"
)

const (
	EconomyCollection = "economy"

	// EconomyDocID is the well-known id of the single economy document.
	// All wallets live inside this one record; it is the unit of atomicity
	// for every balance mutation.
	EconomyDocID = "economy"
)

// Wallet holds a single user's balances. Value is the liquid balance,
// Bank is the savings balance earning interest. Both are never negative.
type Wallet struct {
	Value int64 `bson:"value"`
	Bank  int64 `bson:"bank"`
}

// BankConfig are the bank parameters stored inside the economy document.
// Durations are persisted as milliseconds to keep the document layout
// stable across clients.
type BankConfig struct {
	InterestRate       float64 `bson:"interest_rate"`
	StorableValueRatio float64 `bson:"storable_value_ratio"`
	InterestTickRateMs int64   `bson:"interest_tick_rate_ms"`
	WithdrawalTimeMs   int64   `bson:"withdrawal_time_ms"`
	CurrencyEmoji      string  `bson:"currency_emoji"`
}

func (c BankConfig) InterestTickRate() time.Duration {
	return time.Duration(c.InterestTickRateMs) * time.Millisecond
}

func (c BankConfig) WithdrawalTime() time.Duration {
	return time.Duration(c.WithdrawalTimeMs) * time.Millisecond
}

type WalletConfig struct {
	InitialCurrencyAmount int64 `bson:"initial_currency_amount"`
}

type EconomyConfig struct {
	Bank   BankConfig   `bson:"bank"`
	Wallet WalletConfig `bson:"wallet"`
}

// PendingWithdrawal is the persisted shadow of an in-memory withdrawal
// timer. On startup the service re-arms entries whose commit time is still
// in the future and immediately commits the overdue ones.
type PendingWithdrawal struct {
	Amount   int64     `bson:"amount"`
	CommitAt time.Time `bson:"commit_at"`
}

// EconomyDocument is the single shared record holding the bank
// configuration and every user wallet. Version is the optimistic
// concurrency stamp: a mutation only commits if the version it read is
// still the one stored, otherwise the whole read-mutate-write cycle
// retries.
type EconomyDocument struct {
	ID                 string                       `bson:"_id"`
	Version            int64                        `bson:"version"`
	Config             EconomyConfig                `bson:"config"`
	Wallets            map[string]Wallet            `bson:"wallets"`
	PendingWithdrawals map[string]PendingWithdrawal `bson:"pending_withdrawals"`
}

// NewEconomyDocument builds the initial seed document for the given config.
func NewEconomyDocument(cfg EconomyConfig) *EconomyDocument {
	return &EconomyDocument{
		ID:                 EconomyDocID,
		Version:            0,
		Config:             cfg,
		Wallets:            make(map[string]Wallet),
		PendingWithdrawals: make(map[string]PendingWithdrawal),
	}
}

// NewSeedDocument builds the initial economy document from the configured
// seed. The file config carries Durations; the document stores
// milliseconds.
func NewSeedDocument(cfg config.EconomyConfig) *EconomyDocument {
	return NewEconomyDocument(EconomyConfig{
		Bank: BankConfig{
			InterestRate:       cfg.InterestRate,
			StorableValueRatio: cfg.StorableValueRatio,
			InterestTickRateMs: cfg.InterestTickRate.Milliseconds(),
			WithdrawalTimeMs:   cfg.WithdrawalTime.Milliseconds(),
			CurrencyEmoji:      cfg.CurrencyEmoji,
		},
		Wallet: WalletConfig{
			InitialCurrencyAmount: cfg.InitialCurrencyAmount,
		},
	})
}

// Clone deep-copies the document so a mutator can work on a scratch copy
// without touching the snapshot it was derived from.
func (d *EconomyDocument) Clone() *EconomyDocument {
	clone := *d
	clone.Wallets = make(map[string]Wallet, len(d.Wallets))
	for id, w := range d.Wallets {
		clone.Wallets[id] = w
	}
	clone.PendingWithdrawals = make(map[string]PendingWithdrawal, len(d.PendingWithdrawals))
	for id, pw := range d.PendingWithdrawals {
		clone.PendingWithdrawals[id] = pw
	}
	return &clone
}
