package types

import (
	"time"

	"github.com/blackguard-bot/blackguard-economy/internal/db/model"
)

// Code is the outcome of an economy engine operation. Business failures
// (missing wallet, insufficient funds, ...) are reported through codes,
// never through Go errors; errors are reserved for infrastructure faults.
type Code string

const (
	CodeSuccess             Code = "SUCCESS"
	CodeAlreadyExists       Code = "ALREADY_EXISTS"
	CodeDoesNotExist        Code = "DOES_NOT_EXIST"
	CodePositiveValueNeeded Code = "POSITIVE_VALUE_NEEDED"
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeValueTooHigh        Code = "VALUE_TOO_HIGH"

	CodeSameUser          Code = "SAME_USER"
	CodeNoFromUser        Code = "NO_FROM_USER"
	CodeNoToUser          Code = "NO_TO_USER"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"

	CodeExistingWithdrawal      Code = "EXISTING_WITHDRAWAL"
	CodeNoExistingWithdrawal    Code = "NO_EXISTING_WITHDRAWAL"
	CodeWithdrawalAmountUpdated Code = "WITHDRAWAL_AMOUNT_UPDATED"
)

func (c Code) String() string {
	return string(c)
}

// BalanceLocation selects which wallet balance a modification targets.
type BalanceLocation string

const (
	LocationValue BalanceLocation = "value"
	LocationBank  BalanceLocation = "bank"
)

func (l BalanceLocation) Valid() bool {
	return l == LocationValue || l == LocationBank
}

// WalletResult carries a wallet snapshot for GetWallet and CreateWallet.
type WalletResult struct {
	Code   Code
	Wallet *model.Wallet
}

// WalletsResult carries the full wallet mapping snapshot.
type WalletsResult struct {
	Code    Code
	Wallets map[string]model.Wallet
}

type TransferResult struct {
	Code Code
}

type DeleteResult struct {
	Code Code
}

// DepositResult reports the amount actually moved into the bank; on a
// VALUE_TOO_HIGH failure MaxStorable carries the deposit cap instead.
type DepositResult struct {
	Code        Code
	Amount      int64
	MaxStorable int64
}

// WithdrawalResult reports a scheduled or queried withdrawal. CommitsAt is
// set on SUCCESS and EXISTING_WITHDRAWAL; PreviousAmount is set on
// WITHDRAWAL_AMOUNT_UPDATED.
type WithdrawalResult struct {
	Code           Code
	Amount         int64
	PreviousAmount int64
	CommitsAt      time.Time
}

// ModifyResult reports the balance resulting from a signed modification.
type ModifyResult struct {
	Code       Code
	NewBalance int64
}

type BulkModifyResult struct {
	Code Code
	// Skipped lists user ids whose wallet was missing; their
	// modifications were dropped while the rest of the batch applied.
	Skipped []string
}

// BalanceModification is one entry of a bulk modification batch.
type BalanceModification struct {
	UserID string
	Delta  int64
}
