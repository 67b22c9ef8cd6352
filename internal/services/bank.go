package services

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/blackguard-bot/blackguard-economy/internal/db"
	"github.com/blackguard-bot/blackguard-economy/internal/db/model"
	"github.com/blackguard-bot/blackguard-economy/internal/observability/metrics"
	"github.com/blackguard-bot/blackguard-economy/internal/observability/tracing"
	"github.com/blackguard-bot/blackguard-economy/internal/types"
)

// maxDepositKeyword asks the engine to deposit as much as the storable
// value ratio permits.
const maxDepositKeyword = "max"

// DepositCurrency moves currency from the liquid balance into the bank.
// rawAmount is either an integer or the max keyword. The deposit cap is
// round((value+bank) * storableValueRatio); a deposit that would push the
// bank past the cap fails with the cap reported.
func (s *Service) DepositCurrency(
	ctx context.Context, userID string, rawAmount string,
) (types.DepositResult, error) {
	raw := strings.ToLower(strings.TrimSpace(rawAmount))
	isMax := raw == maxDepositKeyword

	var requested int64
	if !isMax {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			recordOp("DepositCurrency", types.CodeInvalidInput)
			return types.DepositResult{Code: types.CodeInvalidInput}, nil
		}
		if parsed <= 0 {
			recordOp("DepositCurrency", types.CodePositiveValueNeeded)
			return types.DepositResult{Code: types.CodePositiveValueNeeded}, nil
		}
		requested = parsed
	}

	var res types.DepositResult

	_, err := s.db.UpdateEconomyDoc(ctx, func(doc *model.EconomyDocument) error {
		wallet, exists := doc.Wallets[userID]
		if !exists {
			res = types.DepositResult{Code: types.CodeDoesNotExist}
			return db.ErrSkipUpdate
		}

		total := wallet.Value + wallet.Bank
		highestAllowed := int64(math.Round(float64(total) * doc.Config.Bank.StorableValueRatio))

		amount := requested
		if isMax {
			amount = clampToZero(wallet.Value - highestAllowed)
		}

		switch {
		case wallet.Value == 0 || wallet.Value-amount < 0:
			res = types.DepositResult{Code: types.CodeInsufficientFunds}
			return db.ErrSkipUpdate
		case wallet.Bank+amount > highestAllowed:
			res = types.DepositResult{Code: types.CodeValueTooHigh, MaxStorable: highestAllowed}
			return db.ErrSkipUpdate
		}

		wallet.Value -= amount
		wallet.Bank += amount
		doc.Wallets[userID] = wallet
		res = types.DepositResult{Code: types.CodeSuccess, Amount: amount}
		return nil
	})
	if err != nil {
		return types.DepositResult{}, err
	}

	if res.Code == types.CodeSuccess {
		log.Ctx(ctx).Info().
			Str("user_id", userID).
			Int64("amount", res.Amount).
			Msg("currency deposited to bank")
	}
	recordOp("DepositCurrency", res.Code)
	return res, nil
}

// WithdrawCurrency schedules a delayed transfer from the bank to the
// liquid balance. A nil amount is a status query for the active
// withdrawal. A call while a withdrawal is active only replaces its
// amount; the original commit time stands.
//
// The wallet read here is advisory: the balance is re-checked inside the
// commit upsert when the timer fires, and the withdrawal lapses silently
// if it no longer holds.
func (s *Service) WithdrawCurrency(
	ctx context.Context, userID string, amount *int64,
) (types.WithdrawalResult, error) {
	if amount == nil {
		res := types.WithdrawalResult{Code: types.CodeNoExistingWithdrawal}
		if snapshot, ok := s.withdrawals.snapshot(userID); ok && snapshot.Active {
			res = types.WithdrawalResult{
				Code:      types.CodeExistingWithdrawal,
				Amount:    snapshot.Amount,
				CommitsAt: snapshot.CommitsAt,
			}
		}
		recordOp("WithdrawCurrency", res.Code)
		return res, nil
	}

	if *amount <= 0 {
		recordOp("WithdrawCurrency", types.CodePositiveValueNeeded)
		return types.WithdrawalResult{Code: types.CodePositiveValueNeeded}, nil
	}

	doc, err := s.db.GetEconomyDoc(ctx)
	if err != nil {
		return types.WithdrawalResult{}, err
	}

	wallet, exists := doc.Wallets[userID]
	switch {
	case !exists:
		recordOp("WithdrawCurrency", types.CodeDoesNotExist)
		return types.WithdrawalResult{Code: types.CodeDoesNotExist}, nil
	case wallet.Bank-*amount < 0:
		recordOp("WithdrawCurrency", types.CodeInsufficientFunds)
		return types.WithdrawalResult{Code: types.CodeInsufficientFunds}, nil
	}

	commitsAt := time.Now().Add(doc.Config.Bank.WithdrawalTime())

	// persist before arming: once the timer runs its commit may fire
	// before a later write lands, leaving a stale entry behind for the
	// next restart to commit again
	snapshot, ok := s.withdrawals.snapshot(userID)
	updating := ok && snapshot.Active
	if err := s.persistPendingWithdrawal(ctx, userID, *amount, !updating, commitsAt); err != nil {
		return types.WithdrawalResult{}, err
	}

	previousAmount, armed := s.withdrawals.arm(userID, *amount, commitsAt, func() {
		s.fireWithdrawal(userID)
	})
	metrics.RecordActiveWithdrawals(s.withdrawals.count())

	if armed == updating {
		// the registry moved between the persist and the arm; write the
		// entry again with the state the registry settled on
		if err := s.persistPendingWithdrawal(ctx, userID, *amount, armed, commitsAt); err != nil {
			return types.WithdrawalResult{}, err
		}
	}

	if !armed {
		log.Ctx(ctx).Info().
			Str("user_id", userID).
			Int64("previous_amount", previousAmount).
			Int64("amount", *amount).
			Msg("pending withdrawal amount updated")
		recordOp("WithdrawCurrency", types.CodeWithdrawalAmountUpdated)
		return types.WithdrawalResult{
			Code:           types.CodeWithdrawalAmountUpdated,
			Amount:         *amount,
			PreviousAmount: previousAmount,
		}, nil
	}

	log.Ctx(ctx).Info().
		Str("user_id", userID).
		Int64("amount", *amount).
		Time("commits_at", commitsAt).
		Msg("withdrawal scheduled")
	recordOp("WithdrawCurrency", types.CodeSuccess)
	return types.WithdrawalResult{
		Code:      types.CodeSuccess,
		Amount:    *amount,
		CommitsAt: commitsAt,
	}, nil
}

// persistPendingWithdrawal mirrors the registry entry into the document so
// a restarted process can re-arm or commit it. On an amount update the
// stored commit time is kept.
func (s *Service) persistPendingWithdrawal(
	ctx context.Context, userID string, amount int64, armed bool, commitsAt time.Time,
) error {
	_, err := s.db.UpdateEconomyDoc(ctx, func(doc *model.EconomyDocument) error {
		pending, exists := doc.PendingWithdrawals[userID]
		if !armed && exists {
			pending.Amount = amount
			doc.PendingWithdrawals[userID] = pending
			return nil
		}
		doc.PendingWithdrawals[userID] = model.PendingWithdrawal{
			Amount:   amount,
			CommitAt: commitsAt,
		}
		return nil
	})
	return err
}

// fireWithdrawal runs on the withdrawal timer goroutine. The registry
// entry is deactivated before the commit upsert starts, so status queries
// arriving during the commit already see no active withdrawal.
func (s *Service) fireWithdrawal(userID string) {
	ctx := tracing.NewTraceContext()

	amount, ok := s.withdrawals.deactivate(userID)
	if !ok {
		return
	}

	if err := s.commitWithdrawal(ctx, userID, amount); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("user_id", userID).
			Int64("amount", amount).
			Msg("failed to commit withdrawal")
	}

	s.withdrawals.remove(userID)
	metrics.RecordActiveWithdrawals(s.withdrawals.count())
}

// commitWithdrawal moves the pending amount from bank to liquid value,
// re-checking the balance at fire time. If the bank no longer covers the
// amount the withdrawal lapses silently: no mutation, no error surfaced.
// The persisted pending entry is cleared either way.
func (s *Service) commitWithdrawal(ctx context.Context, userID string, amount int64) error {
	lapsed := false

	_, err := s.db.UpdateEconomyDoc(ctx, func(doc *model.EconomyDocument) error {
		delete(doc.PendingWithdrawals, userID)

		wallet, exists := doc.Wallets[userID]
		if !exists || wallet.Bank-amount < 0 {
			lapsed = true
			return nil
		}
		lapsed = false

		wallet.Bank -= amount
		wallet.Value += amount
		doc.Wallets[userID] = wallet
		return nil
	})
	if err != nil {
		return err
	}

	if lapsed {
		metrics.IncLapsedWithdrawals()
		log.Ctx(ctx).Warn().
			Str("user_id", userID).
			Int64("amount", amount).
			Msg("withdrawal lapsed, bank balance no longer covers it")
		return nil
	}

	log.Ctx(ctx).Info().
		Str("user_id", userID).
		Int64("amount", amount).
		Msg("withdrawal committed")
	return nil
}

// SetBankConfig persists new bank parameters and restarts the interest
// accrual loop with the new tick rate.
func (s *Service) SetBankConfig(ctx context.Context, bank model.BankConfig) (types.Code, error) {
	if bank.InterestRate < 0 ||
		bank.StorableValueRatio < 0 || bank.StorableValueRatio > 1 ||
		bank.InterestTickRateMs <= 0 ||
		bank.WithdrawalTimeMs <= 0 {
		recordOp("SetBankConfig", types.CodeInvalidInput)
		return types.CodeInvalidInput, nil
	}

	_, err := s.db.UpdateEconomyDoc(ctx, func(doc *model.EconomyDocument) error {
		doc.Config.Bank = bank
		return nil
	})
	if err != nil {
		return "", err
	}

	s.restartInterestAccrual(ctx, bank.InterestTickRate())

	log.Ctx(ctx).Info().
		Float64("interest_rate", bank.InterestRate).
		Dur("interest_tick_rate", bank.InterestTickRate()).
		Dur("withdrawal_time", bank.WithdrawalTime()).
		Msg("bank config updated")
	recordOp("SetBankConfig", types.CodeSuccess)
	return types.CodeSuccess, nil
}

// ResetEconomy replaces the economy document with the configured seed,
// dropping every wallet and pending withdrawal.
func (s *Service) ResetEconomy(ctx context.Context) (types.Code, error) {
	seed := model.NewSeedDocument(s.cfg.Economy)
	if err := s.db.ResetEconomyDoc(ctx, seed); err != nil {
		return "", err
	}

	s.withdrawals.removeAll()
	metrics.RecordActiveWithdrawals(0)
	s.restartInterestAccrual(ctx, seed.Config.Bank.InterestTickRate())

	log.Ctx(ctx).Info().Msg("economy document reset to seed")
	recordOp("ResetEconomy", types.CodeSuccess)
	return types.CodeSuccess, nil
}
