package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/blackguard-bot/blackguard-economy/internal/db"
	"github.com/blackguard-bot/blackguard-economy/internal/db/model"
	"github.com/blackguard-bot/blackguard-economy/internal/types"
)

// CreateWallet inserts a wallet seeded with the configured initial amount.
func (s *Service) CreateWallet(ctx context.Context, userID string) (types.WalletResult, error) {
	var res types.WalletResult

	_, err := s.db.UpdateEconomyDoc(ctx, func(doc *model.EconomyDocument) error {
		if _, exists := doc.Wallets[userID]; exists {
			res = types.WalletResult{Code: types.CodeAlreadyExists}
			return db.ErrSkipUpdate
		}

		wallet := model.Wallet{Value: doc.Config.Wallet.InitialCurrencyAmount}
		doc.Wallets[userID] = wallet
		res = types.WalletResult{Code: types.CodeSuccess, Wallet: &wallet}
		return nil
	})
	if err != nil {
		return types.WalletResult{}, err
	}

	if res.Code == types.CodeSuccess {
		log.Ctx(ctx).Info().Str("user_id", userID).Msg("wallet created")
	}
	recordOp("CreateWallet", res.Code)
	return res, nil
}

// GetWallet returns a read-only snapshot of the user's wallet.
func (s *Service) GetWallet(ctx context.Context, userID string) (types.WalletResult, error) {
	doc, err := s.db.GetEconomyDoc(ctx)
	if err != nil {
		return types.WalletResult{}, err
	}

	res := types.WalletResult{Code: types.CodeDoesNotExist}
	if wallet, exists := doc.Wallets[userID]; exists {
		res = types.WalletResult{Code: types.CodeSuccess, Wallet: &wallet}
	}

	recordOp("GetWallet", res.Code)
	return res, nil
}

// GetAllWallets returns a read-only snapshot of the full wallet mapping.
func (s *Service) GetAllWallets(ctx context.Context) (types.WalletsResult, error) {
	doc, err := s.db.GetEconomyDoc(ctx)
	if err != nil {
		return types.WalletsResult{}, err
	}

	recordOp("GetAllWallets", types.CodeSuccess)
	return types.WalletsResult{Code: types.CodeSuccess, Wallets: doc.Wallets}, nil
}

func (s *Service) DeleteWallet(ctx context.Context, userID string) (types.DeleteResult, error) {
	var res types.DeleteResult

	_, err := s.db.UpdateEconomyDoc(ctx, func(doc *model.EconomyDocument) error {
		if _, exists := doc.Wallets[userID]; !exists {
			res = types.DeleteResult{Code: types.CodeDoesNotExist}
			return db.ErrSkipUpdate
		}

		delete(doc.Wallets, userID)
		res = types.DeleteResult{Code: types.CodeSuccess}
		return nil
	})
	if err != nil {
		return types.DeleteResult{}, err
	}

	if res.Code == types.CodeSuccess {
		log.Ctx(ctx).Info().Str("user_id", userID).Msg("wallet deleted")
	}
	recordOp("DeleteWallet", res.Code)
	return res, nil
}

// TransferCurrency moves amount between the liquid balances of two users.
// All checks run inside the same update cycle as the mutation, so the
// cross-wallet sum of liquid value is conserved even under contention.
func (s *Service) TransferCurrency(
	ctx context.Context, fromUserID, toUserID string, amount int64,
) (types.TransferResult, error) {
	if amount <= 0 {
		recordOp("TransferCurrency", types.CodePositiveValueNeeded)
		return types.TransferResult{Code: types.CodePositiveValueNeeded}, nil
	}
	if fromUserID == toUserID {
		recordOp("TransferCurrency", types.CodeSameUser)
		return types.TransferResult{Code: types.CodeSameUser}, nil
	}

	var res types.TransferResult

	_, err := s.db.UpdateEconomyDoc(ctx, func(doc *model.EconomyDocument) error {
		fromWallet, fromExists := doc.Wallets[fromUserID]
		toWallet, toExists := doc.Wallets[toUserID]

		switch {
		case !fromExists:
			res = types.TransferResult{Code: types.CodeNoFromUser}
			return db.ErrSkipUpdate
		case !toExists:
			res = types.TransferResult{Code: types.CodeNoToUser}
			return db.ErrSkipUpdate
		case fromWallet.Value-amount < 0:
			res = types.TransferResult{Code: types.CodeInsufficientFunds}
			return db.ErrSkipUpdate
		}

		fromWallet.Value -= amount
		toWallet.Value += amount
		doc.Wallets[fromUserID] = fromWallet
		doc.Wallets[toUserID] = toWallet
		res = types.TransferResult{Code: types.CodeSuccess}
		return nil
	})
	if err != nil {
		return types.TransferResult{}, err
	}

	if res.Code == types.CodeSuccess {
		log.Ctx(ctx).Info().
			Str("from_user_id", fromUserID).
			Str("to_user_id", toUserID).
			Int64("amount", amount).
			Msg("currency transferred")
	}
	recordOp("TransferCurrency", res.Code)
	return res, nil
}

// ModifyCurrency applies a signed delta to one of the user's balances,
// clamping the result at zero. The clamp is deliberate lossy policy, not a
// failure.
func (s *Service) ModifyCurrency(
	ctx context.Context, userID string, delta int64, location types.BalanceLocation,
) (types.ModifyResult, error) {
	if location == "" {
		location = types.LocationValue
	}
	if !location.Valid() {
		recordOp("ModifyCurrency", types.CodeInvalidInput)
		return types.ModifyResult{Code: types.CodeInvalidInput}, nil
	}

	var res types.ModifyResult

	_, err := s.db.UpdateEconomyDoc(ctx, func(doc *model.EconomyDocument) error {
		wallet, exists := doc.Wallets[userID]
		if !exists {
			res = types.ModifyResult{Code: types.CodeDoesNotExist}
			return db.ErrSkipUpdate
		}

		switch location {
		case types.LocationBank:
			wallet.Bank = clampToZero(wallet.Bank + delta)
			res = types.ModifyResult{Code: types.CodeSuccess, NewBalance: wallet.Bank}
		default:
			wallet.Value = clampToZero(wallet.Value + delta)
			res = types.ModifyResult{Code: types.CodeSuccess, NewBalance: wallet.Value}
		}

		doc.Wallets[userID] = wallet
		return nil
	})
	if err != nil {
		return types.ModifyResult{}, err
	}

	recordOp("ModifyCurrency", res.Code)
	return res, nil
}

// BulkModifyCurrency applies signed deltas to liquid balances in one
// atomic update. Modifications referencing a missing wallet are skipped
// and reported; the rest of the batch still applies.
func (s *Service) BulkModifyCurrency(
	ctx context.Context, modifications []types.BalanceModification,
) (types.BulkModifyResult, error) {
	var res types.BulkModifyResult

	_, err := s.db.UpdateEconomyDoc(ctx, func(doc *model.EconomyDocument) error {
		res = types.BulkModifyResult{Code: types.CodeSuccess}
		for _, modification := range modifications {
			wallet, exists := doc.Wallets[modification.UserID]
			if !exists {
				res.Skipped = append(res.Skipped, modification.UserID)
				continue
			}
			wallet.Value = clampToZero(wallet.Value + modification.Delta)
			doc.Wallets[modification.UserID] = wallet
		}
		return nil
	})
	if err != nil {
		return types.BulkModifyResult{}, err
	}

	if len(res.Skipped) > 0 {
		log.Ctx(ctx).Warn().
			Strs("user_ids", res.Skipped).
			Msg("bulk modification skipped users without wallets")
	}
	recordOp("BulkModifyCurrency", res.Code)
	return res, nil
}

func clampToZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
