package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/blackguard-bot/blackguard-economy/internal/db"
	"github.com/blackguard-bot/blackguard-economy/internal/db/model"
	"github.com/blackguard-bot/blackguard-economy/internal/observability/metrics"
)

// ensureEconomyDoc seeds the economy document on first run. The call is
// idempotent; an existing document is left untouched.
func (s *Service) ensureEconomyDoc(ctx context.Context) error {
	seed := model.NewSeedDocument(s.cfg.Economy)
	err := s.db.InitEconomyDoc(ctx, seed)
	if db.IsDuplicateKeyError(err) {
		log.Ctx(ctx).Debug().Msg("economy document already exists")
		return nil
	}
	return err
}

// reconcileWithdrawals restores withdrawal timers lost with the previous
// process. Entries whose commit time is still ahead are re-armed; overdue
// ones are committed immediately, concurrently, before the service starts
// taking calls.
func (s *Service) reconcileWithdrawals(ctx context.Context) error {
	doc, err := s.db.GetEconomyDoc(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	var wg conc.WaitGroup

	for userID, pending := range doc.PendingWithdrawals {
		if pending.CommitAt.After(now) {
			s.withdrawals.arm(userID, pending.Amount, pending.CommitAt, func() {
				s.fireWithdrawal(userID)
			})
			log.Ctx(ctx).Info().
				Str("user_id", userID).
				Int64("amount", pending.Amount).
				Time("commits_at", pending.CommitAt).
				Msg("pending withdrawal re-armed")
			continue
		}

		log.Ctx(ctx).Info().
			Str("user_id", userID).
			Int64("amount", pending.Amount).
			Time("commits_at", pending.CommitAt).
			Msg("overdue withdrawal found, committing now")
		wg.Go(func() {
			if err := s.commitWithdrawal(ctx, userID, pending.Amount); err != nil {
				log.Ctx(ctx).Error().Err(err).
					Str("user_id", userID).
					Msg("failed to commit overdue withdrawal")
			}
		})
	}

	wg.Wait()
	metrics.RecordActiveWithdrawals(s.withdrawals.count())
	return nil
}
