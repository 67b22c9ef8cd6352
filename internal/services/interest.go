package services

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/blackguard-bot/blackguard-economy/internal/db"
	"github.com/blackguard-bot/blackguard-economy/internal/db/model"
	"github.com/blackguard-bot/blackguard-economy/internal/observability/metrics"
	"github.com/blackguard-bot/blackguard-economy/internal/utils/poller"
)

// restartInterestAccrual stops the running interest poller, if any, and
// starts a new one with the given interval. Called at startup and after
// every bank config change.
func (s *Service) restartInterestAccrual(ctx context.Context, interval time.Duration) {
	s.interestMu.Lock()
	defer s.interestMu.Unlock()

	if s.interestPoller != nil {
		s.interestPoller.Stop()
	}

	interestPoller := poller.NewPoller(
		interval,
		metrics.RecordPollerDuration("interest", s.accrueInterest),
	)
	s.interestPoller = interestPoller
	go interestPoller.Start(ctx)
}

// StopInterestAccrual stops the interest poller. Used on shutdown.
func (s *Service) StopInterestAccrual() {
	s.interestMu.Lock()
	defer s.interestMu.Unlock()

	if s.interestPoller != nil {
		s.interestPoller.Stop()
		s.interestPoller = nil
	}
}

// accrueInterest applies one compound interest tick: every bank balance is
// multiplied by (1 + interestRate) and floored back to an integer, all
// inside a single atomic update. The rate is read from the document itself
// so a config change between ticks is picked up without coordination.
func (s *Service) accrueInterest(ctx context.Context) error {
	var walletCount int

	_, err := s.db.UpdateEconomyDoc(ctx, func(doc *model.EconomyDocument) error {
		rate := doc.Config.Bank.InterestRate
		for userID, wallet := range doc.Wallets {
			wallet.Bank = int64(math.Floor(float64(wallet.Bank) * (1 + rate)))
			doc.Wallets[userID] = wallet
		}
		walletCount = len(doc.Wallets)
		return nil
	})
	if err != nil {
		// the document can be briefly absent while a reset replaces it;
		// skip the tick instead of failing the loop
		if db.IsNotFoundError(err) {
			log.Ctx(ctx).Debug().Msg("economy document absent, skipping interest tick")
			return nil
		}
		return err
	}

	log.Ctx(ctx).Debug().
		Int("wallet_count", walletCount).
		Msg("interest tick applied")
	return nil
}
