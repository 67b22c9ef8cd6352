package services

import (
	"context"
	"sync"

	"github.com/blackguard-bot/blackguard-economy/internal/config"
	"github.com/blackguard-bot/blackguard-economy/internal/db"
	"github.com/blackguard-bot/blackguard-economy/internal/observability/metrics"
	"github.com/blackguard-bot/blackguard-economy/internal/types"
	"github.com/blackguard-bot/blackguard-economy/internal/utils/poller"
)

type Service struct {
	cfg *config.Config
	db  db.DbInterface

	withdrawals *withdrawalRegistry

	interestMu     sync.Mutex
	interestPoller *poller.Poller
}

func NewService(cfg *config.Config, db db.DbInterface) *Service {
	return &Service{
		cfg:         cfg,
		db:          db,
		withdrawals: newWithdrawalRegistry(),
	}
}

// Start brings the economy online: it seeds the economy document on first
// run, reconciles withdrawals that were pending when the previous process
// stopped, and starts the interest accrual loop with the tick rate stored
// in the document.
func (s *Service) Start(ctx context.Context) error {
	if err := s.ensureEconomyDoc(ctx); err != nil {
		return err
	}

	if err := s.reconcileWithdrawals(ctx); err != nil {
		return err
	}

	doc, err := s.db.GetEconomyDoc(ctx)
	if err != nil {
		return err
	}
	s.restartInterestAccrual(ctx, doc.Config.Bank.InterestTickRate())

	return nil
}

func recordOp(operation string, code types.Code) {
	metrics.RecordEconomyOpResult(operation, code.String())
}
