package db

import (
	"context"
	"time"

	"github.com/blackguard-bot/blackguard-economy/internal/db/model"
	"github.com/blackguard-bot/blackguard-economy/internal/observability/metrics"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) GetEconomyDoc(ctx context.Context) (result *model.EconomyDocument, err error) {
	//nolint:errcheck
	d.run("GetEconomyDoc", func() error {
		result, err = d.db.GetEconomyDoc(ctx)
		return err
	})

	return
}

func (d *DbWithMetrics) InitEconomyDoc(ctx context.Context, seed *model.EconomyDocument) error {
	return d.run("InitEconomyDoc", func() error {
		return d.db.InitEconomyDoc(ctx, seed)
	})
}

func (d *DbWithMetrics) ResetEconomyDoc(ctx context.Context, seed *model.EconomyDocument) error {
	return d.run("ResetEconomyDoc", func() error {
		return d.db.ResetEconomyDoc(ctx, seed)
	})
}

func (d *DbWithMetrics) UpdateEconomyDoc(
	ctx context.Context, mutate func(doc *model.EconomyDocument) error,
) (result *model.EconomyDocument, err error) {
	//nolint:errcheck
	d.run("UpdateEconomyDoc", func() error {
		result, err = d.db.UpdateEconomyDoc(ctx, mutate)
		return err
	})

	return
}

func (d *DbWithMetrics) run(method string, f func() error) error {
	start := time.Now()
	err := f()
	metrics.RecordDbLatency(time.Since(start), method, err != nil)

	return err
}
