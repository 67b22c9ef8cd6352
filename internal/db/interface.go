package db

import (
	"context"

	"github.com/blackguard-bot/blackguard-economy/internal/db/model"
)

type DbInterface interface {
	Ping(ctx context.Context) error
	GetEconomyDoc(ctx context.Context) (*model.EconomyDocument, error)
	InitEconomyDoc(ctx context.Context, seed *model.EconomyDocument) error
	ResetEconomyDoc(ctx context.Context, seed *model.EconomyDocument) error
	UpdateEconomyDoc(ctx context.Context, mutate func(doc *model.EconomyDocument) error) (*model.EconomyDocument, error)
}
