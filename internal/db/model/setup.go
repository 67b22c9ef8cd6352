package model

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blackguard-bot/blackguard-economy/internal/config"
)

const setupTimeout = 30 * time.Second

// Setup creates the economy collection if it does not exist yet. The
// economy document itself is seeded later by the service bootstrap.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	database := client.Database(cfg.DbName)
	if err := createCollection(ctx, database, EconomyCollection); err != nil {
		return err
	}

	return client.Disconnect(ctx)
}

func createCollection(ctx context.Context, database *mongo.Database, collectionName string) error {
	if err := database.CreateCollection(ctx, collectionName); err != nil {
		var cmdErr mongo.CommandError
		// NamespaceExists, collection was created by a previous run
		if errors.As(err, &cmdErr) && cmdErr.Code == 48 {
			log.Debug().Str("collection", collectionName).Msg("collection already exists")
			return nil
		}
		return err
	}

	log.Info().Str("collection", collectionName).Msg("collection created")
	return nil
}
