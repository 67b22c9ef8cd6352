package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/blackguard-bot/blackguard-economy/internal/config"
	"github.com/blackguard-bot/blackguard-economy/internal/db"
	"github.com/blackguard-bot/blackguard-economy/internal/db/model"
	"github.com/blackguard-bot/blackguard-economy/internal/observability/tracing"
)

func ResetDocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset-doc",
		Short: "Resets the economy document to the configured seed, wiping all wallets",
		Args:  cobra.ExactArgs(0),
		RunE:  resetDoc,
	}

	return cmd
}

func resetDoc(cmd *cobra.Command, args []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())
	log := log.Ctx(ctx)

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return err
	}

	seed := model.NewSeedDocument(cfg.Economy)
	if err := dbClient.ResetEconomyDoc(ctx, seed); err != nil {
		return err
	}

	log.Info().Msg("economy document reset")
	return nil
}
