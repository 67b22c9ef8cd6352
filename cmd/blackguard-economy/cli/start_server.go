package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/blackguard-bot/blackguard-economy/internal/config"
	"github.com/blackguard-bot/blackguard-economy/internal/db"
	dbmodel "github.com/blackguard-bot/blackguard-economy/internal/db/model"
	"github.com/blackguard-bot/blackguard-economy/internal/observability/metrics"
	"github.com/blackguard-bot/blackguard-economy/internal/observability/tracing"
	"github.com/blackguard-bot/blackguard-economy/internal/services"
)

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the Blackguard economy server",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	err = dbmodel.Setup(ctx, &cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up economy db model")
	}

	// create new db client
	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating db client")
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	service := services.NewService(cfg, dbClient)

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	if err := service.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("error while starting economy service")
	}

	log.Info().Msg("economy service started")
	<-ctx.Done()

	service.StopInterestAccrual()
	log.Info().Msg("economy service stopped")
	return nil
}
