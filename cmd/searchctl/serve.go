package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/antflydb/searchctl/internal/api"
	"github.com/antflydb/searchctl/internal/healthserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the admin+search HTTP API and health/metrics endpoints",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := buildLogger(cfg)
	defer func() { _ = logger.Sync() }()

	port, err := buildPort(cfg)
	if err != nil {
		return err
	}
	metrics := buildMetrics()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	healthserver.Start(logger, cfg.Server.HealthPort, func() bool {
		return port.Ping(ctx) == nil
	})

	server := api.New(cfg, port, metrics, logger)
	logger.Info("searchctl serving", zap.Int("port", cfg.Server.Port), zap.Int("health_port", cfg.Server.HealthPort))
	return server.Run(ctx)
}
