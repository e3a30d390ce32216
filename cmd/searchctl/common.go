package main

import (
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/antflydb/searchctl/internal/config"
	"github.com/antflydb/searchctl/internal/engine"
	"github.com/antflydb/searchctl/internal/healthserver"
	"github.com/antflydb/searchctl/internal/logging"
)

// loadConfig reads searchctl.yaml (or the --config path), validating the
// result before any subcommand acts on it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// buildLogger constructs the zap logger a subcommand runs with, per cfg's
// logging style and level.
func buildLogger(cfg *config.Config) *zap.Logger {
	return logging.NewLogger(cfg.Logging.ToLoggingConfig())
}

// buildPort constructs the engine.Port every subcommand drives the search
// engine through, wired against cfg.Engine.
func buildPort(cfg *config.Config) (engine.Port, error) {
	client := engine.NewHTTPClient(cfg.Engine.BaseURL, &http.Client{Timeout: cfg.Engine.Timeout})
	if cfg.Engine.IndexTemplatePath != "" {
		template, err := os.ReadFile(cfg.Engine.IndexTemplatePath)
		if err != nil {
			return nil, fmt.Errorf("reading index template %q: %w", cfg.Engine.IndexTemplatePath, err)
		}
		client.SetIndexTemplate(template)
	}
	return client, nil
}

// buildMetrics constructs and registers the shared Prometheus collectors.
func buildMetrics() *healthserver.Metrics {
	return healthserver.NewMetrics()
}
