package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/antflydb/searchctl/internal/orchestrator"
	"github.com/antflydb/searchctl/internal/validate"
)

var (
	reindexAlias   string
	reindexSource  string
	reindexTarget  string
	reindexRefresh bool
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Run a blue-green reindex migration",
	RunE:  runReindex,
}

func init() {
	reindexCmd.Flags().StringVar(&reindexAlias, "alias", "docs", "Alias to switch on success")
	reindexCmd.Flags().StringVar(&reindexSource, "source", "", "Source index name")
	reindexCmd.Flags().StringVar(&reindexTarget, "target", "", "Target index name")
	reindexCmd.Flags().BoolVar(&reindexRefresh, "refresh", true, "Refresh the target index before validation")
	_ = reindexCmd.MarkFlagRequired("source")
	_ = reindexCmd.MarkFlagRequired("target")
}

func runReindex(cmd *cobra.Command, args []string) error {
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

	validator := validate.New(port, validate.Config{
		CountCheckEnabled:   cfg.Validation.CountCheckEnabled,
		OverlapCheckEnabled: cfg.Validation.OverlapCheckEnabled,
		HashCheckEnabled:    cfg.Validation.HashCheckEnabled,
		TopK:                cfg.Validation.TopK,
		MinJaccard:          cfg.Validation.MinJaccard,
		HashMaxDocs:         cfg.Validation.HashMaxDocs,
		HashPageSize:        cfg.Validation.HashPageSize,
	})
	retention := orchestrator.NewRetention(cfg.Reports.Dir)
	orch := orchestrator.New(port, validator, retention, metrics, logger)

	plan := orchestrator.Plan{Alias: reindexAlias, SourceIndex: reindexSource, TargetIndex: reindexTarget, RefreshAfter: reindexRefresh}
	result := orch.Run(context.Background(), plan)

	logger.Info("reindex finished",
		zap.String("final_state", string(result.FinalState)),
		zap.Int64("documents_copied", result.DocumentsCopied),
		zap.String("manifest_path", result.ManifestPath),
	)
	if result.Err != nil {
		return fmt.Errorf("reindex failed in state %s: %w", result.FinalState, result.Err)
	}

	fmt.Printf("reindex %s: %s -> %s completed, %d documents copied, manifest at %s\n",
		plan.Alias, plan.SourceIndex, plan.TargetIndex, result.DocumentsCopied, result.ManifestPath)
	return nil
}
