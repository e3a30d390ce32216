package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/antflydb/searchctl/internal/dataset"
	"github.com/antflydb/searchctl/internal/evalrun"
	"github.com/antflydb/searchctl/internal/report"
)

var (
	evalQuerySetPath   string
	evalJudgementsPath string
	evalIndex          string
	evalTopK           int
	evalReportPrefix   string
	evalBaselineReport string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate search quality against a judged query set",
}

var evalRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an evaluation and write a report",
	RunE:  runEvalRun,
}

var evalRegressionCmd = &cobra.Command{
	Use:   "regression",
	Short: "Run an evaluation and compare it against a baseline report",
	RunE:  runEvalRegression,
}

func init() {
	for _, c := range []*cobra.Command{evalRunCmd, evalRegressionCmd} {
		c.Flags().StringVar(&evalQuerySetPath, "queries", "", "Path to the query set JSON file")
		c.Flags().StringVar(&evalJudgementsPath, "judgements", "", "Path to the judgement set JSON file")
		c.Flags().StringVar(&evalIndex, "index", "docs", "Index or alias to evaluate against")
		c.Flags().IntVar(&evalTopK, "top-k", 0, "Number of hits to retrieve per query (defaults to config)")
		c.Flags().StringVar(&evalReportPrefix, "report-prefix", "", "Prefix for the written report id")
		_ = c.MarkFlagRequired("queries")
		_ = c.MarkFlagRequired("judgements")
	}
	evalRegressionCmd.Flags().StringVar(&evalBaselineReport, "baseline", "", "Report id to compare against")
	_ = evalRegressionCmd.MarkFlagRequired("baseline")

	evalCmd.AddCommand(evalRunCmd)
	evalCmd.AddCommand(evalRegressionCmd)
}

func loadEvalDatasets() (*dataset.QuerySet, *dataset.JudgementSet, error) {
	qs, err := dataset.LoadQuerySet(evalQuerySetPath)
	if err != nil {
		return nil, nil, err
	}
	js, err := dataset.LoadJudgementSet(evalJudgementsPath)
	if err != nil {
		return nil, nil, err
	}
	if missing := dataset.CheckCoverage(qs, js); len(missing) > 0 {
		return nil, nil, fmt.Errorf("query set has %d queries with no judgements: %v", len(missing), missing)
	}
	return qs, js, nil
}

func runEvalRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := buildLogger(cfg)
	defer func() { _ = logger.Sync() }()

	qs, js, err := loadEvalDatasets()
	if err != nil {
		return err
	}

	port, err := buildPort(cfg)
	if err != nil {
		return err
	}
	metrics := buildMetrics()
	topK := evalTopK
	if topK <= 0 {
		topK = cfg.Eval.TopK
	}

	runner := evalrun.New(port, evalrun.Config{
		TopK:               topK,
		MaxConcurrency:     cfg.Eval.MaxConcurrency,
		RateLimitPerMinute: cfg.Eval.RateLimitPerMinute,
	}, metrics, logger)

	rep, err := runner.Run(context.Background(), evalIndex, qs, js)
	if err != nil {
		return fmt.Errorf("evaluation run failed: %w", err)
	}

	writer := report.New(cfg.Reports.Dir, cfg.Eval.WorstQueryReportCount)
	id, dir, err := writer.Write(rep, evalReportPrefix)
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	logger.Info("evaluation complete",
		zap.String("report_id", id),
		zap.Float64("mean_ndcg", rep.Aggregate.MeanNDCG),
		zap.Float64("mean_precision", rep.Aggregate.MeanPrecision),
	)
	fmt.Printf("report %s written to %s\n", id, dir)
	return nil
}

func runEvalRegression(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := buildLogger(cfg)
	defer func() { _ = logger.Sync() }()

	qs, js, err := loadEvalDatasets()
	if err != nil {
		return err
	}

	port, err := buildPort(cfg)
	if err != nil {
		return err
	}
	metrics := buildMetrics()
	topK := evalTopK
	if topK <= 0 {
		topK = cfg.Eval.TopK
	}

	runner := evalrun.New(port, evalrun.Config{
		TopK:               topK,
		MaxConcurrency:     cfg.Eval.MaxConcurrency,
		RateLimitPerMinute: cfg.Eval.RateLimitPerMinute,
	}, metrics, logger)

	rep, err := runner.Run(context.Background(), evalIndex, qs, js)
	if err != nil {
		return fmt.Errorf("evaluation run failed: %w", err)
	}

	writer := report.New(cfg.Reports.Dir, cfg.Eval.WorstQueryReportCount)
	afterID, _, err := writer.Write(rep, evalReportPrefix)
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	comparator := report.NewComparator(cfg.Reports.Dir)
	comparison, path, err := comparator.Compare(evalBaselineReport, afterID, cfg.Eval.WorstQueryReportCount)
	if err != nil {
		return fmt.Errorf("comparing against baseline %q: %w", evalBaselineReport, err)
	}

	fmt.Printf("after report %s compared against %s\n", afterID, evalBaselineReport)
	fmt.Printf("comparison written to %s\n", path)
	for _, d := range comparison.MetricsDelta {
		fmt.Printf("  %s: %+.4f (%.4f -> %.4f)\n", d.Name, d.Delta, d.Before, d.After)
	}
	if len(comparison.Regressions) > 0 {
		fmt.Printf("%d worst-query regressions detected\n", len(comparison.Regressions))
	}
	return nil
}
