package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/antflydb/searchctl/internal/dataset"
	"github.com/antflydb/searchctl/internal/perf"
)

var (
	benchQuerySetPath  string
	benchIndex         string
	benchTopK          int
	benchIterations    int
	benchWarmups       int
	benchReportPrefix  string
	benchBaselineRunID string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark search latency and throughput",
}

var benchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a latency/throughput benchmark and write a report",
	RunE:  runBenchRun,
}

func init() {
	benchRunCmd.Flags().StringVar(&benchQuerySetPath, "queries", "", "Path to the query set JSON file")
	benchRunCmd.Flags().StringVar(&benchIndex, "index", "docs", "Index or alias to benchmark against")
	benchRunCmd.Flags().IntVar(&benchTopK, "top-k", 10, "Number of hits to retrieve per query")
	benchRunCmd.Flags().IntVar(&benchIterations, "iterations", 10, "Recorded iterations per query")
	benchRunCmd.Flags().IntVar(&benchWarmups, "warmups", 2, "Discarded warmup iterations per query")
	benchRunCmd.Flags().StringVar(&benchReportPrefix, "report-prefix", "", "Prefix for the written run id")
	benchRunCmd.Flags().StringVar(&benchBaselineRunID, "baseline", "", "Run id to compare against, if any")
	_ = benchRunCmd.MarkFlagRequired("queries")

	benchCmd.AddCommand(benchRunCmd)
}

func runBenchRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := buildLogger(cfg)
	defer func() { _ = logger.Sync() }()

	qs, err := dataset.LoadQuerySet(benchQuerySetPath)
	if err != nil {
		return fmt.Errorf("loading query set: %w", err)
	}

	port, err := buildPort(cfg)
	if err != nil {
		return err
	}
	metrics := buildMetrics()
	benchmarker := perf.New(port, metrics, logger)

	res, err := benchmarker.Run(context.Background(), qs, perf.Config{
		TopK:        benchTopK,
		Iterations:  benchIterations,
		Warmups:     benchWarmups,
		TargetIndex: benchIndex,
	})
	if err != nil {
		return fmt.Errorf("benchmark run failed: %w", err)
	}

	perfDir := filepath.Join(cfg.Reports.Dir, "performance")
	writer := perf.NewWriter(perfDir)
	runID, dir, err := writer.Write(res, benchReportPrefix)
	if err != nil {
		return fmt.Errorf("writing benchmark report: %w", err)
	}

	logger.Info("benchmark complete",
		zap.String("run_id", runID),
		zap.Float64("qps", res.QPS),
		zap.Float64("p95", res.Global.P95),
	)
	fmt.Printf("run %s written to %s (qps=%.2f p50=%.2fms p95=%.2fms)\n", runID, dir, res.QPS, res.Global.P50, res.Global.P95)

	if benchBaselineRunID != "" {
		comparator := perf.NewComparator(perfDir)
		comparison, path, err := comparator.Compare(benchBaselineRunID, runID)
		if err != nil {
			return fmt.Errorf("comparing against baseline %q: %w", benchBaselineRunID, err)
		}
		fmt.Printf("comparison written to %s\n", path)
		for _, d := range comparison.MetricsDelta {
			fmt.Printf("  %s: %+.2f (%.2f -> %.2f)\n", d.Name, d.Delta, d.Before, d.After)
		}
		if len(comparison.Regressions) > 0 {
			fmt.Printf("%d query regressions detected\n", len(comparison.Regressions))
		}
	}
	return nil
}
