// Package perf implements the performance benchmarker: it warms up and
// iterates search queries against the engine port, collects per-query and
// pooled latency percentiles, and writes a report comparable across runs.
package perf

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/antflydb/searchctl/internal/dataset"
	"github.com/antflydb/searchctl/internal/engine"
	"github.com/antflydb/searchctl/internal/healthserver"
	"github.com/antflydb/searchctl/internal/querycomposer"
)

// Config controls a single benchmark run.
type Config struct {
	TopK        int
	Iterations  int
	Warmups     int
	TargetIndex string
}

// LatencyStats summarizes a set of millisecond latency samples.
type LatencyStats struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// QueryResult is the latency summary for one query's sample set.
type QueryResult struct {
	QueryID string       `json:"queryId"`
	Samples []float64    `json:"-"`
	Stats   LatencyStats `json:"stats"`
}

// Result is the full output of one benchmark run.
type Result struct {
	DatasetID   string        `json:"datasetId"`
	TopK        int           `json:"topK"`
	Iterations  int           `json:"iterations"`
	Warmups     int           `json:"warmups"`
	TargetIndex string        `json:"targetIndex"`
	StartedAt   time.Time     `json:"startedAt"`
	CompletedAt time.Time     `json:"completedAt"`
	QPS         float64       `json:"qps"`
	Global      LatencyStats  `json:"global"`
	PerQuery    []QueryResult `json:"perQuery"`
}

// Benchmarker drives a latency benchmark against the engine port, using the
// same query composer the search surface does.
type Benchmarker struct {
	port    engine.Port
	metrics *healthserver.Metrics
	logger  *zap.Logger
}

// New constructs a Benchmarker. metrics and logger may be nil.
func New(port engine.Port, metrics *healthserver.Metrics, logger *zap.Logger) *Benchmarker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Benchmarker{port: port, metrics: metrics, logger: logger}
}

// Run executes Config.Warmups discarded searches per query, then
// Config.Iterations recorded searches, and returns latency statistics per
// query and pooled across the whole run.
func (b *Benchmarker) Run(ctx context.Context, qs *dataset.QuerySet, cfg Config) (*Result, error) {
	if len(qs.Queries) == 0 {
		return nil, fmt.Errorf("benchmark dataset %q has no queries", qs.Name)
	}
	if cfg.Iterations < 1 {
		cfg.Iterations = 1
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 10
	}

	startedAt := time.Now()
	wallStart := time.Now()

	perQuery := make([]QueryResult, 0, len(qs.Queries))
	var pooled []float64

	for _, q := range qs.Queries {
		native := querycomposer.Compose(querycomposer.SearchRequest{
			Query:          q.Text,
			Filters:        q.Filters,
			Sort:           q.Sort,
			MultiMatchMode: q.MultiMatchMode,
			PageSize:       cfg.TopK,
		}.Normalized())

		for i := 0; i < cfg.Warmups; i++ {
			if _, err := b.port.Search(ctx, cfg.TargetIndex, native, 0, cfg.TopK); err != nil {
				return nil, fmt.Errorf("warmup search for query %q: %w", q.ID, err)
			}
		}

		samples := make([]float64, 0, cfg.Iterations)
		for i := 0; i < cfg.Iterations; i++ {
			resp, err := b.port.Search(ctx, cfg.TargetIndex, native, 0, cfg.TopK)
			if err != nil {
				return nil, fmt.Errorf("search for query %q: %w", q.ID, err)
			}
			samples = append(samples, float64(resp.TookMillis))
			if b.metrics != nil {
				b.metrics.BenchmarkIterationsTotal.Inc()
			}
		}

		perQuery = append(perQuery, QueryResult{
			QueryID: q.ID,
			Samples: samples,
			Stats:   summarize(samples),
		})
		pooled = append(pooled, samples...)
	}

	elapsed := time.Since(wallStart).Seconds()
	qps := float64(len(pooled))
	if elapsed > 0 {
		qps = float64(len(pooled)) / elapsed
	}

	return &Result{
		DatasetID:   qs.Name,
		TopK:        cfg.TopK,
		Iterations:  cfg.Iterations,
		Warmups:     cfg.Warmups,
		TargetIndex: cfg.TargetIndex,
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
		QPS:         qps,
		Global:      summarize(pooled),
		PerQuery:    perQuery,
	}, nil
}

// summarize computes min/p50/p95/max/avg over samples. An empty sample set
// summarizes to all zeros.
func summarize(samples []float64) LatencyStats {
	if len(samples) == 0 {
		return LatencyStats{}
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	var sum float64
	for _, s := range sorted {
		sum += s
	}

	return LatencyStats{
		Min: sorted[0],
		P50: percentile(sorted, 0.50),
		P95: percentile(sorted, 0.95),
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
	}
}

// percentile returns the p-th percentile of an ascending sample list, using
// index = clamp(ceil(p*n) - 1, 0, n-1).
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	idx := int(math.Ceil(p*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}
