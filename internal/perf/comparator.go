package perf

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MetricDelta is the before/after/delta for one global latency or
// throughput metric.
type MetricDelta struct {
	Name   string  `json:"name"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Delta  float64 `json:"delta"`
}

// QueryChange is one query's P95 movement between two benchmark runs.
type QueryChange struct {
	QueryID   string  `json:"queryId"`
	BeforeP95 float64 `json:"beforeP95"`
	AfterP95  float64 `json:"afterP95"`
	DeltaP95  float64 `json:"deltaP95"`
}

// Comparison is the full output of comparing two benchmark runs.
type Comparison struct {
	BeforeRunID  string        `json:"beforeRunId"`
	AfterRunID   string        `json:"afterRunId"`
	MetricsDelta []MetricDelta `json:"metricsDelta"`
	Regressions  []QueryChange `json:"regressions"`
	Improvements []QueryChange `json:"improvements"`
}

// Comparator diffs two previously written benchmark runs.
type Comparator struct {
	dir        string
	compareDir string
}

// NewComparator constructs a Comparator. dir is where run directories are
// read from; comparisons are written under {dir}/comparisons.
func NewComparator(dir string) *Comparator {
	return &Comparator{dir: dir, compareDir: filepath.Join(dir, "comparisons")}
}

// Compare loads beforeRunID and afterRunID's metrics.json files, computes
// latency/QPS deltas, and writes comparisons/{after}_vs_{before}.md with
// regression and improvement lists ordered by |Δ(P95)|.
func (c *Comparator) Compare(beforeRunID, afterRunID string) (*Comparison, string, error) {
	before, err := LoadFrom(filepath.Join(c.dir, beforeRunID, "metrics.json"))
	if err != nil {
		return nil, "", fmt.Errorf("loading before run %q: %w", beforeRunID, err)
	}
	after, err := LoadFrom(filepath.Join(c.dir, afterRunID, "metrics.json"))
	if err != nil {
		return nil, "", fmt.Errorf("loading after run %q: %w", afterRunID, err)
	}

	cmp := &Comparison{
		BeforeRunID: beforeRunID,
		AfterRunID:  afterRunID,
		MetricsDelta: []MetricDelta{
			{Name: "p50", Before: before.Global.P50, After: after.Global.P50, Delta: after.Global.P50 - before.Global.P50},
			{Name: "p95", Before: before.Global.P95, After: after.Global.P95, Delta: after.Global.P95 - before.Global.P95},
			{Name: "max", Before: before.Global.Max, After: after.Global.Max, Delta: after.Global.Max - before.Global.Max},
			{Name: "qps", Before: before.QPS, After: after.QPS, Delta: after.QPS - before.QPS},
		},
	}

	beforeByID := make(map[string]QueryResult, len(before.PerQuery))
	for _, q := range before.PerQuery {
		beforeByID[q.QueryID] = q
	}
	var changes []QueryChange
	for _, a := range after.PerQuery {
		b, ok := beforeByID[a.QueryID]
		if !ok {
			continue
		}
		changes = append(changes, QueryChange{
			QueryID:   a.QueryID,
			BeforeP95: b.Stats.P95,
			AfterP95:  a.Stats.P95,
			DeltaP95:  a.Stats.P95 - b.Stats.P95,
		})
	}

	var regressions, improvements []QueryChange
	for _, ch := range changes {
		if ch.DeltaP95 > 0 {
			regressions = append(regressions, ch)
		} else if ch.DeltaP95 < 0 {
			improvements = append(improvements, ch)
		}
	}
	sort.Slice(regressions, func(i, j int) bool { return math.Abs(regressions[i].DeltaP95) > math.Abs(regressions[j].DeltaP95) })
	sort.Slice(improvements, func(i, j int) bool { return math.Abs(improvements[i].DeltaP95) > math.Abs(improvements[j].DeltaP95) })
	cmp.Regressions = regressions
	cmp.Improvements = improvements

	path := filepath.Join(c.compareDir, fmt.Sprintf("%s_vs_%s.md", afterRunID, beforeRunID))
	if err := os.MkdirAll(c.compareDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating comparisons directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(comparisonMarkdown(cmp)), 0o644); err != nil {
		return nil, "", fmt.Errorf("writing comparison markdown: %w", err)
	}

	return cmp, path, nil
}

func comparisonMarkdown(cmp *Comparison) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Performance comparison: %s vs %s\n\n", cmp.AfterRunID, cmp.BeforeRunID)

	fmt.Fprintf(&b, "## Global deltas\n\n")
	fmt.Fprintf(&b, "| Metric | Before | After | Delta |\n|---|---|---|---|\n")
	for _, d := range cmp.MetricsDelta {
		fmt.Fprintf(&b, "| %s | %.2f | %.2f | %+.2f |\n", d.Name, d.Before, d.After, d.Delta)
	}

	fmt.Fprintf(&b, "\n## Regressions (by |Δp95|)\n\n")
	for _, c := range cmp.Regressions {
		fmt.Fprintf(&b, "- %s: %+.2fms (%.2f -> %.2f)\n", c.QueryID, c.DeltaP95, c.BeforeP95, c.AfterP95)
	}

	fmt.Fprintf(&b, "\n## Improvements (by |Δp95|)\n\n")
	for _, c := range cmp.Improvements {
		fmt.Fprintf(&b, "- %s: %+.2fms (%.2f -> %.2f)\n", c.QueryID, c.DeltaP95, c.BeforeP95, c.AfterP95)
	}

	return b.String()
}
