package perf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/antflydb/searchctl/internal/jsonx"
)

// Writer persists benchmark Results under reports/performance/{runId}/
// {metrics.json, summary.md}.
type Writer struct {
	dir string
}

// NewWriter constructs a Writer rooted at reportsDir (typically
// "reports/performance").
func NewWriter(reportsDir string) *Writer {
	return &Writer{dir: reportsDir}
}

// RunID derives {prefix}_{datasetId}_{UTC_timestamp} (the prefix segment is
// dropped when empty).
func RunID(prefix, datasetID string, ts time.Time) string {
	stamp := ts.UTC().Format("20060102_150405")
	if prefix == "" {
		return fmt.Sprintf("%s_%s", datasetID, stamp)
	}
	return fmt.Sprintf("%s_%s_%s", prefix, datasetID, stamp)
}

// Write persists res and returns the run id and directory.
func (w *Writer) Write(res *Result, prefix string) (id string, dir string, err error) {
	id = RunID(prefix, res.DatasetID, res.StartedAt)
	dir = filepath.Join(w.dir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating performance report directory: %w", err)
	}

	data, err := jsonx.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encoding metrics.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "metrics.json"), data, 0o644); err != nil {
		return "", "", fmt.Errorf("writing metrics.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "summary.md"), []byte(summaryMarkdown(id, res)), 0o644); err != nil {
		return "", "", fmt.Errorf("writing summary.md: %w", err)
	}

	return id, dir, nil
}

// Load reads back a previously written Result by run id.
func (w *Writer) Load(runID string) (*Result, error) {
	return LoadFrom(filepath.Join(w.dir, runID, "metrics.json"))
}

// LoadFrom reads a metrics.json file from an explicit path.
func LoadFrom(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metrics.json: %w", err)
	}
	var res Result
	if err := jsonx.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parsing metrics.json: %w", err)
	}
	return &res, nil
}

func summaryMarkdown(id string, res *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Benchmark run %s\n\n", id)
	fmt.Fprintf(&b, "- Dataset: %s\n", res.DatasetID)
	fmt.Fprintf(&b, "- Target index: %s\n", res.TargetIndex)
	fmt.Fprintf(&b, "- Iterations: %d (warmups: %d)\n", res.Iterations, res.Warmups)
	fmt.Fprintf(&b, "- QPS: %.2f\n\n", res.QPS)

	fmt.Fprintf(&b, "## Global latency (ms)\n\n")
	fmt.Fprintf(&b, "| min | p50 | p95 | max | avg |\n|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %.2f | %.2f | %.2f | %.2f | %.2f |\n\n", res.Global.Min, res.Global.P50, res.Global.P95, res.Global.Max, res.Global.Avg)

	fmt.Fprintf(&b, "## Per-query latency (ms)\n\n")
	fmt.Fprintf(&b, "| Query ID | min | p50 | p95 | max | avg |\n|---|---|---|---|---|---|\n")
	sorted := make([]QueryResult, len(res.PerQuery))
	copy(sorted, res.PerQuery)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].QueryID < sorted[j].QueryID })
	for _, q := range sorted {
		fmt.Fprintf(&b, "| %s | %.2f | %.2f | %.2f | %.2f | %.2f |\n", q.QueryID, q.Stats.Min, q.Stats.P50, q.Stats.P95, q.Stats.Max, q.Stats.Avg)
	}

	return b.String()
}
