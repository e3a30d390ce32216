package perf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleResult(datasetID string, p95 float64, qps float64) *Result {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &Result{
		DatasetID:   datasetID,
		TopK:        10,
		Iterations:  5,
		Warmups:     1,
		TargetIndex: "docs_read",
		StartedAt:   started,
		CompletedAt: started.Add(time.Second),
		QPS:         qps,
		Global:      LatencyStats{Min: 1, P50: 2, P95: p95, Max: 10, Avg: 3},
		PerQuery: []QueryResult{
			{QueryID: "q1", Stats: LatencyStats{P95: p95}},
		},
	}
}

func TestRunIDFormat(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.Equal(t, "bench_articles_20260301_090000", RunID("bench", "articles", ts))
	require.Equal(t, "articles_20260301_090000", RunID("", "articles", ts))
}

func TestWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	id, _, err := w.Write(sampleResult("articles", 5, 100), "bench")
	require.NoError(t, err)

	loaded, err := w.Load(id)
	require.NoError(t, err)
	require.Equal(t, "articles", loaded.DatasetID)
	require.InDelta(t, 100, loaded.QPS, 1e-9)
}

func TestComparatorOrdersByAbsoluteP95Delta(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	before := sampleResult("articles", 10, 50)
	before.PerQuery = []QueryResult{
		{QueryID: "q1", Stats: LatencyStats{P95: 10}},
		{QueryID: "q2", Stats: LatencyStats{P95: 20}},
	}
	after := sampleResult("articles", 9, 60)
	after.PerQuery = []QueryResult{
		{QueryID: "q1", Stats: LatencyStats{P95: 15}},
		{QueryID: "q2", Stats: LatencyStats{P95: 12}},
	}

	beforeID, _, err := w.Write(before, "before")
	require.NoError(t, err)
	afterID, _, err := w.Write(after, "after")
	require.NoError(t, err)

	cmp := NewComparator(dir)
	comparison, path, err := cmp.Compare(beforeID, afterID)
	require.NoError(t, err)
	require.FileExists(t, path)

	require.Len(t, comparison.Regressions, 1)
	require.Equal(t, "q1", comparison.Regressions[0].QueryID)
	require.Len(t, comparison.Improvements, 1)
	require.Equal(t, "q2", comparison.Improvements[0].QueryID)
}
