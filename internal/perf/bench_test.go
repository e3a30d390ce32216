package perf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antflydb/searchctl/internal/dataset"
	"github.com/antflydb/searchctl/internal/engine"
)

func TestPercentileClampsToSampleBounds(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	require.Equal(t, 1.0, percentile(sorted, 0))
	require.Equal(t, 5.0, percentile(sorted, 1))
	require.Equal(t, 3.0, percentile(sorted, 0.5))
}

func TestSummarizeEmptyIsAllZero(t *testing.T) {
	require.Equal(t, LatencyStats{}, summarize(nil))
}

func TestRunRejectsEmptyQuerySet(t *testing.T) {
	b := New(engine.NewMemory(), nil, nil)
	_, err := b.Run(context.Background(), &dataset.QuerySet{Name: "empty"}, Config{})
	require.Error(t, err)
}

func TestRunCollectsPerQueryAndPooledSamples(t *testing.T) {
	ctx := context.Background()
	m := engine.NewMemory()
	require.NoError(t, m.CreateIndex(ctx, "docs_read"))
	_, err := m.BulkIndex(ctx, "docs_read", []engine.Document{{ID: "d1", Title: "go"}})
	require.NoError(t, err)

	b := New(m, nil, nil)
	qs := &dataset.QuerySet{Name: "bench", Queries: []dataset.Query{{ID: "q1", Text: "go"}, {ID: "q2", Text: "go"}}}

	res, err := b.Run(ctx, qs, Config{TopK: 5, Iterations: 3, Warmups: 1, TargetIndex: "docs_read"})
	require.NoError(t, err)
	require.Equal(t, "bench", res.DatasetID)
	require.Len(t, res.PerQuery, 2)
	for _, q := range res.PerQuery {
		require.Len(t, q.Samples, 3)
	}
	require.Greater(t, res.QPS, 0.0)
}
