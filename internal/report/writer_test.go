package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/antflydb/searchctl/internal/evalrun"
)

func sampleReport() *evalrun.Report {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	per := []evalrun.QueryMetrics{
		{QueryID: "q1", Intent: "navigational", Precision: 1.0, Recall: 1.0, MRR: 1.0, NDCG: 1.0, TotalHits: 3},
		{QueryID: "q2", Intent: "informational", Precision: 0.1, Recall: 0.2, MRR: 0.1, NDCG: 0.333, TotalHits: 3},
	}
	return &evalrun.Report{
		DatasetID:   "articles",
		TopK:        10,
		TargetIndex: "docs_read",
		StartedAt:   started,
		CompletedAt: started.Add(2 * time.Second),
		Duration:    2 * time.Second,
		Per:         per,
		Aggregate:   evalrun.Aggregate(per),
	}
}

func TestWriterWritesExpectedSchema(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, 1)

	id, reportDir, err := w.Write(sampleReport(), "")
	require.NoError(t, err)
	require.Equal(t, "20260102_030405", id)
	require.Equal(t, filepath.Join(dir, id), reportDir)

	m, err := w.Load(id)
	require.NoError(t, err)
	require.Equal(t, "articles", m.DatasetID)
	require.Equal(t, 10, m.TopK)
	require.Equal(t, 2, m.TotalQueries)
	require.Len(t, m.WorstQueries, 1)
	require.Equal(t, "q2", m.WorstQueries[0].QueryID)
}

func TestWriterEmptyRunReportsZeroTopK(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, 5)

	rep := sampleReport()
	rep.Per = nil
	rep.Aggregate = evalrun.Aggregate(nil)

	id, _, err := w.Write(rep, "")
	require.NoError(t, err)

	m, err := w.Load(id)
	require.NoError(t, err)
	require.Equal(t, 0, m.TopK)
	require.Equal(t, 0, m.Summary.TopK)
	require.Equal(t, 0, m.TotalQueries)
	require.Equal(t, 0.0, m.Summary.MeanNDCG)
}

func TestWriterWorstQueriesTieBreakByRecall(t *testing.T) {
	per := []evalrun.QueryMetrics{
		{QueryID: "a", NDCG: 0.5, Recall: 0.9},
		{QueryID: "b", NDCG: 0.5, Recall: 0.1},
	}
	worst := worstQueries(per, 2)
	require.Equal(t, "b", worst[0].QueryID)
	require.Equal(t, "a", worst[1].QueryID)
}

func TestCompareIdenticalReportsYieldsZeroDeltas(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, 10)
	rep := sampleReport()

	beforeID, _, err := w.Write(rep, "before")
	require.NoError(t, err)
	afterID, _, err := w.Write(rep, "after")
	require.NoError(t, err)

	cmp := NewComparator(dir)
	comparison, path, err := cmp.Compare(beforeID, afterID, 5)
	require.NoError(t, err)
	require.FileExists(t, path)

	for _, d := range comparison.MetricsDelta {
		require.InDelta(t, 0, d.Delta, 1e-12)
	}
	require.Empty(t, comparison.Improvements)
	require.Empty(t, comparison.Regressions)
	for _, c := range comparison.WorstQueryChanges {
		require.Equal(t, Unchanged, c.Kind)
	}
}

func TestCompareClassifiesWorstQueryMovement(t *testing.T) {
	before := []WorstQuery{{QueryID: "q1", NDCG: 0.2}, {QueryID: "q2", NDCG: 0.5}}
	after := []WorstQuery{{QueryID: "q1", NDCG: 0.6}, {QueryID: "q3", NDCG: 0.1}}

	changes := classifyWorstQueries(before, after)
	byID := make(map[string]WorstQueryChange, len(changes))
	for _, c := range changes {
		byID[c.QueryID] = c
	}

	require.Equal(t, Improved, byID["q1"].Kind)
	require.Equal(t, RemovedFromWorst, byID["q2"].Kind)
	require.InDelta(t, 0.5, byID["q2"].DeltaNDCG, 1e-9)
	require.Equal(t, NewInWorst, byID["q3"].Kind)
	require.InDelta(t, -0.1, byID["q3"].DeltaNDCG, 1e-9)
}
