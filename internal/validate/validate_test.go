package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antflydb/searchctl/internal/engine"
)

func setupIndices(t *testing.T, m *engine.Memory, source, target string, identical bool) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, m.CreateIndex(ctx, source))
	require.NoError(t, m.CreateIndex(ctx, target))

	docs := []engine.Document{
		{ID: "a", Title: "alpha"},
		{ID: "b", Title: "beta"},
	}
	_, err := m.BulkIndex(ctx, source, docs)
	require.NoError(t, err)

	if identical {
		_, err = m.BulkIndex(ctx, target, docs)
	} else {
		_, err = m.BulkIndex(ctx, target, docs[:1])
	}
	require.NoError(t, err)
}

func TestValidatePassesOnIdenticalIndices(t *testing.T) {
	m := engine.NewMemory()
	setupIndices(t, m, "src", "dst", true)

	v := New(m, Config{CountCheckEnabled: true, HashCheckEnabled: true})
	report, err := v.Validate(context.Background(), "src", "dst")
	require.NoError(t, err)
	require.True(t, report.Passed)
}

func TestValidateFailsOnCountMismatch(t *testing.T) {
	m := engine.NewMemory()
	setupIndices(t, m, "src", "dst", false)

	v := New(m, Config{CountCheckEnabled: true})
	report, err := v.Validate(context.Background(), "src", "dst")
	require.NoError(t, err)
	require.False(t, report.Passed)
}

func TestCheckOverlapSkippedWithoutSampleQueries(t *testing.T) {
	m := engine.NewMemory()
	setupIndices(t, m, "src", "dst", true)

	v := New(m, Config{OverlapCheckEnabled: true, TopK: 10, MinJaccard: 0.9})
	report, err := v.Validate(context.Background(), "src", "dst")
	require.NoError(t, err)
	require.True(t, report.Passed)
}

func TestOverlapStatsReportsMissingIDsPerSide(t *testing.T) {
	j, missingInTarget, missingInSource := overlapStats(
		[]string{"doc-1", "doc-2", "doc-3"},
		[]string{"doc-1", "doc-4", "doc-5"},
	)
	require.InDelta(t, 0.2, j, 1e-9)
	require.Equal(t, []string{"doc-2", "doc-3"}, missingInTarget)
	require.Equal(t, []string{"doc-4", "doc-5"}, missingInSource)
}

func TestFailureReasonsJoinsFailedCheckDetails(t *testing.T) {
	r := Report{Checks: []CheckResult{
		{Name: "count", Passed: false, Detail: "count mismatch: source=10 target=8"},
		{Name: "hash", Passed: true, Detail: "source=abc (n=10) target=abc (n=10)"},
	}}
	require.Equal(t, "count: count mismatch: source=10 target=8", r.FailureReasons())
}

func TestJaccardIdenticalSets(t *testing.T) {
	a := map[string]struct{}{"x": {}, "y": {}}
	require.Equal(t, 1.0, jaccard(a, a))
}

func TestJaccardDisjointSets(t *testing.T) {
	a := map[string]struct{}{"x": {}}
	b := map[string]struct{}{"y": {}}
	require.Equal(t, 0.0, jaccard(a, b))
}
