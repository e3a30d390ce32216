package evalrun

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antflydb/searchctl/internal/dataset"
	"github.com/antflydb/searchctl/internal/engine"
)

func TestRunRejectsUncoveredQuerySet(t *testing.T) {
	m := engine.NewMemory()
	r := New(m, Config{TopK: 10}, nil, nil)

	qs := &dataset.QuerySet{Queries: []dataset.Query{{ID: "q1", Text: "x"}}}
	js := &dataset.JudgementSet{ByQueryID: map[string][]dataset.Judgement{}}

	_, err := r.Run(context.Background(), "articles", qs, js)
	require.Error(t, err)
}

func TestRunScoresEveryQuery(t *testing.T) {
	m := engine.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.CreateIndex(ctx, "articles"))
	_, err := m.BulkIndex(ctx, "articles", []engine.Document{
		{ID: "d1", Title: "rust async runtime"},
		{ID: "d2", Title: "go concurrency"},
	})
	require.NoError(t, err)

	r := New(m, Config{TopK: 10, MaxConcurrency: 2}, nil, nil)

	qs := &dataset.QuerySet{Queries: []dataset.Query{{ID: "q1", Text: "rust"}, {ID: "q2", Text: "go"}}}
	js := &dataset.JudgementSet{ByQueryID: map[string][]dataset.Judgement{
		"q1": {{DocID: "d1", Grade: 3}},
		"q2": {{DocID: "d2", Grade: 2}},
	}}

	report, err := r.Run(ctx, "articles", qs, js)
	require.NoError(t, err)
	require.Len(t, report.Per, 2)
	require.InDelta(t, 1.0, report.Aggregate.MeanRecall, 1e-9)
}
