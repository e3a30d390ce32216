package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryScanOrdersAscendingByID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.CreateIndex(ctx, "articles"))

	_, err := m.BulkIndex(ctx, "articles", []Document{
		{ID: "c"}, {ID: "a"}, {ID: "b"},
	})
	require.NoError(t, err)

	var seen []string
	require.NoError(t, m.Scan(ctx, "articles", func(d Document) error {
		seen = append(seen, d.ID)
		return nil
	}))
	require.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestMemoryUpdateAliasesAtomic(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.CreateIndex(ctx, "articles_v1"))
	require.NoError(t, m.CreateIndex(ctx, "articles_v2"))

	require.NoError(t, m.UpdateAliases(ctx, []AliasAction{
		{Type: AliasActionAdd, Alias: "articles", Index: "articles_v1", IsWriteIndex: true},
	}))

	state, err := m.AliasState(ctx, "articles")
	require.NoError(t, err)
	require.Equal(t, []string{"articles_v1"}, state.ReadIndices)
	require.Equal(t, []string{"articles_v1"}, state.WriteIndices)

	require.NoError(t, m.UpdateAliases(ctx, []AliasAction{
		{Type: AliasActionRemove, Alias: "articles", Index: "articles_v1"},
		{Type: AliasActionAdd, Alias: "articles", Index: "articles_v2", IsWriteIndex: true},
	}))

	state, err = m.AliasState(ctx, "articles")
	require.NoError(t, err)
	require.Equal(t, []string{"articles_v2"}, state.ReadIndices)
	require.Equal(t, []string{"articles_v2"}, state.WriteIndices)
}

func TestMemoryUpdateAliasesUnknownIndexFails(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	err := m.UpdateAliases(ctx, []AliasAction{
		{Type: AliasActionAdd, Alias: "articles", Index: "missing"},
	})
	require.Error(t, err)
}

func TestMemoryBulkIndexRejectsMissingID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.CreateIndex(ctx, "articles"))

	items, err := m.BulkIndex(ctx, "articles", []Document{{ID: "ok"}, {ID: ""}})
	require.NoError(t, err)
	require.NoError(t, items[0].Error)
	require.Error(t, items[1].Error)
}
