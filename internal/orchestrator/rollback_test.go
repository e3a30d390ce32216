package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antflydb/searchctl/internal/engine"
	"github.com/antflydb/searchctl/internal/validate"
)

func TestRevertAfterSuccessfulMigration(t *testing.T) {
	m := setupSource(t)
	validator := validate.New(m, validate.Config{CountCheckEnabled: true})
	o := New(m, validator, NewRetention(t.TempDir()), nil, nil)

	result := o.Run(context.Background(), Plan{Alias: "articles", SourceIndex: "articles_v1", TargetIndex: "articles_v2"})
	require.NoError(t, result.Err)

	rb := NewRollback(m)
	require.NoError(t, rb.Revert(context.Background(), "articles", "articles_v1", "articles_v2"))

	state, err := m.AliasState(context.Background(), "articles")
	require.NoError(t, err)
	require.Equal(t, []string{"articles_v1"}, state.WriteIndices)
}

func TestRevertRefusesUnexpectedAliasState(t *testing.T) {
	m := engine.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.CreateIndex(ctx, "articles_v1"))
	require.NoError(t, m.CreateIndex(ctx, "articles_v2"))
	require.NoError(t, m.UpdateAliases(ctx, []engine.AliasAction{
		{Type: engine.AliasActionAdd, Alias: "articles", Index: "articles_v1", IsWriteIndex: true},
	}))

	rb := NewRollback(m)
	// Alias is still pointed at v1, not v2, so a rollback from v2 must refuse.
	err := rb.Revert(ctx, "articles", "articles_v1", "articles_v2")
	require.Error(t, err)
}
