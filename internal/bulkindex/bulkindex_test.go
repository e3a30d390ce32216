package bulkindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antflydb/searchctl/internal/engine"
)

// flakyPort fails BulkIndex for specific document ids a fixed number of
// times before succeeding, to exercise the retry-only-failed-items path.
type flakyPort struct {
	engine.Port
	failUntil map[string]int
	attempts  map[string]int
}

func (p *flakyPort) BulkIndex(ctx context.Context, index string, docs []engine.Document) ([]engine.BulkItem, error) {
	items := make([]engine.BulkItem, len(docs))
	for i, d := range docs {
		p.attempts[d.ID]++
		if p.attempts[d.ID] <= p.failUntil[d.ID] {
			items[i] = engine.BulkItem{Document: d, Error: errBoom}
		} else {
			items[i] = engine.BulkItem{Document: d}
		}
	}
	return items, nil
}

var errBoom = &testErr{"boom"}

type testErr struct{ msg string }

func (e *testErr) Error() string { return e.msg }

func TestIndexRetriesOnlyFailedItems(t *testing.T) {
	port := &flakyPort{
		failUntil: map[string]int{"a": 1, "b": 0},
		attempts:  map[string]int{},
	}
	ix := New(port, Config{ChunkSize: 10, MaxRetries: 2}, nil)

	result, err := ix.Index(context.Background(), "articles", []engine.Document{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)
	require.Equal(t, 2, result.Succeeded)
	require.Empty(t, result.Failed)
	require.Equal(t, 2, port.attempts["a"])
	require.Equal(t, 1, port.attempts["b"])
}

func TestIndexGivesUpAfterMaxRetries(t *testing.T) {
	port := &flakyPort{
		failUntil: map[string]int{"a": 100},
		attempts:  map[string]int{},
	}
	ix := New(port, Config{ChunkSize: 10, MaxRetries: 2}, nil)

	result, err := ix.Index(context.Background(), "articles", []engine.Document{{ID: "a"}})
	require.NoError(t, err)
	require.Equal(t, 0, result.Succeeded)
	require.Len(t, result.Failed, 1)
	require.Equal(t, 3, port.attempts["a"]) // initial + 2 retries
}

// transportFlakyPort fails the whole BulkIndex call (a transport-level
// error) a fixed number of times before succeeding, instead of failing
// individual items.
type transportFlakyPort struct {
	engine.Port
	failCalls int
	calls     int
}

func (p *transportFlakyPort) BulkIndex(ctx context.Context, index string, docs []engine.Document) ([]engine.BulkItem, error) {
	p.calls++
	if p.calls <= p.failCalls {
		return nil, errBoom
	}
	items := make([]engine.BulkItem, len(docs))
	for i, d := range docs {
		items[i] = engine.BulkItem{Document: d}
	}
	return items, nil
}

func TestIndexRetriesWholeChunkOnTransportError(t *testing.T) {
	port := &transportFlakyPort{failCalls: 1}
	ix := New(port, Config{ChunkSize: 10, MaxRetries: 2}, nil)

	result, err := ix.Index(context.Background(), "articles", []engine.Document{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)
	require.Equal(t, 2, result.Succeeded)
	require.Empty(t, result.Failed)
	require.Equal(t, 2, port.calls)
}

func TestIndexFailsItemsAfterTransportErrorExhaustsRetries(t *testing.T) {
	port := &transportFlakyPort{failCalls: 100}
	ix := New(port, Config{ChunkSize: 10, MaxRetries: 2}, nil)

	result, err := ix.Index(context.Background(), "articles", []engine.Document{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)
	require.Equal(t, 0, result.Succeeded)
	require.Len(t, result.Failed, 2)
	require.Equal(t, 3, port.calls)
}

func TestIndexChunksLargeDocumentSets(t *testing.T) {
	port := &flakyPort{failUntil: map[string]int{}, attempts: map[string]int{}}
	ix := New(port, Config{ChunkSize: 2, MaxRetries: 0}, nil)

	docs := []engine.Document{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}
	result, err := ix.Index(context.Background(), "articles", docs)
	require.NoError(t, err)
	require.Equal(t, 5, result.Succeeded)
}
