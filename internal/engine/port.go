package engine

import "context"

// Port is the boundary every core package drives the search engine through.
// Implementations must honor one hard invariant: Scan iterates documents in
// ascending document-id order, since the reindex validator's content hash
// depends on a total order to be deterministic.
type Port interface {
	// CreateIndex creates a new concrete index with the given name.
	CreateIndex(ctx context.Context, index string) error

	// IndexExists reports whether a concrete index already exists.
	IndexExists(ctx context.Context, index string) (bool, error)

	// DeleteIndex removes a concrete index. It does not check alias
	// bindings: an index that is still an alias's read or write target is
	// deleted all the same, so callers switch the alias away first.
	DeleteIndex(ctx context.Context, index string) error

	// Count returns the number of documents in the named index.
	Count(ctx context.Context, index string) (int64, error)

	// Scan streams every document in the named index in ascending
	// document-id order, invoking fn once per document. Scanning stops and
	// returns fn's error the first time fn returns a non-nil error.
	Scan(ctx context.Context, index string, fn func(Document) error) error

	// Search runs a native query against the named index (or alias) and
	// returns the scored hits.
	Search(ctx context.Context, index string, query NativeQuery, from, size int) (*SearchResponse, error)

	// BulkIndex writes docs to the named index in a single engine round
	// trip, returning a per-item outcome for each document in the same
	// order they were given.
	BulkIndex(ctx context.Context, index string, docs []Document) ([]BulkItem, error)

	// Reindex copies every document from src into dst using the engine's
	// native reindex operation (or Scan+BulkIndex, for implementations
	// without one), returning the number of documents copied.
	Reindex(ctx context.Context, src, dst string) (int64, error)

	// UpdateAliases applies a set of alias actions atomically: either all
	// actions take effect or none do.
	UpdateAliases(ctx context.Context, actions []AliasAction) error

	// AliasState returns the current read/write index sets for an alias.
	AliasState(ctx context.Context, alias string) (*AliasState, error)

	// Refresh makes recently indexed documents visible to Search and Count.
	Refresh(ctx context.Context, index string) error

	// Ping reports whether the engine is reachable, for readiness checks.
	Ping(ctx context.Context) error
}
