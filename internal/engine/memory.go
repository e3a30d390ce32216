package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/antflydb/searchctl/internal/apperr"
)

// Memory is an in-process Port implementation backing unit tests for the
// orchestrator, validator, and evaluation runner without a live engine.
// Search on Memory ignores the query: it returns every document of the index
// in ascending id order, each scored 1, paged by from/size — it exists to
// exercise control flow, not to validate ranking quality.
type Memory struct {
	mu      sync.Mutex
	indices map[string]map[string]Document
	aliases map[string]*AliasState
}

// NewMemory constructs an empty Memory engine.
func NewMemory() *Memory {
	return &Memory{
		indices: make(map[string]map[string]Document),
		aliases: make(map[string]*AliasState),
	}
}

func (m *Memory) CreateIndex(ctx context.Context, index string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.indices[index]; ok {
		return apperr.New(apperr.Conflict, "index %q already exists", index)
	}
	m.indices[index] = make(map[string]Document)
	return nil
}

func (m *Memory) IndexExists(ctx context.Context, index string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.indices[index]
	return ok, nil
}

func (m *Memory) DeleteIndex(ctx context.Context, index string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.indices[index]; !ok {
		return apperr.New(apperr.NotFound, "index %q not found", index)
	}
	delete(m.indices, index)
	return nil
}

func (m *Memory) Count(ctx context.Context, index string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs, ok := m.indices[index]
	if !ok {
		return 0, apperr.New(apperr.NotFound, "index %q not found", index)
	}
	return int64(len(docs)), nil
}

func (m *Memory) Scan(ctx context.Context, index string, fn func(Document) error) error {
	m.mu.Lock()
	docs, ok := m.indices[index]
	if !ok {
		m.mu.Unlock()
		return apperr.New(apperr.NotFound, "index %q not found", index)
	}
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	ordered := make([]Document, len(ids))
	for i, id := range ids {
		ordered[i] = docs[id]
	}
	m.mu.Unlock()

	for _, d := range ordered {
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) Search(ctx context.Context, index string, query NativeQuery, from, size int) (*SearchResponse, error) {
	var hits []SearchHit
	err := m.Scan(ctx, index, func(d Document) error {
		hits = append(hits, SearchHit{ID: d.ID, Score: 1, Document: d})
		return nil
	})
	if err != nil {
		return nil, err
	}
	total := int64(len(hits))
	if from >= len(hits) {
		return &SearchResponse{TotalHits: total, Hits: nil}, nil
	}
	end := from + size
	if end > len(hits) {
		end = len(hits)
	}
	return &SearchResponse{TotalHits: total, Hits: hits[from:end]}, nil
}

func (m *Memory) BulkIndex(ctx context.Context, index string, docs []Document) ([]BulkItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.indices[index]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "index %q not found", index)
	}
	items := make([]BulkItem, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			items[i] = BulkItem{Document: d, Error: apperr.New(apperr.BadRequest, "document missing id")}
			continue
		}
		target[d.ID] = d
		items[i] = BulkItem{Document: d}
	}
	return items, nil
}

func (m *Memory) Reindex(ctx context.Context, src, dst string) (int64, error) {
	m.mu.Lock()
	srcDocs, ok := m.indices[src]
	if !ok {
		m.mu.Unlock()
		return 0, apperr.New(apperr.NotFound, "index %q not found", src)
	}
	dstDocs, ok := m.indices[dst]
	if !ok {
		m.mu.Unlock()
		return 0, apperr.New(apperr.NotFound, "index %q not found", dst)
	}
	var n int64
	for id, d := range srcDocs {
		dstDocs[id] = d
		n++
	}
	m.mu.Unlock()
	return n, nil
}

func (m *Memory) UpdateAliases(ctx context.Context, actions []AliasAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range actions {
		if _, ok := m.indices[a.Index]; !ok {
			return apperr.New(apperr.NotFound, "index %q not found", a.Index)
		}
		if a.Type != AliasActionAdd && a.Type != AliasActionRemove {
			return apperr.New(apperr.BadRequest, "unknown alias action type %q", a.Type)
		}
	}

	for _, a := range actions {
		state, ok := m.aliases[a.Alias]
		if !ok {
			state = &AliasState{Alias: a.Alias}
			m.aliases[a.Alias] = state
		}
		switch a.Type {
		case AliasActionAdd:
			state.ReadIndices = appendUnique(state.ReadIndices, a.Index)
			if a.IsWriteIndex {
				state.WriteIndices = appendUnique(state.WriteIndices, a.Index)
			}
		case AliasActionRemove:
			state.ReadIndices = removeValue(state.ReadIndices, a.Index)
			state.WriteIndices = removeValue(state.WriteIndices, a.Index)
		default:
			return apperr.New(apperr.BadRequest, "unknown alias action type %q", a.Type)
		}
	}
	return nil
}

func (m *Memory) AliasState(ctx context.Context, alias string) (*AliasState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.aliases[alias]
	if !ok {
		return &AliasState{Alias: alias}, nil
	}
	cp := *state
	cp.ReadIndices = append([]string(nil), state.ReadIndices...)
	cp.WriteIndices = append([]string(nil), state.WriteIndices...)
	return &cp, nil
}

func (m *Memory) Refresh(ctx context.Context, index string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.indices[index]; !ok {
		return apperr.New(apperr.NotFound, "index %q not found", index)
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func appendUnique(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

func removeValue(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

var _ Port = (*Memory)(nil)
