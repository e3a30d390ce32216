// Package engine defines the Engine Port: the boundary between searchctl's
// core orchestration/eval logic and the external full-text search engine it
// drives. Everything above this package only ever talks to the Port
// interface, never to a concrete HTTP client, so the orchestrator and
// evaluation runner can be exercised against an in-memory fake.
package engine

import "time"

// Document is the canonical record shape indexed and retrieved across the
// control plane: content fields the query composer matches against, plus
// the structured fields used for filtering, recency decay, and popularity
// boosting.
type Document struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	TitleAutocomplete string    `json:"titleAutocomplete,omitempty"`
	Summary           string    `json:"summary,omitempty"`
	Body              string    `json:"body"`
	Category          string    `json:"category,omitempty"`
	Tags              []string  `json:"tags,omitempty"`
	Author            string    `json:"author,omitempty"`
	PublishedAt       time.Time `json:"publishedAt"`
	Popularity        float64   `json:"popularityScore"`
}

// AliasState describes which concrete indices an alias currently resolves
// to for reads and writes. A healthy alias has exactly one write target;
// it may have multiple read targets during a migration window.
type AliasState struct {
	Alias        string   `json:"alias"`
	ReadIndices  []string `json:"readIndices"`
	WriteIndices []string `json:"writeIndices"`
}

// AliasAction is one step of an atomic alias-update transaction.
type AliasAction struct {
	Type         AliasActionType `json:"type"`
	Alias        string          `json:"alias"`
	Index        string          `json:"index"`
	IsWriteIndex bool            `json:"isWriteIndex,omitempty"`
}

// AliasActionType enumerates the kinds of alias mutation the engine applies
// atomically in a single request.
type AliasActionType string

const (
	AliasActionAdd    AliasActionType = "add"
	AliasActionRemove AliasActionType = "remove"
)

// BulkItem pairs a document with the per-item outcome of a bulk index call.
type BulkItem struct {
	Document Document
	Error    error
}

// SearchHit is one scored result from the engine, carrying whatever
// highlight fragments the engine produced for it.
type SearchHit struct {
	ID         string              `json:"id"`
	Score      float64             `json:"score"`
	Document   Document            `json:"document"`
	Highlights map[string][]string `json:"highlights,omitempty"`
}

// SearchResponse is the raw engine response to a native query, before the
// query composer's caller maps it into evaluation or API-facing shapes.
type SearchResponse struct {
	TotalHits  int64       `json:"totalHits"`
	Hits       []SearchHit `json:"hits"`
	TookMillis int64       `json:"tookMillis"`
}

// NativeQuery is the engine-native scoring tree produced by the query
// composer. It is opaque to everything except the concrete Port
// implementation that serializes it onto the wire.
type NativeQuery = map[string]any
