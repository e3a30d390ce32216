// Package dataset loads the paired query sets and judgement sets the
// evaluation runner scores search quality against. The loaders validate id
// uniqueness and grade range; judgement coverage is checked separately by
// CheckCoverage and UnknownJudgementQueries.
package dataset

import "github.com/antflydb/searchctl/internal/querycomposer"

// Query is one evaluation query: a search request plus the id judgements
// are keyed against.
type Query struct {
	ID             string                       `json:"id"`
	Text           string                       `json:"text"`
	Intent         string                       `json:"intent,omitempty"`
	Filters        querycomposer.Filters        `json:"filters,omitempty"`
	Sort           querycomposer.SortMode       `json:"sort,omitempty"`
	MultiMatchMode querycomposer.MultiMatchMode `json:"multiMatchMode,omitempty"`
}

// QuerySet is a named, ordered collection of queries.
type QuerySet struct {
	Name    string  `json:"name"`
	Queries []Query `json:"queries"`
}

// Judgement is one graded relevance judgement: how relevant docID is to a
// query, on a 0-3 scale (0 = not relevant, 3 = highly relevant).
type Judgement struct {
	DocID string `json:"docId"`
	Grade int    `json:"grade"`
}

// JudgementSet maps a query id to its graded relevance judgements.
type JudgementSet struct {
	Name      string                 `json:"name"`
	ByQueryID map[string][]Judgement `json:"judgements"`
}

// MaxGrade is the highest graded relevance value a judgement may carry.
const MaxGrade = 3
