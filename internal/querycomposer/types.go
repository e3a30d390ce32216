// Package querycomposer translates a SearchRequest into the engine-native
// scoring tree the Engine Port sends over the wire. Composition is a pure
// function: given the same SearchRequest it always produces the same
// NativeQuery, with no engine round trip and no hidden state.
package querycomposer

import "time"

// MultiMatchMode selects how the engine scores a query string against
// multiple text fields.
type MultiMatchMode string

const (
	BestFields  MultiMatchMode = "best_fields"
	MostFields  MultiMatchMode = "most_fields"
	CrossFields MultiMatchMode = "cross_fields"
)

// SortMode selects the ranking strategy applied on top of text relevance.
type SortMode string

const (
	SortRelevance  SortMode = "relevance"
	SortRecency    SortMode = "recency"
	SortPopularity SortMode = "popularity"
)

// PopularityMode selects how the popularity signal is folded into score.
type PopularityMode string

const (
	PopularityFieldValueFactor PopularityMode = "field_value_factor"
	PopularityRankFeature      PopularityMode = "rank_feature"
)

// Filters are conjunctive, non-scoring constraints applied alongside the
// text match.
type Filters struct {
	Category        string     `json:"category,omitempty"`
	Tags            []string   `json:"tags,omitempty"` // any-of
	Author          string     `json:"author,omitempty"`
	PublishedAfter  *time.Time `json:"publishedAtFrom,omitempty"`
	PublishedBefore *time.Time `json:"publishedAtTo,omitempty"`
}

// RecencyTuning configures the Gaussian decay function scoring document age
// against "now". Scale and Decay follow the engine's own Gaussian
// decay-function semantics: at age Scale, score has fallen to Decay.
type RecencyTuning struct {
	Enabled bool
	Scale   time.Duration // e.g. 30 * 24h for a "30d" half-scale
	Decay   float64       // (0, 1]
	Weight  float64       // > 0
}

// PopularityTuning configures how popularityScore folds into the score,
// either as a function_score field_value_factor (sort-dependent) or as a
// rank_feature clause folded directly into the scoring query.
type PopularityTuning struct {
	Enabled  bool
	Mode     PopularityMode
	Factor   float64 // field_value_factor multiplier
	Weight   float64 // > 0, field_value_factor function weight
	Modifier string  // field_value_factor modifier, e.g. "log1p"
	Missing  float64 // field_value_factor default for documents lacking the field
	Pivot    float64 // rank_feature saturation pivot
	Boost    float64 // rank_feature boost
}

// normalized fills in default weight/modifier/pivot/boost values for
// zero-valued fields, leaving Mode untouched (callers that care about the
// default mode, e.g. SearchRequest.Normalized, set it beforehand).
func (p PopularityTuning) normalized() PopularityTuning {
	if p.Factor <= 0 {
		p.Factor = 1.0
	}
	if p.Weight <= 0 {
		p.Weight = 1.0
	}
	if p.Modifier == "" {
		p.Modifier = "log1p"
	}
	if p.Pivot <= 0 {
		p.Pivot = 10
	}
	if p.Boost <= 0 {
		p.Boost = 1.0
	}
	return p
}

// RankingTuning groups the knobs that shape how recency and popularity fold
// into relevance scoring, mirroring SearchRequest.rankingTuning.
type RankingTuning struct {
	Recency    RecencyTuning
	Popularity PopularityTuning
	// ScoreMode/BoostMode feed function_score's own score_mode/boost_mode
	// when either tuning produces at least one scoring function.
	ScoreMode string
	BoostMode string
}

// SearchRequest is the caller-facing description of a search: what to match,
// how to filter, how to rank, and how to page.
type SearchRequest struct {
	Query          string
	MultiMatchMode MultiMatchMode
	Filters        Filters
	Sort           SortMode
	PopularityMode PopularityMode
	RankingTuning  RankingTuning
	TargetIndex    string // overrides the default alias/index when set
	Page           int
	PageSize       int
	Highlight      bool
}

// Normalized returns a copy of r with defaults filled in for zero-value
// fields, so composition never has to special-case an unset mode.
func (r SearchRequest) Normalized() SearchRequest {
	if r.MultiMatchMode == "" {
		r.MultiMatchMode = MostFields
	}
	if r.Sort == "" {
		r.Sort = SortRelevance
	}
	if r.PopularityMode != "" {
		r.RankingTuning.Popularity.Mode = r.PopularityMode
	}
	if r.RankingTuning.Popularity.Mode == "" {
		r.RankingTuning.Popularity.Mode = PopularityFieldValueFactor
	}
	r.PopularityMode = r.RankingTuning.Popularity.Mode
	// Popularity sort in rank_feature mode scores through the bool query's
	// rank_feature clause, which only fires when the tuning is enabled.
	if r.Sort == SortPopularity && r.PopularityMode == PopularityRankFeature {
		r.RankingTuning.Popularity.Enabled = true
	}
	if r.PageSize <= 0 {
		r.PageSize = 10
	}
	if r.Page < 0 {
		r.Page = 0
	}

	rec := &r.RankingTuning.Recency
	if rec.Scale <= 0 {
		rec.Scale = 30 * 24 * time.Hour
	}
	if rec.Decay <= 0 {
		rec.Decay = 0.5
	}
	if rec.Weight <= 0 {
		rec.Weight = 1.0
	}

	r.RankingTuning.Popularity = r.RankingTuning.Popularity.normalized()

	if r.RankingTuning.ScoreMode == "" {
		r.RankingTuning.ScoreMode = "sum"
	}
	if r.RankingTuning.BoostMode == "" {
		r.RankingTuning.BoostMode = "sum"
	}
	return r
}

// From computes the engine "from" offset for the request's page/pageSize.
func (r SearchRequest) From() int {
	return r.Page * r.PageSize
}
