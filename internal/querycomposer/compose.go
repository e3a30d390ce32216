package querycomposer

import (
	"fmt"
	"time"

	"github.com/antflydb/searchctl/internal/engine"
)

// textFieldBoosts lists the fields a query string is matched against, with
// the boost weighting title and summary more heavily than body.
var textFieldBoosts = []string{"title^4", "summary^2", "body"}

// SortKey is a reserved top-level key the composer uses to carry an outer
// sort clause (RECENCY's and suggest's publishedAt-descending tiebreak)
// alongside the scoring tree, mirroring internal/engine's HTTPClient.Search,
// which hoists it into the request envelope's own "sort" field. Exported so
// callers that rewrap a composed query (e.g. the suggest handler's optional
// category filter) can relocate it onto the new outer map.
const SortKey = "_sort"

// sortKey is an unexported alias kept for brevity at existing call sites
// within this package.
const sortKey = SortKey

// HighlightKey is the reserved top-level key carrying the highlight clause
// alongside the scoring tree, hoisted into the request envelope's own
// "highlight" field by the HTTP port the same way SortKey is.
const HighlightKey = "_highlight"

// Compose translates req into the engine-native scoring tree. It is a pure
// function of req: the same request always produces the same query.
func Compose(req SearchRequest) engine.NativeQuery {
	req = req.Normalized()

	textQuery := buildMultiMatch(req)
	scored := wrapWithRankFeature(textQuery, req.RankingTuning.Popularity)
	filtered := wrapWithFilters(scored, req.Filters)
	out := wrapWithFunctionScore(filtered, req)

	if req.Sort == SortRecency {
		out[sortKey] = []map[string]any{
			{"publishedAt": map[string]any{"order": "desc"}},
		}
	}
	if h := Highlight(req); h != nil {
		out[HighlightKey] = h
	}
	return out
}

func buildMultiMatch(req SearchRequest) map[string]any {
	multiMatch := map[string]any{
		"query":  req.Query,
		"fields": textFieldBoosts,
		"type":   string(req.MultiMatchMode),
	}
	if req.MultiMatchMode == MostFields {
		multiMatch["tie_breaker"] = 0.2
	}
	return map[string]any{
		"multi_match": multiMatch,
	}
}

// wrapWithRankFeature adds popularityScore as a non-filter scoring clause
// when popularity tuning is enabled and its mode is RANK_FEATURE. This is
// independent of sort: unlike field_value_factor (which only appears inside
// the sort-dependent function_score wrapper), rank_feature folds into the
// base query itself via a "should" clause, so it always contributes to
// relevance regardless of which sort the request asks for.
func wrapWithRankFeature(textQuery map[string]any, pop PopularityTuning) map[string]any {
	if !pop.Enabled || pop.Mode != PopularityRankFeature {
		return textQuery
	}
	rankFeature := map[string]any{
		"rank_feature": map[string]any{
			"field":      "popularityScore",
			"boost":      pop.Boost,
			"saturation": map[string]any{"pivot": pop.Pivot},
		},
	}
	return map[string]any{
		"bool": map[string]any{
			"must":   []map[string]any{textQuery},
			"should": []map[string]any{rankFeature},
		},
	}
}

func wrapWithFilters(textQuery map[string]any, f Filters) map[string]any {
	var filterClauses []map[string]any

	if f.Category != "" {
		filterClauses = append(filterClauses, map[string]any{
			"term": map[string]any{"category": f.Category},
		})
	}
	if len(f.Tags) > 0 {
		filterClauses = append(filterClauses, map[string]any{
			"terms": map[string]any{"tags": f.Tags},
		})
	}
	if f.Author != "" {
		filterClauses = append(filterClauses, map[string]any{
			"term": map[string]any{"author": f.Author},
		})
	}
	if f.PublishedAfter != nil || f.PublishedBefore != nil {
		rangeClause := map[string]any{}
		if f.PublishedAfter != nil {
			rangeClause["gte"] = f.PublishedAfter.Format(time.RFC3339)
		}
		if f.PublishedBefore != nil {
			rangeClause["lte"] = f.PublishedBefore.Format(time.RFC3339)
		}
		filterClauses = append(filterClauses, map[string]any{
			"range": map[string]any{"publishedAt": rangeClause},
		})
	}

	if len(filterClauses) == 0 {
		return textQuery
	}

	// textQuery may already be a bool clause (wrapWithRankFeature); either
	// way it belongs under "must" with the filters conjunctively ANDed in
	// as non-scoring "filter" clauses.
	return map[string]any{
		"bool": map[string]any{
			"must":   []map[string]any{textQuery},
			"filter": filterClauses,
		},
	}
}

// wrapWithFunctionScore applies the recency-decay and popularity
// field-value-factor scoring functions according to req.Sort:
//
//   - RELEVANCE: recency-decay (if enabled) and field-value-factor (if
//     enabled and mode == FIELD_VALUE_FACTOR), both optional.
//   - RECENCY: recency-decay only, unconditionally (the sort choice is the
//     enable signal).
//   - POPULARITY: field-value-factor only, unconditionally.
//
// If no function applies, query is returned unwrapped.
func wrapWithFunctionScore(query map[string]any, req SearchRequest) map[string]any {
	var functions []map[string]any

	switch req.Sort {
	case SortRelevance:
		if req.RankingTuning.Recency.Enabled {
			functions = append(functions, recencyFunction(req.RankingTuning.Recency))
		}
		if req.RankingTuning.Popularity.Enabled && req.RankingTuning.Popularity.Mode == PopularityFieldValueFactor {
			functions = append(functions, fieldValueFactorFunction(req.RankingTuning.Popularity))
		}
	case SortRecency:
		functions = append(functions, recencyFunction(req.RankingTuning.Recency))
	case SortPopularity:
		// In rank_feature mode the popularity signal is already folded into
		// the bool query; doubling it up with field_value_factor would count
		// popularity twice.
		if req.RankingTuning.Popularity.Mode != PopularityRankFeature {
			functions = append(functions, fieldValueFactorFunction(req.RankingTuning.Popularity))
		}
	}

	if len(functions) == 0 {
		return query
	}

	return map[string]any{
		"function_score": map[string]any{
			"query":      query,
			"functions":  functions,
			"score_mode": req.RankingTuning.ScoreMode,
			"boost_mode": req.RankingTuning.BoostMode,
		},
	}
}

func recencyFunction(r RecencyTuning) map[string]any {
	return map[string]any{
		"gauss": map[string]any{
			"publishedAt": map[string]any{
				"origin": "now",
				"scale":  formatScale(r.Scale),
				"decay":  r.Decay,
			},
		},
		"weight": r.Weight,
	}
}

func fieldValueFactorFunction(p PopularityTuning) map[string]any {
	return map[string]any{
		"field_value_factor": map[string]any{
			"field":    "popularityScore",
			"factor":   p.Factor,
			"modifier": p.Modifier,
			"missing":  p.Missing,
		},
		"weight": p.Weight,
	}
}

// formatScale renders d as the engine's duration-literal shorthand ("30d",
// "12h") when it divides evenly, falling back to Go's own duration string
// otherwise.
func formatScale(d time.Duration) string {
	switch {
	case d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return d.String()
	}
}
