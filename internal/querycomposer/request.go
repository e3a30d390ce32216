package querycomposer

import "github.com/antflydb/searchctl/internal/engine"

// HighlightFields lists the fields the engine should return highlight
// fragments for when a request asks for them.
var HighlightFields = []string{"title", "summary", "body"}

// Highlight returns the engine-native highlight clause for req, or nil if
// highlighting wasn't requested.
func Highlight(req SearchRequest) map[string]any {
	if !req.Highlight {
		return nil
	}
	fields := make(map[string]any, len(HighlightFields))
	for _, f := range HighlightFields {
		fields[f] = map[string]any{}
	}
	return map[string]any{"fields": fields}
}

// SuggestQuery builds the engine-native query for the title-autocomplete
// suggest endpoint: a phrase-prefix match against
// titleAutocomplete (capped at 50 expansions), wrapped in a popularity-only
// field_value_factor function score, ordered by score then publishedAt
// descending. pop supplies the popularity tuning (pop.normalized
// fills in the engine's defaults).
func SuggestQuery(prefix string, pop PopularityTuning) engine.NativeQuery {
	match := map[string]any{
		"match_phrase_prefix": map[string]any{
			"titleAutocomplete": map[string]any{
				"query":          prefix,
				"max_expansions": 50,
			},
		},
	}
	pop = pop.normalized()
	out := engine.NativeQuery{
		"function_score": map[string]any{
			"query":      match,
			"functions":  []map[string]any{fieldValueFactorFunction(pop)},
			"score_mode": "sum",
			"boost_mode": "multiply",
		},
	}
	out[sortKey] = []map[string]any{
		{"_score": map[string]any{"order": "desc"}},
		{"publishedAt": map[string]any{"order": "desc"}},
	}
	return out
}
