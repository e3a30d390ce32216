package querycomposer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComposeRelevanceHasNoFunctionScoreByDefault(t *testing.T) {
	q := Compose(SearchRequest{Query: "rust async", Sort: SortRelevance})
	_, hasFunctionScore := q["function_score"]
	require.False(t, hasFunctionScore)

	mm, ok := q["multi_match"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "rust async", mm["query"])
	require.Equal(t, string(MostFields), mm["type"])
	require.Equal(t, 0.2, mm["tie_breaker"])
}

func TestComposeRelevanceWithTuningEnabledAddsBothFunctions(t *testing.T) {
	q := Compose(SearchRequest{
		Query: "x",
		Sort:  SortRelevance,
		RankingTuning: RankingTuning{
			Recency:    RecencyTuning{Enabled: true},
			Popularity: PopularityTuning{Enabled: true, Mode: PopularityFieldValueFactor},
		},
	})
	fs := q["function_score"].(map[string]any)
	functions := fs["functions"].([]map[string]any)
	require.Len(t, functions, 2)
	_, hasGauss := functions[0]["gauss"]
	require.True(t, hasGauss)
	_, hasFVF := functions[1]["field_value_factor"]
	require.True(t, hasFVF)
	require.Equal(t, "sum", fs["score_mode"])
	require.Equal(t, "sum", fs["boost_mode"])
}

func TestComposeRelevanceSkipsFieldValueFactorWhenModeIsRankFeature(t *testing.T) {
	q := Compose(SearchRequest{
		Query: "x",
		Sort:  SortRelevance,
		RankingTuning: RankingTuning{
			Popularity: PopularityTuning{Enabled: true, Mode: PopularityRankFeature},
		},
	})
	_, hasFunctionScore := q["function_score"]
	require.False(t, hasFunctionScore, "rank_feature mode contributes via the query, not function_score")

	boolClause := q["bool"].(map[string]any)
	should := boolClause["should"].([]map[string]any)
	require.Len(t, should, 1)
	_, ok := should[0]["rank_feature"]
	require.True(t, ok)
}

func TestComposeBestFieldsHasNoTieBreaker(t *testing.T) {
	q := Compose(SearchRequest{Query: "x", MultiMatchMode: BestFields})
	mm := q["multi_match"].(map[string]any)
	_, ok := mm["tie_breaker"]
	require.False(t, ok)
}

func TestComposeAppliesFilters(t *testing.T) {
	after := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	q := Compose(SearchRequest{
		Query: "x",
		Filters: Filters{
			Category:       "engineering",
			Tags:           []string{"go", "search"},
			PublishedAfter: &after,
		},
	})
	boolClause, ok := q["bool"].(map[string]any)
	require.True(t, ok)
	filters := boolClause["filter"].([]map[string]any)
	require.Len(t, filters, 3)
}

func TestComposeRecencySortUsesDecayOnlyAndOuterSort(t *testing.T) {
	q := Compose(SearchRequest{Query: "x", Sort: SortRecency})
	fs := q["function_score"].(map[string]any)
	functions := fs["functions"].([]map[string]any)
	require.Len(t, functions, 1, "RECENCY applies recency-decay only")
	_, hasGauss := functions[0]["gauss"]
	require.True(t, hasGauss)

	outerSort, ok := q[sortKey].([]map[string]any)
	require.True(t, ok)
	require.Len(t, outerSort, 1)
	publishedAt := outerSort[0]["publishedAt"].(map[string]any)
	require.Equal(t, "desc", publishedAt["order"])
}

func TestComposePopularitySortUsesFieldValueFactorOnly(t *testing.T) {
	q := Compose(SearchRequest{
		Query: "x",
		Sort:  SortPopularity,
	})
	fs := q["function_score"].(map[string]any)
	functions := fs["functions"].([]map[string]any)
	require.Len(t, functions, 1, "POPULARITY applies field-value-factor only")
	_, ok := functions[0]["field_value_factor"]
	require.True(t, ok)
}

func TestComposeAttachesHighlightClauseWhenRequested(t *testing.T) {
	q := Compose(SearchRequest{Query: "x", Highlight: true})
	h, ok := q[HighlightKey].(map[string]any)
	require.True(t, ok)
	fields := h["fields"].(map[string]any)
	require.Contains(t, fields, "title")
	require.Contains(t, fields, "summary")
	require.Contains(t, fields, "body")

	q = Compose(SearchRequest{Query: "x"})
	_, ok = q[HighlightKey]
	require.False(t, ok)
}

func TestFieldValueFactorCarriesFactorAndModifier(t *testing.T) {
	q := Compose(SearchRequest{Query: "x", Sort: SortPopularity})
	fs := q["function_score"].(map[string]any)
	functions := fs["functions"].([]map[string]any)
	fvf := functions[0]["field_value_factor"].(map[string]any)
	require.Equal(t, "popularityScore", fvf["field"])
	require.Equal(t, 1.0, fvf["factor"])
	require.Equal(t, "log1p", fvf["modifier"])
}

func TestComposePopularitySortWithRankFeatureSkipsFunctionScore(t *testing.T) {
	q := Compose(SearchRequest{
		Query:          "x",
		Sort:           SortPopularity,
		PopularityMode: PopularityRankFeature,
	})
	_, hasFunctionScore := q["function_score"]
	require.False(t, hasFunctionScore)

	boolClause := q["bool"].(map[string]any)
	should := boolClause["should"].([]map[string]any)
	require.Len(t, should, 1)
	_, ok := should[0]["rank_feature"]
	require.True(t, ok)
}

func TestSearchRequestFromComputesOffset(t *testing.T) {
	req := SearchRequest{Page: 2, PageSize: 10}
	require.Equal(t, 20, req.From())
}

func TestHighlightNilWhenNotRequested(t *testing.T) {
	require.Nil(t, Highlight(SearchRequest{Highlight: false}))
	h := Highlight(SearchRequest{Highlight: true})
	require.NotNil(t, h)
}

func TestSuggestQueryCapsExpansions(t *testing.T) {
	q := SuggestQuery("rus", PopularityTuning{})
	fs := q["function_score"].(map[string]any)
	match := fs["query"].(map[string]any)
	mpp := match["match_phrase_prefix"].(map[string]any)
	field := mpp["titleAutocomplete"].(map[string]any)
	require.Equal(t, 50, field["max_expansions"])
}

func TestSuggestQueryOrdersByScoreThenPublishedAt(t *testing.T) {
	q := SuggestQuery("rus", PopularityTuning{})
	sort := q[sortKey].([]map[string]any)
	require.Len(t, sort, 2)
	require.Contains(t, sort[0], "_score")
	require.Contains(t, sort[1], "publishedAt")
}

func TestFormatScaleRendersDayShorthand(t *testing.T) {
	require.Equal(t, "30d", formatScale(30*24*time.Hour))
	require.Equal(t, "12h", formatScale(12*time.Hour))
}
