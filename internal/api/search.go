package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/antflydb/searchctl/internal/apperr"
	"github.com/antflydb/searchctl/internal/querycomposer"
)

// handleSearch implements GET /api/search: the public, read-only search
// surface, composed through the same query composer the eval runner and
// benchmarker use.
func (s *Server) handleSearch(c *gin.Context) {
	params, err := parseSearchParams(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	req := querycomposer.SearchRequest{
		Query:          params.Query,
		Filters:        params.Filters,
		Sort:           params.Sort,
		MultiMatchMode: params.MultiMatchMode,
		Page:           params.Page,
		PageSize:       params.Size,
		Highlight:      true,
	}.Normalized()

	native := querycomposer.Compose(req)
	resp, err := s.port.Search(c.Request.Context(), aliasName, native, req.From(), req.PageSize)
	if err != nil {
		fail(c, apperr.Wrap(apperr.EngineError, err, "searching"))
		return
	}

	ok(c, gin.H{
		"totalHits":  resp.TotalHits,
		"page":       req.Page,
		"pageSize":   req.PageSize,
		"hits":       resp.Hits,
		"tookMillis": resp.TookMillis,
	})
}

// handleSuggest implements GET /api/suggest: title-autocomplete over the
// live index.
func (s *Server) handleSuggest(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		badRequest(c, "q is required")
		return
	}
	size := 10
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(c, "size must be an integer >= 1")
			return
		}
		size = n
	}

	native := querycomposer.SuggestQuery(q, querycomposer.PopularityTuning{})
	if category := c.Query("category"); category != "" {
		sortClause := native[querycomposer.SortKey]
		delete(native, querycomposer.SortKey)
		wrapped := map[string]any{
			"bool": map[string]any{
				"must":   []map[string]any{native},
				"filter": []map[string]any{{"term": map[string]any{"category": category}}},
			},
		}
		if sortClause != nil {
			wrapped[querycomposer.SortKey] = sortClause
		}
		native = wrapped
	}

	resp, err := s.port.Search(c.Request.Context(), aliasName, native, 0, size)
	if err != nil {
		fail(c, apperr.Wrap(apperr.EngineError, err, "suggesting"))
		return
	}
	ok(c, gin.H{"hits": resp.Hits})
}

// handleHealth implements GET /api/health: a liveness probe backed by the
// engine port's Ping and the alias's current state.
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.port.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, envelope(http.StatusServiceUnavailable, "engine unreachable", gin.H{"error": err.Error()}))
		return
	}

	state, err := s.aliasMgr.CurrentState(c.Request.Context(), aliasName)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, envelope(http.StatusServiceUnavailable, "alias unavailable", gin.H{"error": err.Error()}))
		return
	}
	ok(c, gin.H{"status": "healthy", "alias": state})
}

// parseSearchParams parses GET /api/search's query string into a
// searchRequestParams-shaped SearchRequest source.
func parseSearchParams(c *gin.Context) (searchRequestParams, error) {
	var params searchRequestParams
	params.Query = c.Query("q")

	params.Filters = querycomposer.Filters{
		Category: c.Query("category"),
		Author:   c.Query("author"),
	}
	if tags := c.Query("tags"); tags != "" {
		params.Filters.Tags = strings.Split(tags, ",")
	}
	if from := c.Query("publishedFrom"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return params, apperr.New(apperr.BadRequest, "publishedFrom must be RFC3339")
		}
		params.Filters.PublishedAfter = &t
	}
	if to := c.Query("publishedTo"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return params, apperr.New(apperr.BadRequest, "publishedTo must be RFC3339")
		}
		params.Filters.PublishedBefore = &t
	}

	params.Sort = querycomposer.SortMode(c.Query("sort"))

	params.Page = 0
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return params, apperr.New(apperr.BadRequest, "page must be an integer >= 0")
		}
		params.Page = n
	}
	params.Size = 10
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return params, apperr.New(apperr.BadRequest, "size must be an integer >= 1")
		}
		params.Size = n
	}

	return params, nil
}

// searchRequestParams is the parsed form of GET /api/search's query string.
type searchRequestParams struct {
	Query          string
	Filters        querycomposer.Filters
	Sort           querycomposer.SortMode
	MultiMatchMode querycomposer.MultiMatchMode
	Page           int
	Size           int
}
