package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/decoder"

	"github.com/antflydb/searchctl/internal/apperr"
)

// HTTPClient is a Port implementation that drives a Elasticsearch/OpenSearch-
// compatible engine over its REST API. It translates Port calls into the
// engine's native index/_search/_bulk/_aliases wire shapes and maps engine
// error responses onto apperr kinds.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	template   []byte
}

// NewHTTPClient constructs an HTTPClient against baseURL (e.g.
// "http://localhost:9200"), using httpClient for transport. A nil
// httpClient falls back to http.DefaultClient.
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPClient{httpClient: httpClient, baseURL: baseURL}
}

func (c *HTTPClient) sendRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading http response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

func engineErr(status int, body []byte) error {
	switch status {
	case http.StatusNotFound:
		return apperr.New(apperr.NotFound, "engine: %s", string(body))
	case http.StatusConflict:
		return apperr.New(apperr.Conflict, "engine: %s", string(body))
	case http.StatusBadRequest:
		return apperr.New(apperr.BadRequest, "engine: %s", string(body))
	default:
		return apperr.New(apperr.EngineError, "engine returned status %d: %s", status, string(body))
	}
}

// SetIndexTemplate sets the JSON body (settings and mappings) sent with
// every CreateIndex call, so each generation is created from the same
// template. A nil template creates indices with engine defaults.
func (c *HTTPClient) SetIndexTemplate(template []byte) { c.template = template }

func (c *HTTPClient) CreateIndex(ctx context.Context, index string) error {
	var body io.Reader
	if len(c.template) > 0 {
		body = bytes.NewReader(c.template)
	}
	_, status, err := c.sendRequest(ctx, http.MethodPut, "/"+url.PathEscape(index), body)
	if err != nil {
		return fmt.Errorf("creating index: %w", err)
	}
	if status >= 300 {
		return fmt.Errorf("creating index: %w", engineErr(status, nil))
	}
	return nil
}

func (c *HTTPClient) IndexExists(ctx context.Context, index string) (bool, error) {
	_, status, err := c.sendRequest(ctx, http.MethodHead, "/"+url.PathEscape(index), nil)
	if err != nil {
		return false, fmt.Errorf("checking index existence: %w", err)
	}
	return status == http.StatusOK, nil
}

func (c *HTTPClient) DeleteIndex(ctx context.Context, index string) error {
	_, status, err := c.sendRequest(ctx, http.MethodDelete, "/"+url.PathEscape(index), nil)
	if err != nil {
		return fmt.Errorf("deleting index: %w", err)
	}
	if status >= 300 {
		return fmt.Errorf("deleting index: %w", engineErr(status, nil))
	}
	return nil
}

type countResponse struct {
	Count int64 `json:"count"`
}

func (c *HTTPClient) Count(ctx context.Context, index string) (int64, error) {
	body, status, err := c.sendRequest(ctx, http.MethodGet, "/"+url.PathEscape(index)+"/_count", nil)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	if status >= 300 {
		return 0, fmt.Errorf("counting documents: %w", engineErr(status, body))
	}
	var cr countResponse
	if err := sonic.Unmarshal(body, &cr); err != nil {
		return 0, fmt.Errorf("parsing count response: %w", err)
	}
	return cr.Count, nil
}

type scrollHit struct {
	ID     string   `json:"_id"`
	Source Document `json:"_source"`
}

type scrollResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Hits []scrollHit `json:"hits"`
	} `json:"hits"`
}

// Scan streams documents via the engine's scroll API, ordered ascending by
// document id: the initial search carries a sort on the id field, and the
// scroll preserves that ordering across pages.
func (c *HTTPClient) Scan(ctx context.Context, index string, fn func(Document) error) error {
	path := "/" + url.PathEscape(index) + "/_search?scroll=1m"
	reqBody := []byte(`{"sort":[{"id":"asc"}],"size":500,"query":{"match_all":{}}}`)

	body, status, err := c.sendRequest(ctx, http.MethodPost, path, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("scanning index: %w", err)
	}
	if status >= 300 {
		return fmt.Errorf("scanning index: %w", engineErr(status, body))
	}

	for {
		var sr scrollResponse
		if err := sonic.Unmarshal(body, &sr); err != nil {
			return fmt.Errorf("parsing scroll response: %w", err)
		}
		if len(sr.Hits.Hits) == 0 {
			return nil
		}
		for _, h := range sr.Hits.Hits {
			doc := h.Source
			if doc.ID == "" {
				doc.ID = h.ID
			}
			if err := fn(doc); err != nil {
				return err
			}
		}

		scrollReq, _ := sonic.Marshal(map[string]any{"scroll": "1m", "scroll_id": sr.ScrollID})
		body, status, err = c.sendRequest(ctx, http.MethodPost, "/_search/scroll", bytes.NewReader(scrollReq))
		if err != nil {
			return fmt.Errorf("continuing scroll: %w", err)
		}
		if status >= 300 {
			return fmt.Errorf("continuing scroll: %w", engineErr(status, body))
		}
	}
}

// sortKey and highlightKey are reserved top-level keys the query composer
// uses to carry an outer sort clause (e.g. RECENCY's publishedAt-descending
// tiebreak) and a highlight clause alongside the scoring tree. Search hoists
// them into the request envelope's own "sort"/"highlight" fields rather than
// forwarding them as part of "query".
const (
	sortKey      = "_sort"
	highlightKey = "_highlight"
)

func (c *HTTPClient) Search(ctx context.Context, index string, query NativeQuery, from, size int) (*SearchResponse, error) {
	envelope := map[string]any{
		"from":  from,
		"size":  size,
		"query": query,
	}
	_, hasSort := query[sortKey]
	_, hasHighlight := query[highlightKey]
	if hasSort || hasHighlight {
		queryCopy := make(map[string]any, len(query))
		for k, v := range query {
			switch k {
			case sortKey:
				envelope["sort"] = v
			case highlightKey:
				envelope["highlight"] = v
			default:
				queryCopy[k] = v
			}
		}
		envelope["query"] = queryCopy
	}
	reqBody, err := sonic.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	body, status, err := c.sendRequest(ctx, http.MethodPost, "/"+url.PathEscape(index)+"/_search", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	if status >= 300 {
		return nil, fmt.Errorf("searching: %w", engineErr(status, body))
	}

	var raw struct {
		Took int64 `json:"took"`
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID         string              `json:"_id"`
				Score      float64             `json:"_score"`
				Source     Document            `json:"_source"`
				Highlight  map[string][]string `json:"highlight,omitempty"`
			} `json:"hits"`
		} `json:"hits"`
	}
	dec := decoder.NewStreamDecoder(bytes.NewReader(body))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	resp := &SearchResponse{TotalHits: raw.Hits.Total.Value, TookMillis: raw.Took}
	for _, h := range raw.Hits.Hits {
		resp.Hits = append(resp.Hits, SearchHit{
			ID:         h.ID,
			Score:      h.Score,
			Document:   h.Source,
			Highlights: h.Highlight,
		})
	}
	return resp, nil
}

func (c *HTTPClient) BulkIndex(ctx context.Context, index string, docs []Document) ([]BulkItem, error) {
	var buf bytes.Buffer
	for _, d := range docs {
		action := map[string]any{"index": map[string]any{"_index": index, "_id": d.ID}}
		actionLine, err := sonic.Marshal(action)
		if err != nil {
			return nil, fmt.Errorf("encoding bulk action: %w", err)
		}
		docLine, err := sonic.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("encoding bulk document: %w", err)
		}
		buf.Write(actionLine)
		buf.WriteByte('\n')
		buf.Write(docLine)
		buf.WriteByte('\n')
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/_bulk", &buf)
	if err != nil {
		return nil, fmt.Errorf("creating bulk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-ndjson")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending bulk request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading bulk response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bulk indexing: %w", engineErr(resp.StatusCode, respBody))
	}

	var bulkResp struct {
		Items []struct {
			Index struct {
				ID     string `json:"_id"`
				Status int    `json:"status"`
				Error  *struct {
					Reason string `json:"reason"`
				} `json:"error,omitempty"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := sonic.Unmarshal(respBody, &bulkResp); err != nil {
		return nil, fmt.Errorf("parsing bulk response: %w", err)
	}

	items := make([]BulkItem, len(docs))
	for i, d := range docs {
		items[i] = BulkItem{Document: d}
		if i < len(bulkResp.Items) {
			r := bulkResp.Items[i].Index
			if r.Error != nil {
				items[i].Error = apperr.New(apperr.EngineError, "indexing %q: %s", d.ID, r.Error.Reason)
			}
		}
	}
	return items, nil
}

func (c *HTTPClient) Reindex(ctx context.Context, src, dst string) (int64, error) {
	reqBody, _ := sonic.Marshal(map[string]any{
		"source": map[string]any{"index": src},
		"dest":   map[string]any{"index": dst},
	})
	body, status, err := c.sendRequest(ctx, http.MethodPost, "/_reindex?wait_for_completion=true", bytes.NewReader(reqBody))
	if err != nil {
		return 0, fmt.Errorf("reindexing: %w", err)
	}
	if status >= 300 {
		return 0, fmt.Errorf("reindexing: %w", engineErr(status, body))
	}
	var result struct {
		Total int64 `json:"total"`
	}
	if err := sonic.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("parsing reindex response: %w", err)
	}
	return result.Total, nil
}

func (c *HTTPClient) UpdateAliases(ctx context.Context, actions []AliasAction) error {
	wireActions := make([]map[string]any, 0, len(actions))
	for _, a := range actions {
		entry := map[string]any{"index": a.Index, "alias": a.Alias}
		if a.IsWriteIndex {
			entry["is_write_index"] = true
		}
		switch a.Type {
		case AliasActionAdd:
			wireActions = append(wireActions, map[string]any{"add": entry})
		case AliasActionRemove:
			wireActions = append(wireActions, map[string]any{"remove": entry})
		default:
			return apperr.New(apperr.BadRequest, "unknown alias action type %q", a.Type)
		}
	}
	reqBody, err := sonic.Marshal(map[string]any{"actions": wireActions})
	if err != nil {
		return fmt.Errorf("encoding alias update: %w", err)
	}
	body, status, err := c.sendRequest(ctx, http.MethodPost, "/_aliases", bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("updating aliases: %w", err)
	}
	if status >= 300 {
		return fmt.Errorf("updating aliases: %w", engineErr(status, body))
	}
	return nil
}

func (c *HTTPClient) AliasState(ctx context.Context, alias string) (*AliasState, error) {
	body, status, err := c.sendRequest(ctx, http.MethodGet, "/_alias/"+url.PathEscape(alias), nil)
	if err != nil {
		return nil, fmt.Errorf("reading alias state: %w", err)
	}
	if status == http.StatusNotFound {
		return &AliasState{Alias: alias}, nil
	}
	if status >= 300 {
		return nil, fmt.Errorf("reading alias state: %w", engineErr(status, body))
	}

	var raw map[string]struct {
		Aliases map[string]struct {
			IsWriteIndex *bool `json:"is_write_index,omitempty"`
		} `json:"aliases"`
	}
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing alias state: %w", err)
	}

	state := &AliasState{Alias: alias}
	for index, entry := range raw {
		info, ok := entry.Aliases[alias]
		if !ok {
			continue
		}
		state.ReadIndices = append(state.ReadIndices, index)
		if info.IsWriteIndex != nil && *info.IsWriteIndex {
			state.WriteIndices = append(state.WriteIndices, index)
		}
	}
	sort.Strings(state.ReadIndices)
	sort.Strings(state.WriteIndices)
	return state, nil
}

func (c *HTTPClient) Refresh(ctx context.Context, index string) error {
	_, status, err := c.sendRequest(ctx, http.MethodPost, "/"+url.PathEscape(index)+"/_refresh", nil)
	if err != nil {
		return fmt.Errorf("refreshing index: %w", err)
	}
	if status >= 300 {
		return fmt.Errorf("refreshing index: %w", engineErr(status, nil))
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	_, status, err := c.sendRequest(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return fmt.Errorf("pinging engine: %w", err)
	}
	if status >= 300 {
		return fmt.Errorf("pinging engine: %w", engineErr(status, nil))
	}
	return nil
}

var _ Port = (*HTTPClient)(nil)
