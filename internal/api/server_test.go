package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/antflydb/searchctl/internal/api"
	"github.com/antflydb/searchctl/internal/config"
	"github.com/antflydb/searchctl/internal/engine"
)

func newTestServer(t *testing.T) (*api.Server, *engine.Memory) {
	t.Helper()
	port := engine.NewMemory()
	require.NoError(t, port.CreateIndex(context.Background(), "docs"))

	cfg := config.DefaultConfig()
	cfg.Reports.Dir = t.TempDir()
	return api.New(cfg, port, nil, nil), port
}

func seedDoc(t *testing.T, p *engine.Memory, id, title string) {
	t.Helper()
	_, err := p.BulkIndex(context.Background(), "docs", []engine.Document{{
		ID:          id,
		Title:       title,
		Body:        "body for " + title,
		Category:    "news",
		Author:      "alice",
		PublishedAt: time.Now(),
		Popularity:  1,
	}})
	require.NoError(t, err)
}

func TestHandleHealthReportsAliasState(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var env api.Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Equal(t, http.StatusOK, env.Code)
}

func TestHandleSearchReturnsIndexedDocuments(t *testing.T) {
	srv, port := newTestServer(t)
	seedDoc(t, port, "doc-1", "Go concurrency patterns")

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=concurrency", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var env api.Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Equal(t, http.StatusOK, env.Code)
}

func TestHandleSearchRejectsInvalidPage(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=x&page=-1", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleIndexCreateThenBulk(t *testing.T) {
	srv, _ := newTestServer(t)

	createReq := httptest.NewRequest(http.MethodPost, "/admin/index/create?version=2", nil)
	createRR := httptest.NewRecorder()
	srv.Handler().ServeHTTP(createRR, createReq)
	require.Equal(t, http.StatusOK, createRR.Code)

	body, err := json.Marshal(api.BulkRequest{
		TargetAlias: "docs_v2",
		Documents: []engine.Document{{
			Title:       "Second doc",
			Body:        "content",
			Category:    "tech",
			Author:      "bob",
			PublishedAt: time.Now(),
		}},
	})
	require.NoError(t, err)

	bulkReq := httptest.NewRequest(http.MethodPost, "/admin/index/bulk", bytes.NewReader(body))
	bulkReq.Header.Set("Content-Type", "application/json")
	bulkRR := httptest.NewRecorder()
	srv.Handler().ServeHTTP(bulkRR, bulkReq)

	require.Equal(t, http.StatusOK, bulkRR.Code)
}

func TestHandleIndexCreateRejectsInvalidVersion(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/index/create?version=0", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}
