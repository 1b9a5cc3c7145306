package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BiradarScripts/Djaan/internal/config"
	"github.com/BiradarScripts/Djaan/internal/embedding"
	"github.com/BiradarScripts/Djaan/internal/indexer"
	"github.com/BiradarScripts/Djaan/internal/models"
	"github.com/BiradarScripts/Djaan/internal/search"
	"github.com/BiradarScripts/Djaan/internal/source"
	"github.com/BiradarScripts/Djaan/internal/storage"
)

type mockService struct {
	lastReq    *models.SearchRequest
	searchErr  error
	refreshErr error
	refreshes  int
}

func (m *mockService) Search(_ context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	m.lastReq = req
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &models.SearchResponse{Results: []models.SearchResult{{DocID: "doc_001", Score: 0.9}}}, nil
}

func (m *mockService) Refresh(context.Context) (*models.RefreshReport, error) {
	m.refreshes++
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return &models.RefreshReport{RunID: "run-1", Scanned: 2, Added: 2, IndexSize: 2}, nil
}

func (m *mockService) Stats(context.Context) (*models.IndexStats, error) {
	return &models.IndexStats{Documents: 2, IndexSize: 2, Dimensions: 8}, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandleSearch_DefaultsTopK(t *testing.T) {
	svc := &mockService{}
	h := NewServer(svc, nil, zap.NewNop()).Handler()

	w := do(t, h, http.MethodPost, "/api/v1/search", `{"query":"space travel"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, svc.lastReq)
	assert.Equal(t, models.DefaultTopK, svc.lastReq.TopK)
	assert.False(t, svc.lastReq.UseExpansion)

	var out models.SearchResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	require.Len(t, out.Results, 1)
	assert.Equal(t, "doc_001", out.Results[0].DocID)
}

func TestHandleSearch_BadRequests(t *testing.T) {
	h := NewServer(&mockService{}, nil, zap.NewNop()).Handler()
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"query":`},
		{"empty body", ``},
		{"empty query", `{"query":""}`},
		{"zero top_k", `{"query":"x","top_k":0}`},
		{"negative top_k", `{"query":"x","top_k":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/v1/search", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestHandleSearch_EngineError(t *testing.T) {
	svc := &mockService{searchErr: fmt.Errorf("%w: timeout", models.ErrEmbedding)}
	w := do(t, NewServer(svc, nil, zap.NewNop()).Handler(), http.MethodPost, "/api/v1/search", `{"query":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleRefresh(t *testing.T) {
	svc := &mockService{}
	h := NewServer(svc, nil, zap.NewNop()).Handler()

	w := do(t, h, http.MethodPost, "/api/v1/refresh", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out RefreshResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Equal(t, "Index refreshed", out.Status)
	require.NotNil(t, out.Report)
	assert.Equal(t, 2, out.Report.Added)

	svc.refreshErr = errors.New("disk full")
	w = do(t, h, http.MethodPost, "/api/v1/refresh", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleHealthAndStatus(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Storage.DatabasePath = filepath.Join(dir, "missing.db")
	cfg.Storage.IndexPath = filepath.Join(dir, "missing.bin")
	h := NewServer(&mockService{}, cfg, zap.NewNop()).Handler()

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)

	w = do(t, h, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Equal(t, float64(2), out["documents"])
	assert.Equal(t, float64(2), out["index_size"])
	assert.Equal(t, float64(0), out["disk_usage_bytes"])

	conf, ok := out["config"].(map[string]any)
	require.True(t, ok, "config report: %v", out["config"])
	assert.Equal(t, "hash", conf["embedding_provider"])
}

func TestServer_EndToEnd(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "db.sqlite"))
	require.NoError(t, err)
	defer store.Close()
	src := source.NewStaticSource(map[string]string{
		"doc_001.txt": "Space exploration is fascinating",
		"doc_002.txt": "Graphics rendering uses shaders",
	})
	emb := embedding.NewHashEmbedder(256)
	engine := search.NewEngine(store, indexer.NewIndexer(store, src, emb), emb)
	h := NewServer(engine, nil, zap.NewNop()).Handler()

	w := do(t, h, http.MethodPost, "/api/v1/search", `{"query":"space"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"results":[]`)

	w = do(t, h, http.MethodPost, "/api/v1/refresh", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/api/v1/search", `{"query":"space exploration","top_k":5}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out models.SearchResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	require.Len(t, out.Results, 2)
	assert.Equal(t, "doc_001", out.Results[0].DocID)
	assert.Equal(t, 1.0, out.Results[0].Explanation.OverlapRatio)

	// A top_k far above the corpus size returns every document.
	w = do(t, h, http.MethodPost, "/api/v1/search", `{"query":"space","top_k":`+strconv.Itoa(math.MaxInt)+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out = models.SearchResponse{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Len(t, out.Results, 2)
}
