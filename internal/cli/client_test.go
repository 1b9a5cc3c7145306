package cli

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BiradarScripts/Djaan/internal/config"
	"github.com/BiradarScripts/Djaan/internal/models"
	"github.com/BiradarScripts/Djaan/internal/server"
)

type fakeService struct {
	lastReq *models.SearchRequest
}

func (f *fakeService) Search(_ context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f.lastReq = req
	return sampleResponse(), nil
}

func (f *fakeService) Refresh(context.Context) (*models.RefreshReport, error) {
	return &models.RefreshReport{RunID: "r1", Scanned: 2, Added: 2, IndexSize: 2}, nil
}

func (f *fakeService) Stats(context.Context) (*models.IndexStats, error) {
	return &models.IndexStats{Documents: 2, IndexSize: 2, Dimensions: 8}, nil
}

func newTestClient(t *testing.T, svc server.Service) *Client {
	t.Helper()
	srv := httptest.NewServer(server.NewServer(svc, config.Default(), zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func TestClient_Search(t *testing.T) {
	svc := &fakeService{}
	c := newTestClient(t, svc)

	resp, err := c.Search(context.Background(), &models.SearchRequest{Query: "telescope", TopK: 3, UseExpansion: true})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "doc_003", resp.Results[0].DocID)

	require.NotNil(t, svc.lastReq)
	assert.Equal(t, 3, svc.lastReq.TopK)
	assert.True(t, svc.lastReq.UseExpansion)
}

func TestClient_SearchInvalid(t *testing.T) {
	c := newTestClient(t, &fakeService{})
	_, err := c.Search(context.Background(), &models.SearchRequest{Query: "  ", TopK: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "query cannot be empty")
}

func TestClient_RefreshAndStatus(t *testing.T) {
	c := newTestClient(t, &fakeService{})
	ctx := context.Background()

	report, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", report.RunID)
	assert.Equal(t, 2, report.Added)

	status, err := c.Status(ctx)
	require.NoError(t, err)
	require.NotNil(t, status.IndexStats)
	assert.Equal(t, int64(2), status.Documents)
	assert.Equal(t, 8, status.Dimensions)
	require.NotNil(t, status.Config)
	assert.Equal(t, "hash", status.Config.EmbeddingProvider)
}

func TestClient_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	_, err := c.Status(context.Background())
	require.Error(t, err)
	assert.NotNil(t, errors.Unwrap(err), "transport error should be wrapped")
}
