package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/recollect/internal/profile"
	"github.com/hrygo/recollect/memory"
	"github.com/hrygo/recollect/store"
	"github.com/hrygo/recollect/store/db/chromem"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}

func (e stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i], _ = e.Embed(ctx, texts[i])
	}
	return out, nil
}

func (stubEmbedder) Dimensions() int { return 4 }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	p := &profile.Profile{
		Mode:                "demo",
		Port:                28091,
		Driver:              "embedded",
		EmbeddingDimensions: 4,
		MergeDistance:       0.2,
		MergeTopK:           5,
		RetrievalDistance:   1.5,
		RetrievalTopK:       10,
	}
	s := store.New(chromem.NewDB())
	repo := memory.NewRepository(s, stubEmbedder{}, memory.Config{
		MergeDistance:     p.MergeDistance,
		MergeTopK:         p.MergeTopK,
		RetrievalDistance: p.RetrievalDistance,
		RetrievalTopK:     p.RetrievalTopK,
	})
	srv, err := NewServer(context.Background(), p, s, repo, nil)
	require.NoError(t, err)
	return srv
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.e.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/v1/summary/tenants", `{"tenant": "alice"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/api/v1/summary/tenants", `{"tenant": "alice"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/api/v1/summary/tenants", `{"tenant": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/api/v1/summary/tenants", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Total int                `json:"total"`
		Data  []store.TenantInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Equal(t, 1, listing.Total)
	assert.Equal(t, "alice", listing.Data[0].Name)

	rec = doRequest(srv, http.MethodDelete, "/api/v1/summary/tenants/alice", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(srv, http.MethodDelete, "/api/v1/summary/tenants/alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummaryLifecycle(t *testing.T) {
	srv := newTestServer(t)
	doRequest(srv, http.MethodPost, "/api/v1/summary/tenants", `{"tenant": "alice"}`)

	rec := doRequest(srv, http.MethodPost, "/api/v1/tenants/alice/summaries", `{"summary": "likes tea", "turn": 2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created memory.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.UUID)

	rec = doRequest(srv, http.MethodGet, "/api/v1/tenants/alice/summaries/"+created.UUID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(srv, http.MethodPatch, "/api/v1/tenants/alice/summaries/"+created.UUID, `{"summary": "prefers green tea"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated memory.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "prefers green tea", updated.Summary)

	rec = doRequest(srv, http.MethodGet, "/api/v1/tenants/alice/summaries?page=1&size=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page memory.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)

	rec = doRequest(srv, http.MethodDelete, "/api/v1/tenants/alice/summaries/"+created.UUID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/api/v1/tenants/alice/summaries/"+created.UUID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCursorWalk(t *testing.T) {
	srv := newTestServer(t)
	doRequest(srv, http.MethodPost, "/api/v1/summary/tenants", `{"tenant": "alice"}`)
	for _, body := range []string{`{"summary": "one"}`, `{"summary": "two"}`, `{"summary": "three"}`} {
		rec := doRequest(srv, http.MethodPost, "/api/v1/tenants/alice/summaries", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	// An empty cursor selects the first page of the same id-ascending walk
	// that later pages continue.
	seen := map[string]bool{}
	cursor := ""
	for {
		rec := doRequest(srv, http.MethodGet, "/api/v1/tenants/alice/summaries?after="+cursor+"&limit=2", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var page memory.Page
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		assert.Equal(t, 3, page.Total)
		if len(page.Data) == 0 {
			break
		}
		for _, record := range page.Data {
			assert.False(t, seen[record.UUID], "cursor pages must not repeat records")
			seen[record.UUID] = true
			assert.Less(t, cursor, record.UUID, "cursor pages iterate in id order")
		}
		cursor = page.Data[len(page.Data)-1].UUID
	}
	assert.Len(t, seen, 3)
}

func TestSummaryValidationMapping(t *testing.T) {
	srv := newTestServer(t)
	doRequest(srv, http.MethodPost, "/api/v1/summary/tenants", `{"tenant": "alice"}`)

	rec := doRequest(srv, http.MethodPost, "/api/v1/tenants/alice/summaries", `{"summary": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/api/v1/tenants/alice/summaries/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/api/v1/tenants/bob/summaries", `{"summary": "text"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/api/v1/tenants/alice/summaries?page=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	srv := newTestServer(t)
	doRequest(srv, http.MethodPost, "/api/v1/summary/tenants", `{"tenant": "alice"}`)
	doRequest(srv, http.MethodPost, "/api/v1/tenants/alice/summaries", `{"summary": "enjoys long hikes"}`)

	rec := doRequest(srv, http.MethodPost, "/api/v1/tenants/alice/summaries/search", `{"query": "hikes", "mode": "keyword"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var page memory.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "enjoys long hikes", page.Data[0].Summary)
	assert.NotNil(t, page.Data[0].Score)

	rec = doRequest(srv, http.MethodPost, "/api/v1/tenants/alice/summaries/search", `{"query": "hikes", "mode": "guesswork"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
