package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/unirag/internal/model"
	"github.com/kart-io/unirag/internal/unirag/biz"
	"github.com/kart-io/unirag/internal/unirag/cache"
	"github.com/kart-io/unirag/internal/unirag/handler"
	"github.com/kart-io/unirag/internal/unirag/metrics"
	"github.com/kart-io/unirag/internal/unirag/store"
	"github.com/kart-io/unirag/pkg/infra/server"
	"github.com/kart-io/unirag/pkg/llm/offline"
	httpopts "github.com/kart-io/unirag/pkg/options/server/http"
	"github.com/kart-io/unirag/pkg/utils/json"
)

func newManager(t *testing.T) (*server.Manager, *biz.Pipeline) {
	t.Helper()

	idx, err := store.NewIndex(offline.New(4096), store.NewMemory(), store.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	phone := "+7 727 357 42 42"
	chunks := biz.PrepareAll([]model.UniversityRecord{
		{ID: 1, Name: "КБТУ", City: "Алматы", Category: "IT", Programs: "Программная инженерия", EntMinScore: 90, EntMaxScore: 130, Phone: &phone},
		{ID: 2, Name: "МУА", City: "Астана", Category: "Медицина", Programs: "Лечебное дело", EntMinScore: 70, EntMaxScore: 120},
	})
	require.NoError(t, idx.Index(context.Background(), chunks))

	m := metrics.New()
	p := biz.NewPipeline(idx, biz.NewAssembler(4000), biz.NewGenerator(offline.New(64), biz.GeneratorConfig{}, m),
		cache.NewMemory(), nil, m, biz.PipelineConfig{TopK: 5, Temperature: 0.7, CacheEnabled: true})

	o := httpopts.NewOptions()
	o.Mode = gin.TestMode
	mgr := server.NewManager(server.WithHTTPOptions(o))
	require.NoError(t, Register(mgr, handler.NewUniragHandler(p)))
	return mgr, p
}

func serve(mgr *server.Manager, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mgr.HTTPServer().Engine().ServeHTTP(w, req)
	return w
}

func TestRoutesMountedTwice(t *testing.T) {
	mgr, p := newManager(t)
	p.SetReady(true)

	for _, prefix := range []string{"", "/v1/unirag"} {
		for _, tc := range []struct{ method, path, body string }{
			{http.MethodGet, "/health", ""},
			{http.MethodGet, "/filters", ""},
			{http.MethodGet, "/stats", ""},
			{http.MethodPost, "/cache/clear", ""},
			{http.MethodPost, "/query", `{"question":"IT в Алматы"}`},
		} {
			w := serve(mgr, tc.method, prefix+tc.path, tc.body)
			assert.Equal(t, http.StatusOK, w.Code, "%s %s", tc.method, prefix+tc.path)
		}
	}

	assert.Equal(t, http.StatusOK, serve(mgr, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, serve(mgr, http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(mgr, http.MethodGet, "/v1/unirag/missing", "").Code)
}

func TestQueryRoundTrip(t *testing.T) {
	mgr, p := newManager(t)

	w := serve(mgr, http.MethodPost, "/query", `{"question":"IT в Алматы"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	p.SetReady(true)
	body := `{"question":"программная инженерия Алматы","filters":{"city":"Алматы"},"top_k":1}`

	w = serve(mgr, http.MethodPost, "/v1/unirag/query", body)
	require.Equal(t, http.StatusOK, w.Code)
	var first model.QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	require.Len(t, first.Sources, 1)
	assert.Equal(t, "КБТУ", first.Sources[0].Name)
	assert.Equal(t, "+7 727 357 42 42", first.Sources[0].ContactInfo.Phone)
	assert.Equal(t, "90-130", first.Sources[0].EntScoreRange)
	assert.False(t, first.Cached)

	w = serve(mgr, http.MethodPost, "/query", body)
	require.Equal(t, http.StatusOK, w.Code)
	var second model.QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.True(t, second.Cached)
	assert.Equal(t, first.Answer, second.Answer)

	w = serve(mgr, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var h model.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	assert.Equal(t, model.HealthHealthy, h.Status)
	assert.Equal(t, int64(2), h.VectorDBCount)
	assert.Equal(t, "connected", h.GeminiStatus)

	w = serve(mgr, http.MethodGet, "/stats", "")
	var s model.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, 1, s.CacheSize)

	w = serve(mgr, http.MethodGet, "/metrics", "")
	assert.Contains(t, w.Body.String(), "unirag_queries_total")
	assert.Contains(t, w.Body.String(), `unirag_http_requests_total{method="POST",route="/v1/unirag/query",status="200"}`)
}

func TestSwaggerDocs(t *testing.T) {
	mgr, _ := newManager(t)

	var root handler.RootInfo
	require.NoError(t, json.Unmarshal(serve(mgr, http.MethodGet, "/", "").Body.Bytes(), &root))

	w := serve(mgr, http.MethodGet, root.Docs, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")

	w = serve(mgr, http.MethodGet, "/docs/doc.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	var doc struct {
		Info  map[string]any `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "University RAG System API", doc.Info["title"])
	for _, path := range []string{"/", "/health", "/query", "/filters", "/cache/clear", "/stats"} {
		assert.Contains(t, doc.Paths, path)
	}
}
