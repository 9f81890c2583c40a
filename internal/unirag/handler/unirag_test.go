package handler

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/unirag/internal/model"
	"github.com/kart-io/unirag/internal/unirag/metrics"
	"github.com/kart-io/unirag/pkg/errors"
	"github.com/kart-io/unirag/pkg/response"
	"github.com/kart-io/unirag/pkg/utils/json"
	"github.com/kart-io/unirag/pkg/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	binding.Validator = validator.Global()
}

type fakeService struct {
	ready    bool
	clearErr error
	last     *model.QueryRequest
	metrics  *metrics.RAGMetrics
}

func (f *fakeService) Process(_ context.Context, req *model.QueryRequest) *model.QueryResponse {
	f.last = req
	return &model.QueryResponse{Answer: "ответ", Sources: []model.SourceCitation{}}
}

func (f *fakeService) Health(context.Context) *model.HealthStatus {
	return &model.HealthStatus{Status: model.HealthHealthy, VectorDBCount: 3, GeminiStatus: "connected", Version: "1.0.0"}
}

func (f *fakeService) Stats(context.Context) *model.Stats {
	return &model.Stats{VectorDBCount: 3, CacheBackend: "memory"}
}

func (f *fakeService) ClearCache(context.Context) error { return f.clearErr }

func (f *fakeService) FilterOptions() model.FilterOptions {
	return model.FilterOptions{Cities: []string{"Алматы"}, Categories: []string{"IT"}, EntScoreRange: model.DefaultScoreRange}
}

func (f *fakeService) Ready() bool                  { return f.ready }
func (f *fakeService) Metrics() *metrics.RAGMetrics { return f.metrics }

func newTestEngine(svc Service) *gin.Engine {
	h := NewUniragHandler(svc)
	e := gin.New()
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	e.POST("/query", h.Query)
	e.GET("/filters", h.Filters)
	e.POST("/cache/clear", h.ClearCache)
	e.GET("/stats", h.Stats)
	e.GET("/metrics", h.Metrics)
	return e
}

func do(e *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRoot(t *testing.T) {
	w := do(newTestEngine(&fakeService{ready: true}), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)

	var info RootInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "University RAG System API", info.Message)
	assert.Equal(t, "/health", info.Health)
}

func TestQuery(t *testing.T) {
	svc := &fakeService{ready: true}
	e := newTestEngine(svc)

	w := do(e, http.MethodPost, "/query",
		`{"question":"  IT университет в Алматы  ","filters":{"city":"Алматы","min_score":70},"top_k":3,"temperature":0.2}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ответ", resp.Answer)
	assert.NotNil(t, resp.Sources)

	require.NotNil(t, svc.last)
	assert.Equal(t, "IT университет в Алматы", svc.last.Question)
	assert.Equal(t, "Алматы", svc.last.Filters.City)
	assert.Equal(t, 70, svc.last.Filters.MinScore)
	assert.Equal(t, 3, *svc.last.TopK)
	assert.Equal(t, 0.2, *svc.last.Temperature)
}

func TestQueryValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		code  int
		field string
	}{
		{"missing question", `{}`, errors.ErrRAGInvalidRequest.Code, "question"},
		{"short question", `{"question":"  a "}`, errors.ErrRAGInvalidRequest.Code, "question"},
		{"top_k too large", `{"question":"IT в Алматы","top_k":11}`, errors.ErrRAGInvalidRequest.Code, "top_k"},
		{"top_k zero", `{"question":"IT в Алматы","top_k":0}`, errors.ErrRAGInvalidRequest.Code, "top_k"},
		{"temperature out of range", `{"question":"IT в Алматы","temperature":1.5}`, errors.ErrRAGInvalidRequest.Code, "temperature"},
		{"score out of range", `{"question":"IT в Алматы","filters":{"min_score":500}}`, errors.ErrRAGInvalidRequest.Code, "min_score"},
		{"malformed json", `{"question":`, errors.ErrRAGInvalidRequest.Code, "body"},
		{"unknown filter", `{"question":"IT в Алматы","filters":{"country":"KZ"}}`, errors.ErrRAGUnknownFilter.Code, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{ready: true}
			w := do(newTestEngine(svc), http.MethodPost, "/query", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.code, body.Code)
			if tt.field != "" {
				assert.Contains(t, w.Body.String(), `"field":"`+tt.field+`"`)
			}
			assert.Nil(t, svc.last)
		})
	}
}

func TestQueryValidationMessageLanguage(t *testing.T) {
	e := newTestEngine(&fakeService{ready: true})
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"question":"ab"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Message, "минимум 3")
}

func TestNotReady(t *testing.T) {
	e := newTestEngine(&fakeService{ready: false})

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/health", ""},
		{http.MethodPost, "/query", `{"question":"IT в Алматы"}`},
	} {
		w := do(e, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, tc.path)
		assert.Equal(t, errors.ErrRAGNotReady.Code, decodeError(t, w).Code)
	}

	w := do(e, http.MethodGet, "/filters", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthFiltersStats(t *testing.T) {
	e := newTestEngine(&fakeService{ready: true})

	w := do(e, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var h model.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	assert.Equal(t, model.HealthHealthy, h.Status)
	assert.Equal(t, int64(3), h.VectorDBCount)

	w = do(e, http.MethodGet, "/filters", "")
	require.Equal(t, http.StatusOK, w.Code)
	var f model.FilterOptions
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &f))
	assert.Equal(t, []string{"Алматы"}, f.Cities)
	assert.Equal(t, model.DefaultScoreRange, f.EntScoreRange)

	w = do(e, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cache_backend":"memory"`)
}

func TestClearCache(t *testing.T) {
	w := do(newTestEngine(&fakeService{ready: true}), http.MethodPost, "/cache/clear", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Cache cleared successfully"}`, w.Body.String())

	w = do(newTestEngine(&fakeService{ready: true, clearErr: stderrors.New("redis down")}), http.MethodPost, "/cache/clear", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errors.ErrCache.Code, decodeError(t, w).Code)
}

func TestMetrics(t *testing.T) {
	m := metrics.New()
	m.RecordQuery(false, false, 0, nil)
	w := do(newTestEngine(&fakeService{ready: true, metrics: m}), http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "unirag_queries_total 1")
}
