// Package handler provides HTTP handlers for the unirag service.
package handler

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/unirag/internal/model"
	"github.com/kart-io/unirag/internal/unirag/metrics"
	"github.com/kart-io/unirag/pkg/errors"
	logctx "github.com/kart-io/unirag/pkg/infra/logger"
	obsmetrics "github.com/kart-io/unirag/pkg/observability/metrics"
	"github.com/kart-io/unirag/pkg/response"
	"github.com/kart-io/unirag/pkg/validator"
)

// Service is the query pipeline as seen by the HTTP layer.
type Service interface {
	Process(ctx context.Context, req *model.QueryRequest) *model.QueryResponse
	Health(ctx context.Context) *model.HealthStatus
	Stats(ctx context.Context) *model.Stats
	ClearCache(ctx context.Context) error
	FilterOptions() model.FilterOptions
	Ready() bool
	Metrics() *metrics.RAGMetrics
}

// RootInfo is returned by GET /.
type RootInfo struct {
	Message string `json:"message"`
	Docs    string `json:"docs"`
	Health  string `json:"health"`
}

// MessageResponse carries a single human readable message.
type MessageResponse struct {
	Message string `json:"message"`
}

// UniragHandler handles unirag HTTP requests.
type UniragHandler struct {
	service Service
}

// NewUniragHandler creates a new UniragHandler.
func NewUniragHandler(service Service) *UniragHandler {
	return &UniragHandler{service: service}
}

// Root describes the API entry points.
//
//	@Summary	API entry points
//	@Tags		meta
//	@Produce	json
//	@Success	200	{object}	handler.RootInfo
//	@Router		/ [get]
func (h *UniragHandler) Root(c *gin.Context) {
	response.OK(c, RootInfo{
		Message: "University RAG System API",
		Docs:    "/docs/index.html",
		Health:  "/health",
	})
}

// Health reports index size, generation reachability and cache state.
//
//	@Summary	Service health
//	@Tags		meta
//	@Produce	json
//	@Success	200	{object}	model.HealthStatus
//	@Failure	503	{object}	response.ErrorBody
//	@Router		/health [get]
func (h *UniragHandler) Health(c *gin.Context) {
	if !h.service.Ready() {
		response.Fail(c, errors.ErrRAGNotReady)
		return
	}
	response.OK(c, h.service.Health(c.Request.Context()))
}

// Query answers a question.
//
//	@Summary	Answer a question about universities
//	@Tags		query
//	@Accept		json
//	@Produce	json
//	@Param		request	body		model.QueryRequest	true	"question and optional filters"
//	@Success	200		{object}	model.QueryResponse
//	@Failure	400		{object}	response.ErrorBody
//	@Failure	503		{object}	response.ErrorBody
//	@Router		/query [post]
func (h *UniragHandler) Query(c *gin.Context) {
	if !h.service.Ready() {
		response.Fail(c, errors.ErrRAGNotReady)
		return
	}

	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.failBinding(c, err)
		return
	}
	req.Question = strings.TrimSpace(req.Question)

	response.OK(c, h.service.Process(c.Request.Context(), &req))
}

func (h *UniragHandler) failBinding(c *gin.Context, err error) {
	if stderrors.Is(err, model.ErrUnknownFilter) {
		response.Fail(c, errors.ErrRAGUnknownFilter.WithCause(err))
		return
	}
	verr := validator.Global().Translate(err, response.Lang(c))
	logctx.GetLogger(c.Request.Context()).Debugw("query request rejected", "error", verr.Error())
	response.FailWithValidation(c, errors.ErrRAGInvalidRequest, verr)
}

// Filters lists the available filter values.
//
//	@Summary	Available filter values
//	@Tags		query
//	@Produce	json
//	@Success	200	{object}	model.FilterOptions
//	@Router		/filters [get]
func (h *UniragHandler) Filters(c *gin.Context) {
	response.OK(c, h.service.FilterOptions())
}

// ClearCache empties the query cache.
//
//	@Summary	Clear the query cache
//	@Tags		cache
//	@Produce	json
//	@Success	200	{object}	handler.MessageResponse
//	@Failure	500	{object}	response.ErrorBody
//	@Router		/cache/clear [post]
func (h *UniragHandler) ClearCache(c *gin.Context) {
	if err := h.service.ClearCache(c.Request.Context()); err != nil {
		logctx.GetLogger(c.Request.Context()).Errorw("failed to clear cache", "error", err.Error())
		response.Fail(c, errors.ErrCache.WithCause(err))
		return
	}
	response.OK(c, MessageResponse{Message: "Cache cleared successfully"})
}

// Stats returns pipeline statistics.
//
//	@Summary	Pipeline statistics
//	@Tags		meta
//	@Produce	json
//	@Success	200	{object}	model.Stats
//	@Router		/stats [get]
func (h *UniragHandler) Stats(c *gin.Context) {
	response.OK(c, h.service.Stats(c.Request.Context()))
}

// Metrics exports pipeline counters followed by the HTTP request metrics in
// the Prometheus text format.
func (h *UniragHandler) Metrics(c *gin.Context) {
	body := h.service.Metrics().Export("unirag") + "\n" + obsmetrics.Export()
	c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(body))
}
