// Package router provides unirag service routing.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/kart-io/unirag/docs/swagger" // swagger docs
	"github.com/kart-io/unirag/internal/unirag/handler"
	"github.com/kart-io/unirag/pkg/infra/server"
)

// Register registers the unirag routes on the HTTP server of mgr.
func Register(mgr *server.Manager, h *handler.UniragHandler) error {
	logger.Info("Registering unirag routes...")

	httpServer := mgr.HTTPServer()
	if httpServer == nil {
		return nil
	}
	engine := httpServer.Engine()

	engine.GET("/", h.Root)
	engine.GET("/metrics", h.Metrics)
	// Swagger UI: /docs/index.html
	engine.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	mount(&engine.RouterGroup, h)

	v1 := engine.Group("/v1")
	{
		mount(v1.Group("/unirag"), h)
	}

	logger.Info("HTTP routes registered")
	return nil
}

// mount installs the query API on g.
func mount(g *gin.RouterGroup, h *handler.UniragHandler) {
	g.GET("/health", h.Health)
	g.POST("/query", h.Query)
	g.GET("/filters", h.Filters)
	g.POST("/cache/clear", h.ClearCache)
	g.GET("/stats", h.Stats)
}
