package main

import (
	"log/slog"

	"ai-calling-agent/internal/httpapi"
	"ai-calling-agent/internal/metrics"
	"ai-calling-agent/pkg/logger"

	"github.com/gin-gonic/gin"
)

// newRouter builds the engine with middleware and wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func newRouter(log *slog.Logger, h httpapi.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(httpapi.CORS())

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	httpapi.Register(r, h)
	return r
}
