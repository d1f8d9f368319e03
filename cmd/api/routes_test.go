package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-calling-agent/internal/assistant"
	"ai-calling-agent/internal/health"
	"ai-calling-agent/internal/httpapi"
	"ai-calling-agent/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRouter_ServesMetricsAndAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newRouter(logger.NewWithWriter(io.Discard, false), httpapi.Handlers{
		Version:   "test",
		Assistant: assistant.NewService("gpt-4"),
		Health:    health.NewService(health.Config{}),
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "calls_initiated_total")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
