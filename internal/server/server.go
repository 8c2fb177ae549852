// Package server exposes the webhook ingest endpoint and the dashboard
// query endpoints over HTTP.
package server

import (
	"github.com/gin-gonic/gin"
)

// NewEngine builds the gin engine with all routes registered.
func NewEngine(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", h.handleHealth)
	r.POST("/webhook", h.handleWebhook)
	r.GET("/events", h.handleEvents)
	r.GET("/stats", h.handleStats)

	return r
}
