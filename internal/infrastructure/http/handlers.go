package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"

	"github.com/0xcro3dile/ragchat-go/internal/domain/entities"
)

const readinessTimeout = 3 * time.Second

// handleChat binds and validates the question, then runs the pipeline.
// The pipeline never fails, so every validated request gets a 200.
func (s *Server) handleChat(c *gin.Context) {
	var req entities.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, newValidationError(verrs))
			return
		}
		c.JSON(http.StatusBadRequest, newMalformedBodyError())
		return
	}

	ctx := c.Request.Context()
	start := time.Now()
	resp, outcome := s.currentBackend().Chat.Chat(ctx, &req)
	s.logger.InfoContext(ctx, "chat served",
		"request_id", c.GetString(requestIDKey),
		"trace_id", traceID(ctx),
		"outcome", outcome,
		"sources", len(resp.Sources),
		"duration_ms", time.Since(start).Milliseconds())

	c.JSON(http.StatusOK, resp)
}

// handleHealth is a constant liveness signal, independent of backend health.
func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// handleReady reports whether the retrieval backend answers its health probe.
func (s *Server) handleReady(c *gin.Context) {
	admin := s.currentBackend().Admin
	if admin == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	health, err := admin.Health(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "retrieval backend not ready", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"retrieval": health,
	})
}

// traceID returns the active span's trace id, or "" when tracing is off.
func traceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
