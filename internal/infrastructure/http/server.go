// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/0xcro3dile/ragchat-go/internal/config"
	"github.com/0xcro3dile/ragchat-go/internal/domain/entities"
	"github.com/0xcro3dile/ragchat-go/internal/domain/ports"
	"github.com/0xcro3dile/ragchat-go/internal/infrastructure/observability"
)

const shutdownTimeout = 10 * time.Second

// Chatter runs one chat request through the pipeline.
type Chatter interface {
	Chat(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, entities.Outcome)
}

// Backend is the set of collaborators a request is served with.
// It is replaced as a whole on config reload; a request keeps the value it started with.
type Backend struct {
	Chat  Chatter
	Admin ports.RetrievalAdmin
}

// Server is the HTTP server for the chat API.
type Server struct {
	engine   *gin.Engine
	backend  atomic.Pointer[Backend]
	limiter  *rate.Limiter
	metrics  *observability.Metrics
	gatherer prometheus.Gatherer
	logger   *slog.Logger

	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	messages     config.MessagesConfig
}

// NewServer creates a new HTTP server. gatherer backs GET /metrics.
func NewServer(
	cfg *config.Config,
	backend *Backend,
	metrics *observability.Metrics,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		metrics:      metrics,
		gatherer:     gatherer,
		logger:       logger,
		addr:         cfg.Server.Addr,
		readTimeout:  cfg.Server.ReadTimeout,
		writeTimeout: cfg.Server.WriteTimeout,
		messages:     cfg.Messages,
	}
	if cfg.Server.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)
	}
	s.backend.Store(backend)

	// Without notblank every chat request would fail binding.
	if err := registerValidations(); err != nil {
		panic(fmt.Sprintf("request validation setup failed: %v", err))
	}
	gin.SetMode(cfg.Server.GinMode)
	s.engine = s.routes(cfg.Telemetry.ServiceName)
	return s
}

func (s *Server) routes(serviceName string) *gin.Engine {
	r := gin.New()
	r.Use(
		s.recoveryMiddleware(),
		requestIDMiddleware(),
		otelgin.Middleware(serviceName),
		s.accessLogMiddleware(),
	)

	api := r.Group("/api")
	api.POST("/chat", s.rateLimitMiddleware(), s.handleChat)
	api.GET("/health", s.handleHealth)
	api.GET("/ready", s.handleReady)

	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// SwapBackend atomically replaces the collaborators used by new requests.
func (s *Server) SwapBackend(b *Backend) {
	s.backend.Store(b)
}

func (s *Server) currentBackend() *Backend { return s.backend.Load() }

// Start runs the HTTP server until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.engine,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	s.logger.Info("ragchat server starting", "addr", s.addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("ragchat server shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
