package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/smrepo/internal/application/health"
	"github.com/aescanero/smrepo/pkg/domain/submodel"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes bounds request bodies when Config.MaxBodyBytes is unset
const DefaultMaxBodyBytes = 4 << 20

// SubmodelService is the repository consumed by the HTTP handlers
type SubmodelService interface {
	List(ctx context.Context) ([]*submodel.Submodel, error)
	Get(ctx context.Context, id string, content submodel.Content) (json.RawMessage, error)
	Create(ctx context.Context, sm *submodel.Submodel) (*submodel.Submodel, error)
	Update(ctx context.Context, id string, sm *submodel.Submodel) error
	Delete(ctx context.Context, id string) error
}

// HealthReporter reports the latest backend health
type HealthReporter interface {
	Status() health.Status
}

// EventStreamer serves the submodel event stream
type EventStreamer interface {
	HandleSubmodelStream(c *gin.Context)
}

// Server represents the HTTP API server
type Server struct {
	router       *gin.Engine
	server       *http.Server
	submodels    SubmodelService
	health       HealthReporter
	events       EventStreamer
	gatherer     prometheus.Gatherer
	maxBodyBytes int64
	logger       *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Port         int
	Submodels    SubmodelService
	Health       HealthReporter
	Events       EventStreamer
	Gatherer     prometheus.Gatherer
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(cfg.Logger))
	router.Use(corsMiddleware())

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	s := &Server{
		router:       router,
		submodels:    cfg.Submodels,
		health:       cfg.Health,
		events:       cfg.Events,
		gatherer:     gatherer,
		maxBodyBytes: maxBody,
		logger:       cfg.Logger,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	s.registerSubmodelRoutes(s.router.Group(""))
	s.registerSubmodelRoutes(s.router.Group("/api/v1"))
}

func (s *Server) registerSubmodelRoutes(g *gin.RouterGroup) {
	g.GET("/submodels", s.handleListSubmodels)
	g.POST("/submodels", s.handleCreateSubmodel)
	g.GET("/submodels/:id", s.handleGetSubmodel)
	g.PUT("/submodels/:id", s.handleUpdateSubmodel)
	g.DELETE("/submodels/:id", s.handleDeleteSubmodel)

	if s.events != nil {
		g.GET("/events/submodels", s.events.HandleSubmodelStream)
	}
}

// Handler returns the HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}
