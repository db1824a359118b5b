package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pmboard/internal/board"
	"pmboard/internal/storage"
)

const requestIDHeader = "X-Request-ID"

// Server provides HTTP handlers for the project board backend.
type Server struct {
	engine    *gin.Engine
	store     storage.Store
	board     *board.Handler
	notices   *noticeCollector
	registry  *prometheus.Registry
	logger    *slog.Logger
	staticDir string
	now       func() time.Time
}

// Options carries optional collaborators for New.
type Options struct {
	Logger    *slog.Logger
	StaticDir string
	// Registry receives store and process metrics; a fresh one is created when nil.
	Registry *prometheus.Registry
	// Notifier also receives every board notice, after the log.
	Notifier board.Notifier
	Clock    func() time.Time
}

// New constructs the HTTP server with routes and middleware configured.
func New(store storage.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	clock := opts.Clock
	if clock == nil {
		clock = storage.UTCClock
	}

	instrumented := storage.Instrument(store, registry)
	notices := &noticeCollector{log: board.LogNotifier{Logger: logger}, next: opts.Notifier}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api/healthz", "/metrics"))

	srv := &Server{
		engine:    router,
		store:     instrumented,
		board:     board.NewHandler(instrumented, notices),
		notices:   notices,
		registry:  registry,
		logger:    logger,
		staticDir: opts.StaticDir,
		now:       clock,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		tasks := api.Group("/tasks")
		{
			tasks.GET("", s.handleListTasks)
			tasks.POST("", s.handleCreateTask)
			tasks.GET(":id", s.handleGetTask)
			tasks.PUT(":id", s.handleUpdateTask)
			tasks.DELETE(":id", s.handleDeleteTask)
			tasks.POST(":id/move", s.handleMoveTask)
		}
		api.GET("/board", s.handleBoard)

		sprints := api.Group("/sprints")
		{
			sprints.GET("", s.handleListSprints)
			sprints.POST("", s.handleCreateSprint)
			sprints.GET("active", s.handleActiveSprint)
			sprints.GET(":id", s.handleGetSprint)
			sprints.PUT(":id", s.handleUpdateSprint)
			sprints.DELETE(":id", s.handleDeleteSprint)
			sprints.GET(":id/progress", s.handleSprintProgress)
		}

		members := api.Group("/members")
		{
			members.GET("", s.handleListMembers)
			members.POST("", s.handleCreateMember)
			members.GET(":id", s.handleGetMember)
			members.PUT(":id", s.handleUpdateMember)
			members.DELETE(":id", s.handleDeleteMember)
			members.GET(":id/summary", s.handleMemberSummary)
		}

		api.GET("/team", s.handleTeam)
		api.GET("/analytics", s.handleAnalytics)
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestID tags each request with an id, reusing the caller's when present.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	s.logger.Error("request failed",
		slog.String("path", c.FullPath()),
		slog.String("request_id", c.GetString(requestIDHeader)),
		slog.Int("status", status),
		slog.String("error", err.Error()))
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondStoreError picks the status from the error itself.
func (s *Server) respondStoreError(c *gin.Context, err error) {
	s.respondError(c, statusFor(err), err)
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
