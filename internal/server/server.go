// Package server exposes lesson generation over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/generator"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/state"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/version"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// Config holds HTTP server settings.
type Config struct {
	Addr           string
	CORS           bool
	AllowedOrigins []string
	Debug          bool
	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	// GenerateTimeout bounds a single generate or resume request. Zero means no limit.
	GenerateTimeout time.Duration
}

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LessonDetail is an archived lesson with its task results.
type LessonDetail struct {
	Lesson *state.LessonRecord `json:"lesson"`
	Tasks  []state.TaskResult  `json:"tasks"`
}

// Server serves the lesson API.
type Server struct {
	svc        *generator.Service
	cfg        Config
	engine     *gin.Engine
	httpServer *http.Server
	startTime  time.Time
}

// New creates a Server for svc.
func New(svc *generator.Service, cfg Config) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if cfg.Debug {
		engine.Use(gin.Logger())
	}
	if cfg.CORS {
		corsConfig := cors.DefaultConfig()
		if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
			corsConfig.AllowAllOrigins = true
		} else {
			corsConfig.AllowOrigins = cfg.AllowedOrigins
		}
		corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
		engine.Use(cors.New(corsConfig))
	}

	s := &Server{
		svc:       svc,
		cfg:       cfg,
		engine:    engine,
		startTime: time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{})))

	api := s.engine.Group("/api/v1")

	lessons := api.Group("/lessons")
	{
		lessons.POST("", s.handleGenerate)
		lessons.GET("", s.handleListLessons)
		lessons.GET("/:id", s.handleGetLesson)
		lessons.DELETE("/:id", s.handleDeleteLesson)
	}

	sessions := api.Group("/sessions")
	{
		sessions.GET("", s.handleListSessions)
		sessions.GET("/:id", s.handleGetSession)
		sessions.POST("/:id/resume", s.handleResume)
	}
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("[server] listening on %s", s.cfg.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start HTTP server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Printf("[server] shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{
		"status":   "ok",
		"version":  version.Get(),
		"uptime":   time.Since(s.startTime).Round(time.Second).String(),
		"sessions": s.svc.Store().Len(),
	})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req models.LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()
	res, err := s.svc.GenerateLesson(ctx, req, nil)
	if err != nil {
		fail(c, statusFor(err), err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}

func (s *Server) handleResume(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	res, err := s.svc.ResumeSession(ctx, c.Param("id"), nil)
	if err != nil {
		fail(c, statusFor(err), err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess := s.svc.Session(c.Param("id"))
	if sess == nil {
		fail(c, http.StatusNotFound, "session not found")
		return
	}
	ok(c, http.StatusOK, sess)
}

func (s *Server) handleListSessions(c *gin.Context) {
	type summary struct {
		ID        string            `json:"id"`
		Lesson    string            `json:"lesson_title"`
		Depth     models.DepthLevel `json:"depth"`
		Strategy  models.Strategy   `json:"strategy,omitempty"`
		Progress  models.Progress   `json:"progress"`
		UpdatedAt time.Time         `json:"updated_at"`
	}
	sessions := s.svc.Store().List()
	out := make([]summary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, summary{
			ID:        sess.ID,
			Lesson:    sess.Context.LessonTitle,
			Depth:     sess.Depth,
			Strategy:  sess.Strategy,
			Progress:  sess.Progress,
			UpdatedAt: sess.UpdatedAt,
		})
	}
	ok(c, http.StatusOK, out)
}

func (s *Server) handleListLessons(c *gin.Context) {
	archive := s.svc.Archive()
	if archive == nil {
		fail(c, http.StatusNotFound, "lesson archive is disabled")
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			fail(c, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}
	lessons, err := archive.ListLessons(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if lessons == nil {
		lessons = []state.LessonSummary{}
	}
	ok(c, http.StatusOK, lessons)
}

func (s *Server) handleGetLesson(c *gin.Context) {
	archive := s.svc.Archive()
	if archive == nil {
		fail(c, http.StatusNotFound, "lesson archive is disabled")
		return
	}
	ctx := c.Request.Context()
	rec, err := archive.GetLesson(ctx, c.Param("id"))
	if err != nil {
		fail(c, statusFor(err), err.Error())
		return
	}
	tasks, err := archive.ListTaskResults(ctx, rec.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, http.StatusOK, LessonDetail{Lesson: rec, Tasks: tasks})
}

func (s *Server) handleDeleteLesson(c *gin.Context) {
	archive := s.svc.Archive()
	if archive == nil {
		fail(c, http.StatusNotFound, "lesson archive is disabled")
		return
	}
	if err := archive.DeleteLesson(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, statusFor(err), err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.cfg.GenerateTimeout > 0 {
		return context.WithTimeout(c.Request.Context(), s.cfg.GenerateTimeout)
	}
	return context.WithCancel(c.Request.Context())
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, generator.ErrSessionNotFound), errors.Is(err, state.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, generator.ErrSessionBusy), errors.Is(err, generator.ErrNotResumable):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, APIResponse{Success: true, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, APIResponse{Success: false, Error: msg})
}
