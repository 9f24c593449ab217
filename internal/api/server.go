// Package api exposes the pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/strata/internal/extract"
	"github.com/ppiankov/strata/internal/model"
	"github.com/ppiankov/strata/internal/pipeline"
)

// Backend is the part of the pipeline the HTTP surface depends on
type Backend interface {
	Sources() []string
	FetchSource(ctx context.Context, name string) ([]model.RawStory, error)
	Analyze(ctx context.Context, story model.RawStory) (*model.Analysis, error)
	Run(ctx context.Context) (*model.Board, error)
}

// Server serves source retrieval, single-story analysis and the latest board
type Server struct {
	backend Backend
	logger  *slog.Logger

	mu    sync.Mutex // serializes board runs
	board *model.Board
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a server over backend
func NewServer(backend Backend, opts ...Option) *Server {
	s := &Server{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Title   string `json:"title" binding:"required"`
	Summary string `json:"summary"`
}

// RegisterRoutes mounts every endpoint on r
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v := r.Group("/api")
	{
		v.GET("/sources", s.listSources)
		v.GET("/sources/:name", s.fetchSource)
		v.POST("/analyze", s.analyze)
		v.GET("/board", s.getBoard)
	}
}

// Handler returns a gin engine with every route registered
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	s.RegisterRoutes(r)
	return r
}

// SetBoard replaces the board served by GET /api/board
func (s *Server) SetBoard(b *model.Board) {
	s.mu.Lock()
	s.board = b
	s.mu.Unlock()
}

// Refresh runs one cycle and stores the result as the latest board
func (s *Server) Refresh(ctx context.Context) (*model.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.backend.Run(ctx)
	if err != nil {
		return nil, err
	}
	s.board = board
	return board, nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": s.backend.Sources()})
}

// fetchSource degrades per source: a failing adapter yields a plain-text 500
func (s *Server) fetchSource(c *gin.Context) {
	name := c.Param("name")

	stories, err := s.backend.FetchSource(c.Request.Context(), name)
	if errors.Is(err, pipeline.ErrUnknownSource) {
		c.String(http.StatusNotFound, "unknown source %s", name)
		return
	}
	if err != nil {
		s.logger.Warn("source fetch failed", "source", name, "error", err)
		c.String(http.StatusInternalServerError, "failed to fetch %s", name)
		return
	}
	if stories == nil {
		stories = []model.RawStory{}
	}
	c.JSON(http.StatusOK, stories)
}

func (s *Server) analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_request",
			"message": "title is required",
		})
		return
	}

	analysis, err := s.backend.Analyze(c.Request.Context(), model.RawStory{
		Title:   req.Title,
		Summary: req.Summary,
	})
	if err != nil {
		status, body := errorResponse(err)
		s.logger.Warn("analysis failed", "title", req.Title, "status", status, "error", err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// getBoard serves the latest board, running a cycle when none exists yet
// or when ?refresh=true is given
func (s *Server) getBoard(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))

	s.mu.Lock()
	board := s.board
	s.mu.Unlock()

	if board == nil || refresh {
		var err error
		board, err = s.Refresh(c.Request.Context())
		if err != nil {
			status, body := errorResponse(err)
			s.logger.Error("board refresh failed", "error", err)
			c.JSON(status, body)
			return
		}
	}
	c.JSON(http.StatusOK, board)
}

func errorResponse(err error) (int, gin.H) {
	var extractErr *extract.ExtractionError
	switch {
	case errors.Is(err, pipeline.ErrNoProvider):
		return http.StatusServiceUnavailable, gin.H{
			"code":    "no_provider",
			"message": err.Error(),
		}
	case errors.As(err, &extractErr):
		return http.StatusUnprocessableEntity, gin.H{
			"code":       "invalid_analysis",
			"message":    "model output failed validation",
			"violations": extractErr.Violations,
		}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, gin.H{
			"code":    "timeout",
			"message": err.Error(),
		}
	default:
		return http.StatusBadGateway, gin.H{
			"code":    "backend_error",
			"message": fmt.Sprintf("analysis backend failed: %v", err),
		}
	}
}
