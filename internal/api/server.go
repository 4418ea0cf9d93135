package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"ranktracker/internal/config"
	"ranktracker/internal/domain"
)

// Submitter queues keyword tasks for the tracker pool.
type Submitter interface {
	Submit(task domain.KeywordTask)
}

// ResultStore reads run status and stored rows.
type ResultStore interface {
	Ping(ctx context.Context) error
	GetRunStatus(ctx context.Context, keyword string) (*domain.RunStatusResponse, error)
	GetResults(ctx context.Context, keyword string, limit int) ([]domain.ResultRow, error)
}

// Pinger is the liveness surface of the redis bookkeeping store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	config     *config.Config
	router     http.Handler
	httpServer *http.Server
	tracker    Submitter
	store      ResultStore
	cache      Pinger
	logger     *zap.Logger
}

func NewServer(cfg *config.Config, tr Submitter, store ResultStore, cache Pinger, l *zap.Logger) *Server {
	s := &Server{
		config:  cfg,
		tracker: tr,
		store:   store,
		cache:   cache,
		logger:  l,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.ServerPort),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }
