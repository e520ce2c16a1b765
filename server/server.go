// Package server exposes the aggregated intel feed, agency summaries and
// history over a small JSON API consumed by the dashboard UI.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/bnf/intelscope/pkg/aggregator"
	"github.com/bnf/intelscope/pkg/domain"
	"github.com/bnf/intelscope/pkg/repository"
)

// FeedProvider serves the merged intel feed
type FeedProvider interface {
	Refresh(ctx context.Context)
	RefetchAll(ctx context.Context)
	Feed() aggregator.Feed
}

// SummariesProvider serves the agency summaries
type SummariesProvider interface {
	Refresh(ctx context.Context)
	Summaries() (domain.Summaries, bool)
}

// History reads persisted items and refresh cycles. May be nil when
// persistence is disabled.
type History interface {
	GetRecentItems(ctx context.Context, limit int, sourceKey string) ([]domain.Item, error)
	GetSyncLog(ctx context.Context, limit int) ([]repository.SyncRecord, error)
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// Server represents HTTP server instance
type Server struct {
	config    ConfigProvider
	feed      FeedProvider
	summaries SummariesProvider
	history   History
	version   string
	debug     bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// New initializes a new server instance
func New(cfg ConfigProvider, feed FeedProvider, summaries SummariesProvider, history History, version string, debug bool) *Server {
	s := &Server{
		config:    cfg,
		feed:      feed,
		summaries: summaries,
		history:   history,
		version:   version,
		debug:     debug,
		router:    routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	log.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("intelscope", "bnf", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("GET /feed", s.feedHandler)
		r.HandleFunc("GET /feed/sources", s.feedSourcesHandler)
		r.HandleFunc("POST /feed/refresh", s.refreshHandler)
		r.HandleFunc("GET /summaries", s.summariesHandler)
		r.HandleFunc("GET /history", s.historyHandler)
		r.HandleFunc("GET /history/sync", s.syncLogHandler)
	})
}
