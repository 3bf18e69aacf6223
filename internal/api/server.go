// Package api exposes the transaction database and classifier over
// HTTP, plus a WebSocket chat endpoint for conversational queries.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tallyfold/tallyfold/internal/classifier"
	"github.com/tallyfold/tallyfold/internal/llm"
	"github.com/tallyfold/tallyfold/internal/storage"
)

// Config holds the HTTP server settings.
type Config struct {
	Host string
	Port int
}

// Address returns the listen address in host:port form.
func (c Config) Address() string {
	host := c.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.Port
	if port == 0 {
		port = 8000
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	store      *storage.Store
	classifier *classifier.Classifier
	llmClient  llm.Client
	sessions   *SessionManager
	logger     *slog.Logger
	router     *gin.Engine
	http       *http.Server
}

// New creates and configures a new Server.
func New(cfg Config, store *storage.Store, clf *classifier.Classifier, client llm.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		store:      store,
		classifier: clf,
		llmClient:  client,
		sessions:   NewSessionManager(),
		logger:     logger,
		router:     router,
		http: &http.Server{
			Addr:         cfg.Address(),
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	s.registerRoutes()
	return s
}

// Start begins listening for HTTP requests. Blocks until the server
// stops.
func (s *Server) Start() error {
	s.logger.Info("starting server", "address", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	s.sessions.Close()
	return s.http.Shutdown(ctx)
}

// Router returns the underlying Gin engine, useful for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}
