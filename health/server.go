// Package health exposes scribe's operational HTTP endpoint: a liveness
// probe and a readiness probe that reports each dependency's state.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kbukum/scribe/logger"
)

// Check reports one dependency's health.
type Check func(ctx context.Context) error

// Server is a small Gin-backed HTTP server for probes.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	checks     map[string]Check
	log        *logger.Logger
}

// New creates a Server listening on addr.
func New(addr string, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		checks: make(map[string]Check),
		log:    log.WithComponent("health"),
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}

	engine.GET("/healthz", s.handleLiveness)
	engine.GET("/readyz", s.handleReadiness)
	return s
}

// AddCheck registers a named readiness check. Not safe to call after Run.
func (s *Server) AddCheck(name string, check Check) {
	s.checks[name] = check
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("health endpoint listening", map[string]interface{}{"addr": s.httpServer.Addr})
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Handler returns the underlying handler, useful in tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleReadiness(c *gin.Context) {
	results := make(map[string]string, len(s.checks))
	healthy := true

	for name, check := range s.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		err := check(ctx)
		cancel()
		if err != nil {
			healthy = false
			results[name] = err.Error()
		} else {
			results[name] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"checks": results})
}
