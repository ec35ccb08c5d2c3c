package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sharewatch-cli/internal/logger"
)

const (
	sessionCookie = "session_id"

	// SessionTTL bounds how long a dashboard sign-in stays valid.
	SessionTTL = 8 * time.Hour
)

// Server is the self-service dashboard API. Owners sign in with an
// Entra ID token, review their own exposed files, and remove sharing.
type Server struct {
	dashboard   driving.DashboardService
	remediation driving.RemediationService
	verifier    driven.TokenVerifier
	sessions    *SessionStore

	httpServer *http.Server
}

// NewServer creates the dashboard server.
func NewServer(dashboard driving.DashboardService, remediation driving.RemediationService, verifier driven.TokenVerifier) *Server {
	return &Server{
		dashboard:   dashboard,
		remediation: remediation,
		verifier:    verifier,
		sessions:    NewSessionStore(SessionTTL),
	}
}

// Router builds the route table.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/api/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := engine.Group("/api/auth")
	auth.POST("/login", s.handleLogin)
	auth.POST("/logout", s.handleLogout)
	auth.GET("/me", s.requireSession, s.handleMe)

	api := engine.Group("/api", s.requireSession)
	api.GET("/files", s.handleFiles)
	api.GET("/stats", s.handleStats)
	api.POST("/unshare", s.handleUnshare)

	return engine
}

// ListenAndServe serves the dashboard until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	logger.Info("Dashboard listening on %s", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
