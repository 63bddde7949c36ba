// Package api provides the read gateway: a small Gin HTTP server that lists
// published documents, serves them reassembled and verified from DNS, and
// exposes the publication ledger.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/zonepress/internal/api/handlers"
	"github.com/jroosing/zonepress/internal/api/middleware"
	"github.com/jroosing/zonepress/internal/client"
	"github.com/jroosing/zonepress/internal/config"
)

// Server is the read gateway HTTP server.
//
// Security note: do not expose the gateway to untrusted networks without an API key.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds the server. ledger may be nil.
func New(cfg *config.Config, library client.Library, ledger handlers.Ledger, logger *slog.Logger) *Server {
	if cfg == nil {
		panic("api.New: cfg is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.SlogRequestLogger(logger))
	engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Rate:  cfg.API.RateLimitQPS,
		Burst: cfg.API.RateLimitBurst,
	}))

	h := handlers.New(library, ledger, logger)
	RegisterRoutes(engine, h, cfg)
	if cfg.API.StaticDir != "" {
		MountStatic(engine, cfg.API.StaticDir)
	}

	addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{cfg: cfg, logger: logger, engine: engine, httpServer: httpServer}
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("read gateway listening", "addr", s.Addr(), "auth", s.cfg.API.APIKey != "")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
