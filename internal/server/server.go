// Package server exposes the session service over HTTP and websockets.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/silenos/silenos-server-go/internal/auth"
	"github.com/silenos/silenos-server-go/internal/config"
	"github.com/silenos/silenos-server-go/internal/session"
	"go.uber.org/zap"
)

// Options configures a Server.
type Options struct {
	Config   config.ServerConfig
	Sessions *session.Service
	Verifier *auth.Verifier
	// AdminPasswordHash is a bcrypt hash. Empty leaves the admin routes
	// unregistered.
	AdminPasswordHash string
	Logger            *zap.Logger
}

// Server holds the HTTP handlers. Close ends every open websocket.
type Server struct {
	cfg       config.ServerConfig
	sessions  *session.Service
	verifier  *auth.Verifier
	adminHash string
	logger    *zap.Logger
	upgrader  websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	router *gin.Engine
}

// New builds the server and its routes.
func New(opts Options) (*Server, error) {
	if opts.Sessions == nil {
		return nil, errors.New("server: session service is required")
	}
	if opts.Verifier == nil {
		return nil, errors.New("server: token verifier is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Config.WebSocketPath == "" {
		opts.Config.WebSocketPath = "/ws"
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       opts.Config,
		sessions:  opts.Sessions,
		verifier:  opts.Verifier,
		adminHash: opts.AdminPasswordHash,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.Config.AllowedOrigins),
		},
		ctx:    ctx,
		cancel: cancel,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close disconnects websocket clients. In-flight HTTP requests are left to
// http.Server.Shutdown.
func (s *Server) Close() {
	s.cancel()
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.logger), recovery(s.logger))

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	api.GET("/cards", s.listCards)

	player := api.Group("", s.authenticate(false))
	player.GET("/decks/me", s.getDeck)
	player.PUT("/decks/me", s.saveDeck)
	player.POST("/games", s.createGame)
	player.POST("/games/:id/join", s.joinGame)
	player.GET("/games/:id", s.getGame)
	player.POST("/games/:id/actions", s.submitAction)

	api.GET("/games/:id"+s.cfg.WebSocketPath, s.authenticate(true), s.gameSocket)

	if s.adminHash != "" {
		admin := r.Group("/admin", s.requireAdmin())
		admin.GET("/games", s.adminListGames)
		admin.POST("/catalog/reload", s.adminReloadCatalog)
	}

	return r
}

// originChecker allows the listed origins, or any when the list holds "*".
// An empty list keeps gorilla's same-origin check.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
