package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tingly-dev/copilot-bridge/internal/auth"
	"github.com/tingly-dev/copilot-bridge/internal/config"
	"github.com/tingly-dev/copilot-bridge/internal/copilot"
	"github.com/tingly-dev/copilot-bridge/internal/rename"
	"github.com/tingly-dev/copilot-bridge/internal/server/middleware"
)

// Server is the HTTP proxy: gin engine, upstream client, token cache, model
// renamer and the TTL-cached model list.
type Server struct {
	config  *config.Config
	client  *copilot.Client
	tokens  *auth.TokenCache
	renamer *rename.Renamer

	engine     *gin.Engine
	httpServer *http.Server

	modelsMu sync.RWMutex
	models   *copilot.ModelsResponse
	modelsAt time.Time
}

// NewServer wires the proxy together from configuration.
func NewServer(cfg *config.Config) *Server {
	client := copilot.NewClient(cfg.AccountType, cfg.VSCodeVersion)

	exchange := func(ctx context.Context, ghToken string) (auth.Token, error) {
		tok, err := client.FetchToken(ctx, ghToken)
		if err != nil {
			return auth.Token{}, err
		}
		return auth.Token{Value: tok.Token, ExpiresAt: tok.ExpiresAt, RefreshIn: tok.RefreshIn}, nil
	}

	s := &Server{
		config:  cfg,
		client:  client,
		tokens:  auth.NewTokenCache(exchange),
		renamer: rename.New(cfg.RenameAuto, cfg.RenameMap),
		engine:  gin.New(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(middleware.CORS())
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", s.handleHealth)

	v1 := s.engine.Group("/v1")
	{
		v1.GET("/models", s.handleListModels)
		v1.POST("/chat/completions", s.handleChatCompletions)
		v1.POST("/messages", s.handleMessages)
		v1.POST("/messages/count_tokens", s.handleCountTokens)
	}

	// Unversioned aliases.
	s.engine.GET("/models", s.handleListModels)
	s.engine.POST("/chat/completions", s.handleChatCompletions)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.Status(http.StatusOK)
}

// credential returns the GitHub token for this request: headers first, then
// the configured default. ok is false when neither is available.
func (s *Server) credential(c *gin.Context) (string, bool) {
	if tok := auth.ExtractGHToken(c.Request.Header); tok != "" {
		return tok, true
	}
	if s.config.GitHubToken != "" {
		return s.config.GitHubToken, true
	}
	return "", false
}

// Tokens exposes the token cache for the startup exchange and the background
// refresher.
func (s *Server) Tokens() *auth.TokenCache {
	return s.tokens
}

// SetUpstreamBaseURLs points the upstream client at alternate endpoints.
// Test hook.
func (s *Server) SetUpstreamBaseURLs(github, copilotBase string) {
	s.client.SetBaseURLs(github, copilotBase)
}

// GetRouter returns the gin engine for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.engine
}

// Start runs the HTTP server. Blocks until the listener fails or Stop drains
// it.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	logrus.Infof("listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully drains the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	logrus.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
