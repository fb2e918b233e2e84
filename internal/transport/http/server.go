package http

import (
	"fmt"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/avoronkov/peerchat-server/internal/auth"
	"github.com/avoronkov/peerchat-server/internal/config"
	"github.com/avoronkov/peerchat-server/internal/core"
	"github.com/avoronkov/peerchat-server/internal/store"
)

// NewServer builds the HTTP server with REST, SSE and WebSocket routes.
func NewServer(cfg config.Config, authService *auth.Service, st store.Store, registry *core.Registry, tracker *core.Tracker, watcher *core.Watcher, router *core.Router, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggerMiddleware(logger))

	apiHandlers := NewAPIHandlers(authService, logger)
	userHandlers := NewUserHandlers(st, logger)
	presenceHandlers := NewPresenceHandlers(tracker, watcher, logger)
	wsHandler := NewWSHandler(authService, registry, tracker, router, cfg.SendQueueSize, logger)

	engine.GET("/health", healthHandler)
	engine.GET("/ws/:token", wsHandler.Handle)

	api := engine.Group("/api")
	{
		api.POST("/register", apiHandlers.Register)
		api.POST("/login", apiHandlers.Login)
		api.GET("/validate", apiHandlers.Validate)
		api.GET("/presence/:identity", presenceHandlers.GetStatus)
		api.GET("/presence/:identity/watch", presenceHandlers.Watch)
	}

	authed := api.Group("")
	authed.Use(AuthMiddleware(authService, logger))
	{
		authed.GET("/users", userHandlers.ListUsers)
		authed.GET("/messages/:peer", userHandlers.GetMessages)
		authed.POST("/logout", presenceHandlers.Logout)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	fmt.Fprint(c.Writer, "ok")
}
