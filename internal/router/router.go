package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ujikode/ujikode-backend/internal/auth"
	"github.com/ujikode/ujikode-backend/internal/config"
	"github.com/ujikode/ujikode-backend/internal/handler"
	"github.com/ujikode/ujikode-backend/internal/middleware"
	"github.com/ujikode/ujikode-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session *handler.SessionHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(verifier *auth.Verifier, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list; otherwise
	// allow all so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Every response carries request metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── Session API (bearer token) ────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireToken(verifier))
	{
		api.POST("/sessions", handlers.Session.Create)
		api.POST("/sessions/:session_id/resume", handlers.Session.Resume)
		api.GET("/sessions/:session_id/state", handlers.Session.GetState)
		api.PUT("/sessions/:session_id/draft", handlers.Session.Draft)
		api.POST("/sessions/:session_id/save", handlers.Session.Save)
		api.POST("/sessions/:session_id/navigate", handlers.Session.Navigate)
		api.POST("/sessions/:session_id/questions/:question_id/run", handlers.Session.RunTests)
		api.POST("/sessions/:session_id/submit", handlers.Session.Submit)
	}

	// ─── WebSocket stream (token via ?token=) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireToken(verifier))
	{
		ws.GET("/sessions/:session_id/stream", handlers.WS.SessionStream)
	}

	return router
}
