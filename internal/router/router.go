package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-timer/internal/config"
	"github.com/stemsi/exstem-timer/internal/handler"
	"github.com/stemsi/exstem-timer/internal/middleware"
	"github.com/stemsi/exstem-timer/internal/response"
	"github.com/stemsi/exstem-timer/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Test   *handler.TestHandler
	Timer  *handler.TimerWSHandler
	Health *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	ticketService *service.TicketService,
	startLimiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally. WebSocket upgrades pass through untouched.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", handlers.Health.Health)

	// ─── 1. Tests (Public) ─────────────────────────────────────────────
	tests := router.Group("/api/v1/tests")
	{
		tests.POST("", startLimiter.Middleware(), handlers.Test.StartTest)
		tests.GET("/:id", handlers.Test.GetTest)
		tests.GET("/:id/questions/:n/timer", middleware.NoStore(), handlers.Test.GetTimerConfig)
		tests.POST("/:id/finish", handlers.Test.FinishTest)
	}

	// ─── 2. Timer Streams (Ticket Auth) ────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireTimerTicket(ticketService))
	{
		ws.GET("/tests/:id/questions/:n/timer", handlers.Timer.TimerStream)
	}

	return router
}
