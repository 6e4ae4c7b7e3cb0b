package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lifepath/lifepath-backend/internal/config"
	"github.com/lifepath/lifepath-backend/internal/handler"
	"github.com/lifepath/lifepath-backend/internal/middleware"
	"github.com/lifepath/lifepath-backend/internal/response"
	"github.com/lifepath/lifepath-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Scenario  *handler.ScenarioHandler
	Play      *handler.PlayHandler
	Classroom *handler.ClassroomHandler
	WS        *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Serve scene illustrations statically with aggressive caching (1 year).
	assetsGroup := router.Group("/assets")
	assetsGroup.Use(middleware.CacheControl(31536000))
	{
		assetsGroup.Static("/", cfg.AssetsDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/teacher/login", handlers.Auth.TeacherLogin)
		auth.POST("/student/register", handlers.Auth.StudentRegister)
		auth.POST("/guest", handlers.Auth.GuestToken)

		// Authenticated profile route
		auth.GET("/me", middleware.RequirePlayerJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Scenario Catalog (Any Player) ──────────────────────────────
	scenarios := router.Group("/api/v1/scenarios")
	scenarios.Use(middleware.RequirePlayerJWT(authService))
	{
		scenarios.GET("", handlers.Scenario.ListScenarios)
		scenarios.GET("/:id", handlers.Scenario.GetScenario)
	}

	// ─── 3. Individual Play Group (Any Player) ─────────────────────────
	play := router.Group("/api/v1/play")
	play.Use(middleware.RequirePlayerJWT(authService))
	{
		play.POST("/start", handlers.Play.StartGame)
		play.POST("/choice", handlers.Play.ApplyChoice)
		play.GET("/state", handlers.Play.GetState)
		play.DELETE("/state", handlers.Play.ResetGame)
		play.POST("/mirror/dismiss", handlers.Play.DismissMirror)
		play.GET("/runs", handlers.Play.ListRuns)
		play.GET("/reflections", handlers.Play.ListReflections)
	}

	// ─── 4. Classroom Group ────────────────────────────────────────────
	classroom := router.Group("/api/v1/classroom")
	{
		// Students resolve a join code before opening their socket.
		classroom.POST("/join", middleware.RequirePlayerJWT(authService), handlers.Classroom.ResolveJoinCode)
		classroom.GET("/sessions/:id/snapshot", middleware.RequirePlayerJWT(authService), handlers.Classroom.GetSnapshot)

		// Teacher session management and commands.
		teacher := classroom.Group("")
		teacher.Use(middleware.RequireTeacherJWT(authService))
		{
			teacher.POST("/sessions", handlers.Classroom.CreateSession)
			teacher.GET("/sessions", handlers.Classroom.ListSessions)
			teacher.GET("/sessions/:id", handlers.Classroom.GetSession)
			teacher.POST("/sessions/:id/scenario", handlers.Classroom.SelectScenario)
			teacher.POST("/sessions/:id/reveal", handlers.Classroom.Reveal)
			teacher.POST("/sessions/:id/advance", handlers.Classroom.Advance)
			teacher.POST("/sessions/:id/force-advance", handlers.Classroom.ForceAdvance)
			teacher.POST("/sessions/:id/mirror/dismiss", handlers.Classroom.DismissMirror)
			teacher.POST("/sessions/:id/pause", handlers.Classroom.Pause)
			teacher.POST("/sessions/:id/resume", handlers.Classroom.Resume)
			teacher.POST("/sessions/:id/end", handlers.Classroom.End)
		}
	}

	// ─── 5. WebSocket Group (Token Query Auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/classroom/sessions/:id/stream", handlers.WS.SessionStream)
	}

	return router
}
