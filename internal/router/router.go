package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/websurvey-backend/internal/config"
	"github.com/stemsi/websurvey-backend/internal/handler"
	"github.com/stemsi/websurvey-backend/internal/middleware"
	"github.com/stemsi/websurvey-backend/internal/model"
	"github.com/stemsi/websurvey-backend/internal/response"
)

// Authenticator is what the route guards need from the auth service.
type Authenticator interface {
	middleware.TokenValidator
	middleware.LoginSessionValidator
}

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Health       *handler.HealthHandler
	Session      *handler.SurveySessionHandler
	Evaluation   *handler.SurveyEvaluationHandler
	UniqueCode   *handler.UniqueCodeHandler
	CombinedData *handler.CombinedDataHandler
	WS           *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background goroutines owned by the middlewares.
func SetupRouter(
	ctx context.Context,
	auth Authenticator,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID, "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Spreadsheet downloads are already zip-compressed.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   4,
		MinLength: 512,
		Skipper:   middleware.SkipDownloads,
	}))

	router.GET("/health", handlers.Health.Health)

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(ctx, 30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authGroup := router.Group("/api/v1/auth")
	{
		authGroup.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)

		authGroup.POST("/logout", middleware.RequireAuth(auth), handlers.Auth.Logout)
		authGroup.GET("/me", middleware.RequireAuth(auth), middleware.CheckSingleDeviceSession(auth), handlers.Auth.Me)
	}

	// ─── 2. Authenticated API (JWT + Single Device) ────────────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.RequireAuth(auth),
		middleware.CheckSingleDeviceSession(auth),
		middleware.NoStore(),
	)

	sessions := api.Group("/survey-sessions")
	{
		sessions.POST("", handlers.Session.CreateSession)
		sessions.GET("/all-sessions", handlers.Session.GetUserSessions)
		sessions.GET("/:id", handlers.Session.GetSession)
		sessions.PUT("/:id", handlers.Session.UpdateSession)
		sessions.DELETE("/:id", handlers.Session.DeleteSession)
		sessions.POST("/:id/submit-response", handlers.Session.SubmitResponse)
		sessions.PUT("/:id/time-consumed", handlers.Session.UpdateTimeConsumed)
		sessions.POST("/:id/complete", handlers.Session.CompleteSession)
	}

	evaluations := api.Group("/survey-evaluations")
	{
		evaluations.POST("", handlers.Evaluation.CreateEvaluation)
		evaluations.GET("/all-evaluations", handlers.Evaluation.GetUserEvaluations)
		evaluations.GET("/session/:session_id", handlers.Evaluation.GetEvaluationBySessionID)
		evaluations.GET("/:id", handlers.Evaluation.GetEvaluation)
		evaluations.PUT("/:id", handlers.Evaluation.UpdateEvaluation)
		evaluations.DELETE("/:id", handlers.Evaluation.DeleteEvaluation)
		evaluations.POST("/:id/submit-answer", handlers.Evaluation.SubmitAnswer)
		evaluations.POST("/:id/answer", handlers.Evaluation.SubmitEvaluationAnswer)
	}

	adminOnly := middleware.RequireRole(model.RoleAdmin)

	codes := api.Group("/survey/unique-code")
	{
		codes.GET("/:kode_unik", handlers.UniqueCode.Validate)
		codes.POST("", adminOnly, handlers.UniqueCode.Create)
		codes.POST("/bulk", adminOnly, handlers.UniqueCode.CreateMany)
		codes.DELETE("/:kode_unik", adminOnly, handlers.UniqueCode.Delete)
	}

	combined := api.Group("/combined-data", adminOnly)
	{
		combined.GET("", handlers.CombinedData.GetAll)
		combined.GET("/export", handlers.CombinedData.Export)
		combined.GET("/:user_id", handlers.CombinedData.GetByUser)
	}

	// ─── 3. WebSocket Group (query token auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireWSAuth(auth),
		middleware.CheckSingleDeviceSession(auth),
	)
	{
		ws.GET("/survey-sessions/:id/stream", handlers.WS.SessionStream)
	}

	return router
}
