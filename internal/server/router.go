package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/newomen/newme-backend/internal/http/handlers"
	"github.com/newomen/newme-backend/internal/http/middleware"
	"github.com/newomen/newme-backend/internal/platform/envutil"
	"github.com/newomen/newme-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log                 *logger.Logger
	AuthMiddleware      *middleware.AuthMiddleware
	HealthHandler       *handlers.HealthHandler
	UserHandler         *handlers.UserHandler
	ChallengeHandler    *handlers.ChallengeHandler
	AssessmentHandler   *handlers.AssessmentHandler
	GamificationHandler *handlers.GamificationHandler
	RealtimeHandler     *handlers.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.AttachRequestContext())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.CORS())
	router.Use(otelgin.Middleware("newme-backend"))

	// Generated avatars are served straight off disk.
	avatarBase := envutil.GetEnv("AVATAR_PUBLIC_BASE", "/static/avatars", cfg.Log)
	avatarDir := envutil.GetEnv("AVATAR_STORAGE_DIR", "./data/avatars", cfg.Log)
	router.Static(avatarBase, avatarDir)

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	router.POST("/api/register", cfg.UserHandler.Register)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	// User
	protected.GET("/me", cfg.UserHandler.GetMe)
	protected.PATCH("/me/display-name", cfg.UserHandler.UpdateDisplayName)
	protected.PATCH("/me/avatar-color", cfg.UserHandler.UpdateAvatarColor)
	protected.POST("/me/avatar", cfg.UserHandler.UploadAvatar)
	protected.POST("/me/avatar/generate", cfg.UserHandler.RegenerateAvatar)

	// Couples challenges
	protected.GET("/challenges/templates", cfg.ChallengeHandler.ListTemplates)
	protected.POST("/challenges", cfg.ChallengeHandler.Create)
	protected.GET("/challenges", cfg.ChallengeHandler.List)
	protected.GET("/challenges/:id", cfg.ChallengeHandler.Get)
	protected.POST("/challenges/:id/join", cfg.ChallengeHandler.Join)
	protected.POST("/challenges/:id/messages", cfg.ChallengeHandler.AppendMessage)
	protected.POST("/challenges/:id/next-question", cfg.ChallengeHandler.NextQuestion)
	protected.POST("/challenges/:id/analyze", cfg.ChallengeHandler.Analyze)

	// Assessments
	protected.GET("/assessments", cfg.AssessmentHandler.List)
	protected.GET("/assessments/:id", cfg.AssessmentHandler.Get)
	protected.POST("/assessments/:id/attempts", cfg.AssessmentHandler.SubmitAttempt)
	protected.GET("/assessments/:id/progress", cfg.AssessmentHandler.GetProgress)
	protected.POST("/assessments/attempts/:attemptId/process", cfg.AssessmentHandler.ProcessAttempt)

	// Gamification
	protected.GET("/gamification/profile", cfg.GamificationHandler.GetProfile)
	protected.GET("/gamification/transactions", cfg.GamificationHandler.ListTransactions)
	protected.GET("/gamification/achievements", cfg.GamificationHandler.ListAchievements)
	protected.POST("/gamification/daily-login", cfg.GamificationHandler.DailyLogin)
	protected.POST("/gamification/events", cfg.GamificationHandler.HandleEvent)

	// SSE
	protected.GET("/realtime/stream", cfg.RealtimeHandler.Stream)

	return router
}
