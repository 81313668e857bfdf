package app

import (
	"github.com/gin-gonic/gin"

	"github.com/newomen/newme-backend/internal/platform/logger"
	"github.com/newomen/newme-backend/internal/server"
)

func wireRouter(log *logger.Logger, handlerset Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		Log:                 log,
		AuthMiddleware:      mw.Auth,
		HealthHandler:       handlerset.Health,
		UserHandler:         handlerset.User,
		ChallengeHandler:    handlerset.Challenge,
		AssessmentHandler:   handlerset.Assessment,
		GamificationHandler: handlerset.Gamification,
		RealtimeHandler:     handlerset.Realtime,
	})
}
