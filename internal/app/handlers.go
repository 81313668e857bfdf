package app

import (
	"github.com/newomen/newme-backend/internal/http/handlers"
	"github.com/newomen/newme-backend/internal/platform/logger"
	"github.com/newomen/newme-backend/internal/sse"
)

type Handlers struct {
	Health       *handlers.HealthHandler
	User         *handlers.UserHandler
	Challenge    *handlers.ChallengeHandler
	Assessment   *handlers.AssessmentHandler
	Gamification *handlers.GamificationHandler
	Realtime     *handlers.RealtimeHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, hub *sse.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       handlers.NewHealthHandler(),
		User:         handlers.NewUserHandler(log, serviceset.User),
		Challenge:    handlers.NewChallengeHandler(log, serviceset.Challenge),
		Assessment:   handlers.NewAssessmentHandler(log, serviceset.Assessment),
		Gamification: handlers.NewGamificationHandler(log, serviceset.Gamification, serviceset.User),
		Realtime:     handlers.NewRealtimeHandler(log, hub),
	}
}
