package app

import (
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/newomen/newme-backend/internal/platform/logger"
	"github.com/newomen/newme-backend/internal/services"
)

type Services struct {
	Avatar       services.AvatarService
	Gamification services.GamificationService
	Rewards      services.RewardsNotifier
	Challenge    services.ChallengeService
	Assessment   services.AssessmentService
	User         services.UserService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	rules, err := services.LoadRewardRules()
	if err != nil {
		return Services{}, fmt.Errorf("load gamification rules: %w", err)
	}

	avatarService, err := services.NewAvatarService(db, log, reposet.User)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}

	gamificationService := services.NewGamificationService(
		db, log, rules,
		reposet.UserProfile,
		reposet.CrystalTransaction,
		reposet.Achievement,
		clients.Bus,
	)

	// Challenge rewards go through the external engine when one is
	// configured, otherwise straight to the local gamification service.
	var rewards services.RewardsNotifier
	if strings.TrimSpace(os.Getenv("GAMIFICATION_ENGINE_URL")) != "" {
		rewards, err = services.NewHTTPRewardsNotifier(log)
		if err != nil {
			return Services{}, fmt.Errorf("init rewards notifier: %w", err)
		}
	} else {
		rewards = services.NewLocalRewardsNotifier(log, gamificationService)
	}

	challengeService := services.NewChallengeService(
		db, log,
		reposet.Challenge,
		reposet.ChallengeTemplate,
		reposet.AIUsageLog,
		clients.AI,
		rewards,
		clients.Bus,
	)

	assessmentService := services.NewAssessmentService(
		db, log,
		reposet.Assessment,
		reposet.AssessmentAttempt,
		reposet.AssessmentProgress,
		reposet.AIUsageLog,
		clients.AI,
		gamificationService,
		clients.Bus,
	)

	userService := services.NewUserService(db, log, reposet.User, avatarService, gamificationService)

	return Services{
		Avatar:       avatarService,
		Gamification: gamificationService,
		Rewards:      rewards,
		Challenge:    challengeService,
		Assessment:   assessmentService,
		User:         userService,
	}, nil
}
