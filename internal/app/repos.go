package app

import (
	"gorm.io/gorm"

	"github.com/newomen/newme-backend/internal/data/repos"
	"github.com/newomen/newme-backend/internal/platform/logger"
)

type Repos struct {
	User               repos.UserRepo
	UserProfile        repos.UserProfileRepo
	Challenge          repos.ChallengeRepo
	ChallengeTemplate  repos.ChallengeTemplateRepo
	Assessment         repos.AssessmentRepo
	AssessmentAttempt  repos.AssessmentAttemptRepo
	AssessmentProgress repos.AssessmentProgressRepo
	CrystalTransaction repos.CrystalTransactionRepo
	Achievement        repos.AchievementRepo
	AIUsageLog         repos.AIUsageLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:               repos.NewUserRepo(db, log),
		UserProfile:        repos.NewUserProfileRepo(db, log),
		Challenge:          repos.NewChallengeRepo(db, log),
		ChallengeTemplate:  repos.NewChallengeTemplateRepo(db, log),
		Assessment:         repos.NewAssessmentRepo(db, log),
		AssessmentAttempt:  repos.NewAssessmentAttemptRepo(db, log),
		AssessmentProgress: repos.NewAssessmentProgressRepo(db, log),
		CrystalTransaction: repos.NewCrystalTransactionRepo(db, log),
		Achievement:        repos.NewAchievementRepo(db, log),
		AIUsageLog:         repos.NewAIUsageLogRepo(db, log),
	}
}
