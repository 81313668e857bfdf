package repos

import (
	"gorm.io/gorm"

	"github.com/newomen/newme-backend/internal/data/repos/ai"
	"github.com/newomen/newme-backend/internal/data/repos/assessments"
	"github.com/newomen/newme-backend/internal/data/repos/challenges"
	"github.com/newomen/newme-backend/internal/data/repos/gamification"
	"github.com/newomen/newme-backend/internal/data/repos/user"
	"github.com/newomen/newme-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserProfileRepo = gamification.UserProfileRepo

type ChallengeRepo = challenges.ChallengeRepo
type ChallengeTemplateRepo = challenges.ChallengeTemplateRepo

type AssessmentRepo = assessments.AssessmentRepo
type AssessmentAttemptRepo = assessments.AssessmentAttemptRepo
type AssessmentProgressRepo = assessments.AssessmentProgressRepo

type CrystalTransactionRepo = gamification.CrystalTransactionRepo
type AchievementRepo = gamification.AchievementRepo

type AIUsageLogRepo = ai.UsageLogRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserProfileRepo(db *gorm.DB, baseLog *logger.Logger) UserProfileRepo {
	return gamification.NewUserProfileRepo(db, baseLog)
}

func NewChallengeRepo(db *gorm.DB, baseLog *logger.Logger) ChallengeRepo {
	return challenges.NewChallengeRepo(db, baseLog)
}
func NewChallengeTemplateRepo(db *gorm.DB, baseLog *logger.Logger) ChallengeTemplateRepo {
	return challenges.NewChallengeTemplateRepo(db, baseLog)
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return assessments.NewAssessmentRepo(db, baseLog)
}
func NewAssessmentAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentAttemptRepo {
	return assessments.NewAssessmentAttemptRepo(db, baseLog)
}
func NewAssessmentProgressRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentProgressRepo {
	return assessments.NewAssessmentProgressRepo(db, baseLog)
}

func NewCrystalTransactionRepo(db *gorm.DB, baseLog *logger.Logger) CrystalTransactionRepo {
	return gamification.NewCrystalTransactionRepo(db, baseLog)
}
func NewAchievementRepo(db *gorm.DB, baseLog *logger.Logger) AchievementRepo {
	return gamification.NewAchievementRepo(db, baseLog)
}

func NewAIUsageLogRepo(db *gorm.DB, baseLog *logger.Logger) AIUsageLogRepo {
	return ai.NewUsageLogRepo(db, baseLog)
}
