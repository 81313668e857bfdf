package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/newomen/newme-backend/internal/domain"
)

func (s *PostgresService) AutoMigrateAll() error {
	if err := autoMigrateAll(s.db); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	s.log.Info("Postgres automigration complete")
	return nil
}

func autoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.User{},
		&types.UserProfile{},

		&types.ChallengeTemplate{},
		&types.CouplesChallenge{},

		&types.Assessment{},
		&types.AssessmentAttempt{},
		&types.AssessmentProgress{},

		&types.CrystalTransaction{},
		&types.Achievement{},
		&types.UserAchievement{},

		&types.AIUsageLog{},
	)
}
