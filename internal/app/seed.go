package app

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	types "github.com/newomen/newme-backend/internal/domain"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/logger"
)

func criteria(counter string, threshold int) datatypes.JSON {
	return datatypes.JSON(fmt.Sprintf(`{"counter": %q, "threshold": %d}`, counter, threshold))
}

// defaultAchievements is the built-in catalog. Upserted by key on startup so
// redeploys pick up copy changes without touching existing unlocks.
var defaultAchievements = []*types.Achievement{
	{Key: "first_couples_challenge", Title: "Better Together", Description: "Complete your first couples challenge", Criteria: criteria("couples_challenge_count", 1), Reward: 10},
	{Key: "five_couples_challenges", Title: "Stronger Every Week", Description: "Complete five couples challenges", Criteria: criteria("couples_challenge_count", 5), Reward: 25},
	{Key: "first_assessment", Title: "Know Thyself", Description: "Complete your first assessment", Criteria: criteria("assessment_count", 1), Reward: 10},
	{Key: "five_assessments", Title: "Self Scholar", Description: "Complete five assessments", Criteria: criteria("assessment_count", 5), Reward: 25},
	{Key: "first_conversation", Title: "Opening Up", Description: "Complete your first conversation", Criteria: criteria("conversation_count", 1), Reward: 5},
	{Key: "first_connection", Title: "Reaching Out", Description: "Make your first connection", Criteria: criteria("connection_count", 1), Reward: 5},
	{Key: "wellness_explorer", Title: "Wellness Explorer", Description: "Complete three wellness resources", Criteria: criteria("wellness_resource_count", 3), Reward: 15},
}

func seedAchievements(ctx context.Context, log *logger.Logger, reposet Repos) error {
	if err := reposet.Achievement.UpsertByKey(dbctx.New(ctx), defaultAchievements); err != nil {
		return fmt.Errorf("seed achievements: %w", err)
	}
	log.Info("Achievement catalog seeded", "count", len(defaultAchievements))
	return nil
}
