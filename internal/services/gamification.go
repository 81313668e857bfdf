package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/newomen/newme-backend/internal/data/repos"
	types "github.com/newomen/newme-backend/internal/domain"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/apierr"
	"github.com/newomen/newme-backend/internal/platform/logger"
	"github.com/newomen/newme-backend/internal/realtime"
)

// RewardResult reports what a single reward event granted.
type RewardResult struct {
	Crystals             int      `json:"crystals"`
	NewBalance           int      `json:"new_balance"`
	DailyStreak          int      `json:"daily_streak,omitempty"`
	UnlockedAchievements []string `json:"unlocked_achievements,omitempty"`
}

// GamificationEvent is the wire contract of the events endpoint. The same
// shape the HTTP rewards notifier posts.
type GamificationEvent struct {
	Type              string
	UserID            uuid.UUID
	RelatedEntityID   *uuid.UUID
	RelatedEntityType string
}

type GamificationService interface {
	HandleEvent(ctx context.Context, event GamificationEvent) (*RewardResult, error)
	RewardActivity(ctx context.Context, userID uuid.UUID, activityType string, relatedEntityID *uuid.UUID, relatedEntityType string) (*RewardResult, error)
	RecordDailyLogin(ctx context.Context, userID uuid.UUID) (*RewardResult, error)
	GetProfile(dbc dbctx.Context, userID uuid.UUID) (*types.UserProfile, error)
	ListTransactions(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CrystalTransaction, error)
	ListAchievements(dbc dbctx.Context, userID uuid.UUID) ([]*types.Achievement, []*types.UserAchievement, error)
}

type gamificationService struct {
	db              *gorm.DB
	log             *logger.Logger
	rules           RewardRules
	profileRepo     repos.UserProfileRepo
	crystalRepo     repos.CrystalTransactionRepo
	achievementRepo repos.AchievementRepo
	bus             realtime.Bus
}

func NewGamificationService(
	db *gorm.DB,
	log *logger.Logger,
	rules RewardRules,
	profileRepo repos.UserProfileRepo,
	crystalRepo repos.CrystalTransactionRepo,
	achievementRepo repos.AchievementRepo,
	bus realtime.Bus,
) GamificationService {
	return &gamificationService{
		db:              db,
		log:             log.With("service", "GamificationService"),
		rules:           rules,
		profileRepo:     profileRepo,
		crystalRepo:     crystalRepo,
		achievementRepo: achievementRepo,
		bus:             bus,
	}
}

// HandleEvent routes an event by type. Unknown types are logged and ignored
// rather than rejected, so senders with a newer event vocabulary do not fail.
func (gs *gamificationService) HandleEvent(ctx context.Context, event GamificationEvent) (*RewardResult, error) {
	if event.UserID == uuid.Nil {
		return nil, apierr.New(400, apierr.CodeBadRequest, fmt.Errorf("missing user id"))
	}
	if event.Type == "daily_login" {
		return gs.RecordDailyLogin(ctx, event.UserID)
	}
	if _, ok := gs.rules.Activities[event.Type]; !ok {
		gs.log.Warn("ignoring unknown gamification event type", "type", event.Type, "user_id", event.UserID)
		return &RewardResult{}, nil
	}
	return gs.RewardActivity(ctx, event.UserID, event.Type, event.RelatedEntityID, event.RelatedEntityType)
}

func (gs *gamificationService) RewardActivity(ctx context.Context, userID uuid.UUID, activityType string, relatedEntityID *uuid.UUID, relatedEntityType string) (*RewardResult, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(400, apierr.CodeBadRequest, fmt.Errorf("missing user id"))
	}
	rule, ok := gs.rules.Activities[activityType]
	if !ok {
		return nil, apierr.Newf(400, apierr.CodeBadRequest, "unknown activity type %q", activityType)
	}

	var result RewardResult
	err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)

		profile, err := gs.profileRepo.LockByUserID(dbc, userID)
		if err != nil {
			return err
		}

		newBalance := profile.CrystalBalance + rule.Crystals
		updates := map[string]interface{}{"crystal_balance": newBalance}
		newCount := bumpCounter(profile, rule.CounterCol, updates)
		if err := gs.profileRepo.UpdateFields(dbc, userID, updates); err != nil {
			return err
		}

		if _, err := gs.crystalRepo.Create(dbc, []*types.CrystalTransaction{{
			ID:                uuid.New(),
			UserID:            userID,
			Amount:            rule.Crystals,
			Source:            rule.Source,
			Description:       rule.Description,
			RelatedEntityID:   relatedEntityID,
			RelatedEntityType: relatedEntityType,
		}}); err != nil {
			return err
		}

		unlocked, err := gs.checkAchievements(dbc, userID, rule.CounterCol, newCount)
		if err != nil {
			return err
		}

		result = RewardResult{
			Crystals:             rule.Crystals,
			NewBalance:           newBalance,
			UnlockedAchievements: unlocked,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	gs.publishReward(ctx, userID, &result)
	gs.log.Info("activity rewarded",
		"user_id", userID,
		"activity", activityType,
		"crystals", result.Crystals)
	return &result, nil
}

func (gs *gamificationService) RecordDailyLogin(ctx context.Context, userID uuid.UUID) (*RewardResult, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(400, apierr.CodeBadRequest, fmt.Errorf("missing user id"))
	}

	var result RewardResult
	err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)

		profile, err := gs.profileRepo.LockByUserID(dbc, userID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		today := now.Truncate(24 * time.Hour)

		if profile.LastLoginAt != nil {
			last := profile.LastLoginAt.UTC().Truncate(24 * time.Hour)
			if last.Equal(today) {
				result = RewardResult{NewBalance: profile.CrystalBalance, DailyStreak: profile.DailyStreak}
				return nil
			}
			if last.Equal(today.AddDate(0, 0, -1)) {
				profile.DailyStreak++
			} else {
				profile.DailyStreak = 1
			}
		} else {
			profile.DailyStreak = 1
		}

		bonus := gs.rules.DailyLogin.StreakBonus * (profile.DailyStreak - 1)
		if bonus > gs.rules.DailyLogin.StreakBonusCap {
			bonus = gs.rules.DailyLogin.StreakBonusCap
		}
		amount := gs.rules.DailyLogin.BaseCrystals + bonus
		newBalance := profile.CrystalBalance + amount

		if err := gs.profileRepo.UpdateFields(dbc, userID, map[string]interface{}{
			"crystal_balance": newBalance,
			"daily_streak":    profile.DailyStreak,
			"last_login_at":   now,
		}); err != nil {
			return err
		}

		if _, err := gs.crystalRepo.Create(dbc, []*types.CrystalTransaction{{
			ID:          uuid.New(),
			UserID:      userID,
			Amount:      amount,
			Source:      types.SourceDailyLogin,
			Description: fmt.Sprintf("Daily login (streak %d)", profile.DailyStreak),
		}}); err != nil {
			return err
		}

		result = RewardResult{
			Crystals:    amount,
			NewBalance:  newBalance,
			DailyStreak: profile.DailyStreak,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Crystals > 0 {
		gs.publishReward(ctx, userID, &result)
	}
	return &result, nil
}

func (gs *gamificationService) GetProfile(dbc dbctx.Context, userID uuid.UUID) (*types.UserProfile, error) {
	return gs.profileRepo.GetByUserID(dbc, userID)
}

func (gs *gamificationService) ListTransactions(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CrystalTransaction, error) {
	return gs.crystalRepo.ListByUser(dbc, userID, limit)
}

func (gs *gamificationService) ListAchievements(dbc dbctx.Context, userID uuid.UUID) ([]*types.Achievement, []*types.UserAchievement, error) {
	all, err := gs.achievementRepo.ListAll(dbc)
	if err != nil {
		return nil, nil, err
	}
	unlocked, err := gs.achievementRepo.ListUnlocked(dbc, userID)
	if err != nil {
		return nil, nil, err
	}
	return all, unlocked, nil
}

type achievementCriteria struct {
	Counter   string `json:"counter"`
	Threshold int    `json:"threshold"`
}

func (gs *gamificationService) checkAchievements(dbc dbctx.Context, userID uuid.UUID, counterCol string, newCount int) ([]string, error) {
	if counterCol == "" || newCount <= 0 {
		return nil, nil
	}
	all, err := gs.achievementRepo.ListAll(dbc)
	if err != nil {
		return nil, err
	}
	var unlocked []string
	for _, a := range all {
		var crit achievementCriteria
		if err := json.Unmarshal(a.Criteria, &crit); err != nil {
			gs.log.Warn("bad achievement criteria", "key", a.Key, "error", err)
			continue
		}
		if crit.Counter != counterCol || newCount < crit.Threshold {
			continue
		}
		created, err := gs.achievementRepo.Unlock(dbc, userID, a.ID)
		if err != nil {
			return nil, err
		}
		if created {
			unlocked = append(unlocked, a.Key)
		}
	}
	return unlocked, nil
}

func bumpCounter(profile *types.UserProfile, col string, updates map[string]interface{}) int {
	var next int
	switch col {
	case "assessment_count":
		next = profile.AssessmentCount + 1
	case "conversation_count":
		next = profile.ConversationCount + 1
	case "couples_challenge_count":
		next = profile.CouplesChallengeCount + 1
	case "wellness_resource_count":
		next = profile.WellnessResourceCount + 1
	case "connection_count":
		next = profile.ConnectionCount + 1
	default:
		return 0
	}
	updates[col] = next
	return next
}

func (gs *gamificationService) publishReward(ctx context.Context, userID uuid.UUID, result *RewardResult) {
	if gs.bus == nil {
		return
	}
	if err := gs.bus.Publish(ctx, realtime.Message{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.EventCrystalsAwarded,
		Data:    result,
	}); err != nil {
		gs.log.Warn("failed to publish reward event", "user_id", userID, "error", err)
	}
	for _, key := range result.UnlockedAchievements {
		if err := gs.bus.Publish(ctx, realtime.Message{
			Channel: realtime.UserChannel(userID),
			Event:   realtime.EventAchievementUnlock,
			Data:    map[string]string{"achievement": key},
		}); err != nil {
			gs.log.Warn("failed to publish achievement event", "user_id", userID, "error", err)
		}
	}
}
