package gamification

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/newomen/newme-backend/internal/domain"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/logger"
)

type AchievementRepo interface {
	UpsertByKey(dbc dbctx.Context, rows []*types.Achievement) error
	ListAll(dbc dbctx.Context) ([]*types.Achievement, error)
	ListUnlocked(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserAchievement, error)

	// Unlock records an achievement for a user; a repeat unlock is a no-op.
	// Returns true when this call created the row.
	Unlock(dbc dbctx.Context, userID, achievementID uuid.UUID) (bool, error)
}

type achievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAchievementRepo(db *gorm.DB, log *logger.Logger) AchievementRepo {
	return &achievementRepo{db: db, log: log.With("repo", "AchievementRepo")}
}

func (r *achievementRepo) UpsertByKey(dbc dbctx.Context, rows []*types.Achievement) error {
	if len(rows) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "criteria", "reward"}),
		}).
		Create(&rows).Error
}

func (r *achievementRepo) ListAll(dbc dbctx.Context) ([]*types.Achievement, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Achievement
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Achievement{}).
		Order("key ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *achievementRepo) ListUnlocked(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserAchievement, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.UserAchievement
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.UserAchievement{}).
		Where("user_id = ?", userID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *achievementRepo) Unlock(dbc dbctx.Context, userID, achievementID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || achievementID == uuid.Nil {
		return false, fmt.Errorf("missing user_id or achievement_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	row := &types.UserAchievement{
		ID:            uuid.New(),
		UserID:        userID,
		AchievementID: achievementID,
	}
	res := txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
