package ai

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/newomen/newme-backend/internal/domain"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/logger"
)

type UsageLogRepo interface {
	Create(dbc dbctx.Context, rows []*types.AIUsageLog) ([]*types.AIUsageLog, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.AIUsageLog, error)
}

type usageLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUsageLogRepo(db *gorm.DB, log *logger.Logger) UsageLogRepo {
	return &usageLogRepo{db: db, log: log.With("repo", "UsageLogRepo")}
}

func (r *usageLogRepo) Create(dbc dbctx.Context, rows []*types.AIUsageLog) ([]*types.AIUsageLog, error) {
	if len(rows) == 0 {
		return []*types.AIUsageLog{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *usageLogRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.AIUsageLog, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.AIUsageLog
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.AIUsageLog{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
