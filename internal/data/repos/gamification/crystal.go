package gamification

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/newomen/newme-backend/internal/domain"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/logger"
)

type CrystalTransactionRepo interface {
	Create(dbc dbctx.Context, rows []*types.CrystalTransaction) ([]*types.CrystalTransaction, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CrystalTransaction, error)
}

type crystalTransactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCrystalTransactionRepo(db *gorm.DB, log *logger.Logger) CrystalTransactionRepo {
	return &crystalTransactionRepo{db: db, log: log.With("repo", "CrystalTransactionRepo")}
}

func (r *crystalTransactionRepo) Create(dbc dbctx.Context, rows []*types.CrystalTransaction) ([]*types.CrystalTransaction, error) {
	if len(rows) == 0 {
		return []*types.CrystalTransaction{}, nil
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

func (r *crystalTransactionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CrystalTransaction, error) {
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
	var out []*types.CrystalTransaction
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.CrystalTransaction{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
