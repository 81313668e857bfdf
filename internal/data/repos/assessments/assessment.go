package assessments

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/newomen/newme-backend/internal/domain"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/logger"
)

type AssessmentRepo interface {
	Create(dbc dbctx.Context, rows []*types.Assessment) ([]*types.Assessment, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error)
	ListActive(dbc dbctx.Context, limit int) ([]*types.Assessment, error)
}

type assessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentRepo(db *gorm.DB, log *logger.Logger) AssessmentRepo {
	return &assessmentRepo{db: db, log: log.With("repo", "AssessmentRepo")}
}

func (r *assessmentRepo) Create(dbc dbctx.Context, rows []*types.Assessment) ([]*types.Assessment, error) {
	if len(rows) == 0 {
		return []*types.Assessment{}, nil
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

func (r *assessmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Assessment
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *assessmentRepo) ListActive(dbc dbctx.Context, limit int) ([]*types.Assessment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Assessment
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Assessment{}).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
