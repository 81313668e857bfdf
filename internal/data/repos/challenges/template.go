package challenges

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/newomen/newme-backend/internal/domain"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/logger"
)

type ChallengeTemplateRepo interface {
	Create(dbc dbctx.Context, rows []*types.ChallengeTemplate) ([]*types.ChallengeTemplate, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChallengeTemplate, error)
	ListActive(dbc dbctx.Context, limit int) ([]*types.ChallengeTemplate, error)
}

type challengeTemplateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChallengeTemplateRepo(db *gorm.DB, log *logger.Logger) ChallengeTemplateRepo {
	return &challengeTemplateRepo{db: db, log: log.With("repo", "ChallengeTemplateRepo")}
}

func (r *challengeTemplateRepo) Create(dbc dbctx.Context, rows []*types.ChallengeTemplate) ([]*types.ChallengeTemplate, error) {
	if len(rows) == 0 {
		return []*types.ChallengeTemplate{}, nil
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

func (r *challengeTemplateRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChallengeTemplate, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.ChallengeTemplate
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *challengeTemplateRepo) ListActive(dbc dbctx.Context, limit int) ([]*types.ChallengeTemplate, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ChallengeTemplate
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ChallengeTemplate{}).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
