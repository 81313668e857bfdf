package assessments

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/newomen/newme-backend/internal/domain"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/logger"
)

type AssessmentAttemptRepo interface {
	Create(dbc dbctx.Context, rows []*types.AssessmentAttempt) ([]*types.AssessmentAttempt, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AssessmentAttempt, error)

	// LockByID locks the attempt row for update. Requires dbc.Tx.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.AssessmentAttempt, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	ListByUserAndAssessment(dbc dbctx.Context, userID, assessmentID uuid.UUID) ([]*types.AssessmentAttempt, error)
}

type assessmentAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentAttemptRepo(db *gorm.DB, log *logger.Logger) AssessmentAttemptRepo {
	return &assessmentAttemptRepo{db: db, log: log.With("repo", "AssessmentAttemptRepo")}
}

func (r *assessmentAttemptRepo) Create(dbc dbctx.Context, rows []*types.AssessmentAttempt) ([]*types.AssessmentAttempt, error) {
	if len(rows) == 0 {
		return []*types.AssessmentAttempt{}, nil
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

func (r *assessmentAttemptRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AssessmentAttempt, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.AssessmentAttempt
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *assessmentAttemptRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.AssessmentAttempt, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.AssessmentAttempt
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *assessmentAttemptRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.AssessmentAttempt{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *assessmentAttemptRepo) ListByUserAndAssessment(dbc dbctx.Context, userID, assessmentID uuid.UUID) ([]*types.AssessmentAttempt, error) {
	if userID == uuid.Nil || assessmentID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id or assessment_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.AssessmentAttempt
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.AssessmentAttempt{}).
		Where("user_id = ? AND assessment_id = ?", userID, assessmentID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
