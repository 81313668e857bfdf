package assessments

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/newomen/newme-backend/internal/domain"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/logger"
)

type AssessmentProgressRepo interface {
	GetByUserAndAssessment(dbc dbctx.Context, userID, assessmentID uuid.UUID) (*types.AssessmentProgress, error)

	// GetOrCreate returns the progress row, creating it when absent.
	GetOrCreate(dbc dbctx.Context, userID, assessmentID uuid.UUID) (*types.AssessmentProgress, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type assessmentProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentProgressRepo(db *gorm.DB, log *logger.Logger) AssessmentProgressRepo {
	return &assessmentProgressRepo{db: db, log: log.With("repo", "AssessmentProgressRepo")}
}

func (r *assessmentProgressRepo) GetByUserAndAssessment(dbc dbctx.Context, userID, assessmentID uuid.UUID) (*types.AssessmentProgress, error) {
	if userID == uuid.Nil || assessmentID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id or assessment_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.AssessmentProgress
	if err := txx.WithContext(dbc.Ctx).
		Where("user_id = ? AND assessment_id = ?", userID, assessmentID).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *assessmentProgressRepo) GetOrCreate(dbc dbctx.Context, userID, assessmentID uuid.UUID) (*types.AssessmentProgress, error) {
	row, err := r.GetByUserAndAssessment(dbc, userID, assessmentID)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	fresh := &types.AssessmentProgress{
		ID:           uuid.New(),
		UserID:       userID,
		AssessmentID: assessmentID,
	}
	if err := txx.WithContext(dbc.Ctx).Create(fresh).Error; err != nil {
		return nil, err
	}
	return fresh, nil
}

func (r *assessmentProgressRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.AssessmentProgress{}).
		Where("id = ?", id).
		Updates(updates).Error
}
