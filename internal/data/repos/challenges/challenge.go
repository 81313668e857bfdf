package challenges

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/newomen/newme-backend/internal/domain"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/logger"
)

type ChallengeRepo interface {
	Create(dbc dbctx.Context, rows []*types.CouplesChallenge) ([]*types.CouplesChallenge, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CouplesChallenge, error)
	ListByParticipant(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CouplesChallenge, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.CouplesChallenge, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error

	// MarkAnalyzed writes the analysis report and flips status to "analyzed"
	// in one conditional update. It only succeeds while the challenge is
	// still unanalyzed, so concurrent analysis runs get exactly one winner.
	MarkAnalyzed(dbc dbctx.Context, id uuid.UUID, analysis datatypes.JSON) (bool, error)
}

type challengeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChallengeRepo(db *gorm.DB, log *logger.Logger) ChallengeRepo {
	return &challengeRepo{db: db, log: log.With("repo", "ChallengeRepo")}
}

func (r *challengeRepo) Create(dbc dbctx.Context, rows []*types.CouplesChallenge) ([]*types.CouplesChallenge, error) {
	if len(rows) == 0 {
		return []*types.CouplesChallenge{}, nil
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

func (r *challengeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CouplesChallenge, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.CouplesChallenge
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *challengeRepo) ListByParticipant(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CouplesChallenge, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.CouplesChallenge
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.CouplesChallenge{}).
		Where("initiator_id = ? OR partner_id = ?", userID, userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *challengeRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.CouplesChallenge, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.CouplesChallenge
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *challengeRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.CouplesChallenge{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *challengeRepo) MarkAnalyzed(dbc dbctx.Context, id uuid.UUID, analysis datatypes.JSON) (bool, error) {
	if id == uuid.Nil {
		return false, fmt.Errorf("missing id")
	}
	if len(analysis) == 0 {
		return false, fmt.Errorf("missing analysis")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Model(&types.CouplesChallenge{}).
		Where("id = ? AND status IN ? AND ai_analysis IS NULL", id, []string{
			types.ChallengeStatusActive,
			types.ChallengeStatusComplete,
		}).
		Updates(map[string]interface{}{
			"ai_analysis": analysis,
			"status":      types.ChallengeStatusAnalyzed,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
