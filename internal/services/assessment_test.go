package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/newomen/newme-backend/internal/data/repos"
	"github.com/newomen/newme-backend/internal/data/repos/testutil"
	types "github.com/newomen/newme-backend/internal/domain"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
)

type fakeGamification struct {
	mu         sync.Mutex
	activities []string
}

func (f *fakeGamification) HandleEvent(ctx context.Context, event GamificationEvent) (*RewardResult, error) {
	return &RewardResult{}, nil
}

func (f *fakeGamification) RewardActivity(ctx context.Context, userID uuid.UUID, activityType string, relatedEntityID *uuid.UUID, relatedEntityType string) (*RewardResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = append(f.activities, activityType)
	return &RewardResult{Crystals: 20}, nil
}

func (f *fakeGamification) RecordDailyLogin(ctx context.Context, userID uuid.UUID) (*RewardResult, error) {
	return &RewardResult{}, nil
}

func (f *fakeGamification) GetProfile(dbc dbctx.Context, userID uuid.UUID) (*types.UserProfile, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeGamification) ListTransactions(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CrystalTransaction, error) {
	return nil, nil
}

func (f *fakeGamification) ListAchievements(dbc dbctx.Context, userID uuid.UUID) ([]*types.Achievement, []*types.UserAchievement, error) {
	return nil, nil, nil
}

type fakeUsageRepo struct {
	mu   sync.Mutex
	rows []*types.AIUsageLog
}

func (f *fakeUsageRepo) Create(dbc dbctx.Context, rows []*types.AIUsageLog) ([]*types.AIUsageLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, rows...)
	return rows, nil
}

func (f *fakeUsageRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.AIUsageLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows, nil
}

// racingAttemptRepo simulates a concurrent processor finishing between the
// initial read and the row lock.
type racingAttemptRepo struct {
	repos.AssessmentAttemptRepo
	db   *gorm.DB
	once sync.Once
	tb   testing.TB
}

func (r *racingAttemptRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.AssessmentAttempt, error) {
	r.once.Do(func() {
		if err := r.db.Model(&types.AssessmentAttempt{}).Where("id = ?", id).Updates(map[string]interface{}{
			"ai_score":        95,
			"ai_feedback":     "already scored",
			"is_ai_processed": true,
			"status":          types.AttemptStatusCompleted,
		}).Error; err != nil {
			r.tb.Fatalf("simulate concurrent winner: %v", err)
		}
	})
	return r.AssessmentAttemptRepo.LockByID(dbc, id)
}

type assessmentHarness struct {
	db           *gorm.DB
	svc          AssessmentService
	gamification *fakeGamification
	usage        *fakeUsageRepo
	attemptRepo  repos.AssessmentAttemptRepo
	user         *types.User
	assessment   *types.Assessment
	attempt      *types.AssessmentAttempt
}

func newAssessmentHarness(t *testing.T, ai *fakeAI, wrapAttempts func(repos.AssessmentAttemptRepo) repos.AssessmentAttemptRepo) *assessmentHarness {
	t.Helper()
	db := testutil.DB(t)
	log := testLogger(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, ctx, db, uuid.NewString()+"@example.com")
	assessment := testutil.SeedAssessment(t, ctx, db, "communication basics")
	attempt := testutil.SeedAttempt(t, ctx, db, user.ID, assessment.ID)
	t.Cleanup(func() {
		db.Where("user_id = ?", user.ID).Delete(&types.AssessmentProgress{})
		db.Where("id = ?", attempt.ID).Delete(&types.AssessmentAttempt{})
		db.Where("id = ?", assessment.ID).Delete(&types.Assessment{})
		db.Where("id = ?", user.ID).Delete(&types.User{})
	})

	attemptRepo := repos.NewAssessmentAttemptRepo(db, log)
	if wrapAttempts != nil {
		attemptRepo = wrapAttempts(attemptRepo)
	}
	gamification := &fakeGamification{}
	usage := &fakeUsageRepo{}

	svc := NewAssessmentService(
		db, log,
		repos.NewAssessmentRepo(db, log),
		attemptRepo,
		repos.NewAssessmentProgressRepo(db, log),
		usage,
		ai,
		gamification,
		nil,
	)
	return &assessmentHarness{
		db:           db,
		svc:          svc,
		gamification: gamification,
		usage:        usage,
		attemptRepo:  attemptRepo,
		user:         user,
		assessment:   assessment,
		attempt:      attempt,
	}
}

func TestProcessAttemptBelowPassingScoreSkipsReward(t *testing.T) {
	h := newAssessmentHarness(t, &fakeAI{content: `{"score": 10, "feedback": "keep practicing"}`}, nil)

	result, err := h.svc.ProcessAttempt(context.Background(), h.attempt.ID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Passed || result.Score != 10 {
		t.Fatalf("expected failed attempt with score 10, got %+v", result)
	}
	if len(h.gamification.activities) != 0 {
		t.Fatalf("failed attempt must not dispatch rewards, got %v", h.gamification.activities)
	}

	stored, err := h.attemptRepo.GetByID(dbctx.New(context.Background()), h.attempt.ID)
	if err != nil {
		t.Fatalf("reload attempt: %v", err)
	}
	if !stored.IsAIProcessed || stored.Status != types.AttemptStatusCompleted {
		t.Fatalf("attempt must still be persisted as processed, got %+v", stored)
	}
}

func TestProcessAttemptPassingScoreDispatchesReward(t *testing.T) {
	h := newAssessmentHarness(t, &fakeAI{content: `{"score": 85, "feedback": "well done"}`}, nil)

	result, err := h.svc.ProcessAttempt(context.Background(), h.attempt.ID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !result.Passed || result.Score != 85 {
		t.Fatalf("expected passed attempt with score 85, got %+v", result)
	}
	if len(h.gamification.activities) != 1 || h.gamification.activities[0] != "complete_assessment" {
		t.Fatalf("expected one complete_assessment reward, got %v", h.gamification.activities)
	}
	if len(h.usage.rows) != 1 || !h.usage.rows[0].Success {
		t.Fatalf("expected one successful usage log, got %+v", h.usage.rows)
	}
}

func TestProcessAttemptRaceLoserReturnsStoredResult(t *testing.T) {
	ai := &fakeAI{content: `{"score": 10, "feedback": "computed by loser"}`}
	h := newAssessmentHarness(t, ai, func(inner repos.AssessmentAttemptRepo) repos.AssessmentAttemptRepo {
		return &racingAttemptRepo{AssessmentAttemptRepo: inner, db: testutil.DB(t), tb: t}
	})

	result, err := h.svc.ProcessAttempt(context.Background(), h.attempt.ID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	// The concurrent winner's persisted result is canonical.
	if result.Score != 95 || result.Feedback != "already scored" || !result.Passed {
		t.Fatalf("expected the stored winner result, got %+v", result)
	}
	if len(h.gamification.activities) != 0 {
		t.Fatalf("race loser must not dispatch rewards, got %v", h.gamification.activities)
	}
	if len(h.usage.rows) != 0 {
		t.Fatalf("race loser must not log usage, got %+v", h.usage.rows)
	}

	stored, err := h.attemptRepo.GetByID(dbctx.New(context.Background()), h.attempt.ID)
	if err != nil {
		t.Fatalf("reload attempt: %v", err)
	}
	if stored.AIScore == nil || *stored.AIScore != 95 {
		t.Fatalf("winner row must be untouched, got %+v", stored)
	}
}
