package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/newomen/newme-backend/internal/data/repos"
	types "github.com/newomen/newme-backend/internal/domain"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/apierr"
	"github.com/newomen/newme-backend/internal/platform/logger"
	"github.com/newomen/newme-backend/internal/platform/zai"
	"github.com/newomen/newme-backend/internal/realtime"
)

const defaultAssessmentSystemPrompt = `You are an experienced wellness coach scoring a self-assessment. Review the person's responses and respond ONLY with a JSON object:
{
  "score": <integer 0-100>,
  "feedback": "2-4 sentences of warm, specific feedback",
  "explanation": "1-2 sentences on how the score was reached"
}`

const fallbackAssessmentScore = 70

type AssessmentResult struct {
	Score       int    `json:"score"`
	Feedback    string `json:"feedback"`
	Explanation string `json:"explanation,omitempty"`
	Passed      bool   `json:"passed"`
}

type AssessmentService interface {
	Get(dbc dbctx.Context, assessmentID uuid.UUID) (*types.Assessment, error)
	ListActive(dbc dbctx.Context, limit int) ([]*types.Assessment, error)
	StartAttempt(ctx context.Context, userID, assessmentID uuid.UUID, responses json.RawMessage) (*types.AssessmentAttempt, error)
	ProcessAttempt(ctx context.Context, attemptID uuid.UUID) (*AssessmentResult, error)
	GetProgress(dbc dbctx.Context, userID, assessmentID uuid.UUID) (*types.AssessmentProgress, error)
}

type assessmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	assessmentRepo repos.AssessmentRepo
	attemptRepo    repos.AssessmentAttemptRepo
	progressRepo   repos.AssessmentProgressRepo
	usageRepo      repos.AIUsageLogRepo
	ai             zai.Client
	gamification   GamificationService
	bus            realtime.Bus
}

func NewAssessmentService(
	db *gorm.DB,
	log *logger.Logger,
	assessmentRepo repos.AssessmentRepo,
	attemptRepo repos.AssessmentAttemptRepo,
	progressRepo repos.AssessmentProgressRepo,
	usageRepo repos.AIUsageLogRepo,
	ai zai.Client,
	gamification GamificationService,
	bus realtime.Bus,
) AssessmentService {
	return &assessmentService{
		db:             db,
		log:            log.With("service", "AssessmentService"),
		assessmentRepo: assessmentRepo,
		attemptRepo:    attemptRepo,
		progressRepo:   progressRepo,
		usageRepo:      usageRepo,
		ai:             ai,
		gamification:   gamification,
		bus:            bus,
	}
}

func (as *assessmentService) Get(dbc dbctx.Context, assessmentID uuid.UUID) (*types.Assessment, error) {
	row, err := as.assessmentRepo.GetByID(dbc, assessmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.Newf(http.StatusNotFound, apierr.CodeNotFound, "assessment %s not found", assessmentID)
	}
	return row, err
}

func (as *assessmentService) ListActive(dbc dbctx.Context, limit int) ([]*types.Assessment, error) {
	return as.assessmentRepo.ListActive(dbc, limit)
}

func (as *assessmentService) StartAttempt(ctx context.Context, userID, assessmentID uuid.UUID, responses json.RawMessage) (*types.AssessmentAttempt, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("missing user"))
	}
	dbc := dbctx.New(ctx)
	if _, err := as.Get(dbc, assessmentID); err != nil {
		return nil, err
	}
	if len(responses) == 0 {
		responses = json.RawMessage("{}")
	}
	row := &types.AssessmentAttempt{
		ID:           uuid.New(),
		UserID:       userID,
		AssessmentID: assessmentID,
		Responses:    datatypes.JSON(responses),
		Status:       types.AttemptStatusSubmitted,
	}
	if _, err := as.attemptRepo.Create(dbc, []*types.AssessmentAttempt{row}); err != nil {
		return nil, err
	}
	return row, nil
}

// ProcessAttempt scores one submitted attempt. Re-processing a finished
// attempt returns the stored result.
func (as *assessmentService) ProcessAttempt(ctx context.Context, attemptID uuid.UUID) (*AssessmentResult, error) {
	dbc := dbctx.New(ctx)

	attempt, err := as.attemptRepo.GetByID(dbc, attemptID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.Newf(http.StatusNotFound, apierr.CodeNotFound, "attempt %s not found", attemptID)
	}
	if err != nil {
		return nil, err
	}

	assessment, err := as.Get(dbc, attempt.AssessmentID)
	if err != nil {
		return nil, err
	}

	if attempt.IsAIProcessed {
		return storedAssessmentResult(attempt, assessment.PassingScore)
	}

	systemPrompt := strings.TrimSpace(assessment.AISystemPrompt)
	if systemPrompt == "" {
		systemPrompt = defaultAssessmentSystemPrompt
	}
	temperature := assessment.AITemperature
	if temperature <= 0 {
		temperature = 0.6
	}
	maxTokens := assessment.AIMaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	started := time.Now()
	res, err := as.ai.Chat(ctx, zai.ChatRequest{
		System:      systemPrompt,
		User:        fmt.Sprintf("Assessment: %s\n\nResponses:\n%s", assessment.Title, string(attempt.Responses)),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		JSONObject:  true,
	})
	if err != nil {
		as.logUsage(ctx, attempt, 0, time.Since(started), false)
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeProviderError, err)
	}

	var parsed struct {
		Score       *int   `json:"score"`
		Feedback    string `json:"feedback"`
		Explanation string `json:"explanation"`
	}
	score := fallbackAssessmentScore
	if jsonErr := json.Unmarshal([]byte(strings.TrimSpace(res.Content)), &parsed); jsonErr == nil && parsed.Score != nil {
		score = clampScore(*parsed.Score)
	} else {
		as.log.Warn("assessment response not parseable; using fallback score",
			"attempt_id", attemptID)
	}

	result := &AssessmentResult{
		Score:       score,
		Feedback:    parsed.Feedback,
		Explanation: parsed.Explanation,
		Passed:      score >= assessment.PassingScore,
	}

	now := time.Now().UTC()
	lostRace := false
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.WithTx(ctx, tx)

		locked, err := as.attemptRepo.LockByID(txc, attemptID)
		if err != nil {
			return err
		}
		if locked.IsAIProcessed {
			lostRace = true
			return nil
		}

		analysisRaw, err := json.Marshal(result)
		if err != nil {
			return err
		}
		if err := as.attemptRepo.UpdateFields(txc, attemptID, map[string]interface{}{
			"ai_analysis":     datatypes.JSON(analysisRaw),
			"ai_score":        score,
			"ai_feedback":     result.Feedback,
			"ai_explanation":  result.Explanation,
			"is_ai_processed": true,
			"status":          types.AttemptStatusCompleted,
			"completed_at":    now,
		}); err != nil {
			return err
		}

		progress, err := as.progressRepo.GetOrCreate(txc, attempt.UserID, attempt.AssessmentID)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{
			"total_attempts": progress.TotalAttempts + 1,
		}
		if progress.BestScore == nil || score > *progress.BestScore {
			updates["best_score"] = score
			updates["best_attempt_id"] = attemptID
		}
		if result.Passed && !progress.IsCompleted {
			updates["is_completed"] = true
			updates["completion_date"] = now
		}
		return as.progressRepo.UpdateFields(txc, progress.ID, updates)
	})
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceError, err)
	}
	if lostRace {
		// Another processor finished first; its persisted result is
		// canonical, and it already dispatched the side effects.
		fresh, err := as.attemptRepo.GetByID(dbc, attemptID)
		if err != nil {
			return nil, err
		}
		return storedAssessmentResult(fresh, assessment.PassingScore)
	}

	as.logUsage(ctx, attempt, res.TokensUsed, time.Since(started), true)

	if result.Passed && as.gamification != nil {
		attemptID := attempt.ID
		if _, err := as.gamification.RewardActivity(ctx, attempt.UserID, "complete_assessment", &attemptID, "assessment_attempt"); err != nil {
			as.log.Warn("assessment reward dispatch failed", "attempt_id", attempt.ID, "error", err)
		}
	}
	if as.bus != nil {
		if err := as.bus.Publish(ctx, realtime.Message{
			Channel: realtime.UserChannel(attempt.UserID),
			Event:   realtime.EventAssessmentAnalyzed,
			Data:    map[string]any{"attempt_id": attempt.ID, "score": score},
		}); err != nil {
			as.log.Warn("failed to publish assessment event", "attempt_id", attempt.ID, "error", err)
		}
	}

	return result, nil
}

func (as *assessmentService) GetProgress(dbc dbctx.Context, userID, assessmentID uuid.UUID) (*types.AssessmentProgress, error) {
	row, err := as.progressRepo.GetByUserAndAssessment(dbc, userID, assessmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.Newf(http.StatusNotFound, apierr.CodeNotFound, "no progress for assessment %s", assessmentID)
	}
	return row, err
}

func storedAssessmentResult(attempt *types.AssessmentAttempt, passingScore int) (*AssessmentResult, error) {
	score := fallbackAssessmentScore
	if attempt.AIScore != nil {
		score = *attempt.AIScore
	}
	return &AssessmentResult{
		Score:       score,
		Feedback:    attempt.AIFeedback,
		Explanation: attempt.AIExplanation,
		Passed:      score >= passingScore,
	}, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func (as *assessmentService) logUsage(ctx context.Context, attempt *types.AssessmentAttempt, tokens int, elapsed time.Duration, success bool) {
	if as.usageRepo == nil {
		return
	}
	userID := attempt.UserID
	attemptID := attempt.ID
	if _, err := as.usageRepo.Create(dbctx.New(ctx), []*types.AIUsageLog{{
		ID:                uuid.New(),
		UserID:            &userID,
		Operation:         "assessment_processing",
		RelatedEntityID:   &attemptID,
		RelatedEntityType: "assessment_attempt",
		ProviderName:      "zai",
		ModelName:         as.ai.Model(),
		TokensUsed:        tokens,
		CostUSD:           float64(tokens) / 1000 * 0.001,
		ProcessingTimeMS:  elapsed.Milliseconds(),
		Success:           success,
	}}); err != nil {
		as.log.Warn("failed to record ai usage", "attempt_id", attempt.ID, "error", err)
	}
}
