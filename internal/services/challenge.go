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
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/newomen/newme-backend/internal/data/repos"
	types "github.com/newomen/newme-backend/internal/domain"
	"github.com/newomen/newme-backend/internal/modules/challenge/steps"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/apierr"
	"github.com/newomen/newme-backend/internal/platform/logger"
	"github.com/newomen/newme-backend/internal/platform/zai"
	"github.com/newomen/newme-backend/internal/realtime"
)

// PersistFailedError carries the computed report when the analyzed result
// could not be written, so callers can still hand it to the couple.
type PersistFailedError struct {
	Report *steps.AnalysisReport
	Err    error
}

func (e *PersistFailedError) Error() string {
	return fmt.Sprintf("analysis computed but not persisted: %v", e.Err)
}

func (e *PersistFailedError) Unwrap() error { return e.Err }

type ChallengeService interface {
	Create(ctx context.Context, initiatorID uuid.UUID, templateID *uuid.UUID, custom *types.QuestionSet) (*types.CouplesChallenge, error)
	Join(ctx context.Context, challengeID, partnerID uuid.UUID) (*types.CouplesChallenge, error)
	AppendMessage(ctx context.Context, challengeID, senderUserID uuid.UUID, content string, questionIndex *int) (*types.CouplesChallenge, error)
	Get(dbc dbctx.Context, challengeID uuid.UUID) (*types.CouplesChallenge, error)
	ListMine(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CouplesChallenge, error)
	ListTemplates(dbc dbctx.Context, limit int) ([]*types.ChallengeTemplate, error)
	GenerateNextQuestion(ctx context.Context, challengeID uuid.UUID) (string, error)
	Analyze(ctx context.Context, challengeID uuid.UUID) (*steps.AnalysisReport, error)
}

type challengeService struct {
	db            *gorm.DB
	log           *logger.Logger
	challengeRepo repos.ChallengeRepo
	templateRepo  repos.ChallengeTemplateRepo
	usageRepo     repos.AIUsageLogRepo
	ai            zai.Client
	rewards       RewardsNotifier
	bus           realtime.Bus
}

func NewChallengeService(
	db *gorm.DB,
	log *logger.Logger,
	challengeRepo repos.ChallengeRepo,
	templateRepo repos.ChallengeTemplateRepo,
	usageRepo repos.AIUsageLogRepo,
	ai zai.Client,
	rewards RewardsNotifier,
	bus realtime.Bus,
) ChallengeService {
	return &challengeService{
		db:            db,
		log:           log.With("service", "ChallengeService"),
		challengeRepo: challengeRepo,
		templateRepo:  templateRepo,
		usageRepo:     usageRepo,
		ai:            ai,
		rewards:       rewards,
		bus:           bus,
	}
}

func (cs *challengeService) Create(ctx context.Context, initiatorID uuid.UUID, templateID *uuid.UUID, custom *types.QuestionSet) (*types.CouplesChallenge, error) {
	if initiatorID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("missing initiator"))
	}
	dbc := dbctx.New(ctx)

	var qs types.QuestionSet
	switch {
	case custom != nil:
		qs = *custom
	case templateID != nil:
		tmpl, err := cs.templateRepo.GetByID(dbc, *templateID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.Newf(http.StatusNotFound, apierr.CodeNotFound, "template %s not found", *templateID)
		}
		if err != nil {
			return nil, err
		}
		var questions []string
		if err := json.Unmarshal(tmpl.Questions, &questions); err != nil {
			return nil, fmt.Errorf("parse template questions: %w", err)
		}
		qs = types.QuestionSet{Title: tmpl.Title, Description: tmpl.Description, Questions: questions}
	default:
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("template_id or question_set required"))
	}

	if len(qs.Questions) == 0 {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeInvalidChallenge, fmt.Errorf("question set is empty"))
	}

	raw, err := json.Marshal(qs)
	if err != nil {
		return nil, err
	}
	row := &types.CouplesChallenge{
		ID:          uuid.New(),
		InitiatorID: initiatorID,
		TemplateID:  templateID,
		QuestionSet: datatypes.JSON(raw),
		Messages:    datatypes.JSON([]byte("[]")),
		Status:      types.ChallengeStatusActive,
	}
	if _, err := cs.challengeRepo.Create(dbc, []*types.CouplesChallenge{row}); err != nil {
		return nil, err
	}

	cs.publish(ctx, realtime.ChallengeChannel(row.ID), realtime.EventChallengeCreated, row)
	return row, nil
}

func (cs *challengeService) Join(ctx context.Context, challengeID, partnerID uuid.UUID) (*types.CouplesChallenge, error) {
	if partnerID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("missing partner"))
	}

	var row *types.CouplesChallenge
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)

		locked, err := cs.challengeRepo.LockByID(dbc, challengeID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.Newf(http.StatusNotFound, apierr.CodeChallengeNotFound, "challenge %s not found", challengeID)
		}
		if err != nil {
			return err
		}
		if locked.Status != types.ChallengeStatusActive {
			return apierr.Newf(http.StatusBadRequest, apierr.CodeInvalidChallenge, "challenge is %s", locked.Status)
		}
		if locked.InitiatorID == partnerID {
			return apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("initiator cannot join own challenge"))
		}
		if locked.PartnerID != nil {
			return apierr.New(http.StatusConflict, apierr.CodeInvalidChallenge, fmt.Errorf("challenge already has a partner"))
		}

		if err := cs.challengeRepo.UpdateFields(dbc, challengeID, map[string]interface{}{
			"partner_id": partnerID,
		}); err != nil {
			return err
		}
		locked.PartnerID = &partnerID
		row = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	cs.publish(ctx, realtime.ChallengeChannel(challengeID), realtime.EventChallengeJoined, row)
	return row, nil
}

func (cs *challengeService) AppendMessage(ctx context.Context, challengeID, senderUserID uuid.UUID, content string, questionIndex *int) (*types.CouplesChallenge, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("empty message"))
	}

	var row *types.CouplesChallenge
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)

		locked, err := cs.challengeRepo.LockByID(dbc, challengeID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.Newf(http.StatusNotFound, apierr.CodeChallengeNotFound, "challenge %s not found", challengeID)
		}
		if err != nil {
			return err
		}
		if locked.Status != types.ChallengeStatusActive {
			return apierr.Newf(http.StatusBadRequest, apierr.CodeInvalidChallenge, "challenge is %s", locked.Status)
		}

		sender := ""
		switch senderUserID {
		case locked.InitiatorID:
			sender = types.SenderUser
		default:
			if locked.PartnerID == nil || *locked.PartnerID != senderUserID {
				return apierr.New(http.StatusForbidden, apierr.CodeForbidden, fmt.Errorf("not a participant"))
			}
			sender = types.SenderPartner
		}

		msgs, err := locked.ParsedMessages()
		if err != nil {
			return err
		}
		msgs = append(msgs, types.ChallengeMessage{
			ID:            uuid.NewString(),
			Sender:        sender,
			Content:       content,
			QuestionIndex: questionIndex,
			Timestamp:     time.Now().UTC(),
		})
		raw, err := json.Marshal(msgs)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{"messages": datatypes.JSON(raw)}
		if questionIndex != nil && *questionIndex >= locked.CurrentQuestionIndex {
			updates["current_question_index"] = *questionIndex
		}
		if err := cs.challengeRepo.UpdateFields(dbc, challengeID, updates); err != nil {
			return err
		}
		locked.Messages = datatypes.JSON(raw)
		row = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	cs.publish(ctx, realtime.ChallengeChannel(challengeID), realtime.EventChallengeMessage, map[string]any{
		"challenge_id": challengeID,
	})
	return row, nil
}

func (cs *challengeService) Get(dbc dbctx.Context, challengeID uuid.UUID) (*types.CouplesChallenge, error) {
	row, err := cs.challengeRepo.GetByID(dbc, challengeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.Newf(http.StatusNotFound, apierr.CodeChallengeNotFound, "challenge %s not found", challengeID)
	}
	return row, err
}

func (cs *challengeService) ListMine(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CouplesChallenge, error) {
	return cs.challengeRepo.ListByParticipant(dbc, userID, limit)
}

func (cs *challengeService) ListTemplates(dbc dbctx.Context, limit int) ([]*types.ChallengeTemplate, error) {
	return cs.templateRepo.ListActive(dbc, limit)
}

func (cs *challengeService) GenerateNextQuestion(ctx context.Context, challengeID uuid.UUID) (string, error) {
	dbc := dbctx.New(ctx)
	row, err := cs.Get(dbc, challengeID)
	if err != nil {
		return "", err
	}
	if row.Status != types.ChallengeStatusActive {
		return "", apierr.Newf(http.StatusBadRequest, apierr.CodeInvalidChallenge, "challenge is %s", row.Status)
	}
	qs, err := row.ParsedQuestionSet()
	if err != nil {
		return "", apierr.New(http.StatusBadRequest, apierr.CodeInvalidChallenge, err)
	}
	msgs, err := row.ParsedMessages()
	if err != nil {
		return "", err
	}
	answered := len(steps.BuildPairs(qs.Questions, msgs))

	res, err := cs.ai.Chat(ctx, zai.ChatRequest{
		System:      steps.QuestionGenSystemPrompt,
		User:        steps.BuildQuestionGenPrompt(qs.Title, qs.Questions, answered),
		Fast:        true,
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", apierr.New(http.StatusInternalServerError, apierr.CodeProviderError, err)
	}
	question := strings.TrimSpace(strings.Trim(strings.TrimSpace(res.Content), `"`))
	if question == "" {
		return "", apierr.New(http.StatusInternalServerError, apierr.CodeMalformedProviderResponse, fmt.Errorf("empty question from provider"))
	}

	// Recorded as an ai message only. The question set is fixed at creation;
	// the completion gate keeps counting against the original questions.
	msgs = append(msgs, types.ChallengeMessage{
		ID:        uuid.NewString(),
		Sender:    types.SenderAI,
		Content:   question,
		Timestamp: time.Now().UTC(),
	})
	rawMsgs, err := json.Marshal(msgs)
	if err != nil {
		return "", err
	}
	if err := cs.challengeRepo.UpdateFields(dbc, challengeID, map[string]interface{}{
		"messages": datatypes.JSON(rawMsgs),
	}); err != nil {
		return "", err
	}
	return question, nil
}

// Analyze runs the full pipeline: completion gate, per-question provider
// calls, aggregation, then a conditional write so only one caller ever
// persists a report for a given challenge. Re-running on an analyzed
// challenge returns the stored report.
func (cs *challengeService) Analyze(ctx context.Context, challengeID uuid.UUID) (*steps.AnalysisReport, error) {
	dbc := dbctx.New(ctx)

	row, err := cs.challengeRepo.GetByID(dbc, challengeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.Newf(http.StatusNotFound, apierr.CodeChallengeNotFound, "challenge %s not found", challengeID)
	}
	if err != nil {
		return nil, err
	}

	if row.HasAnalysis() {
		return storedReport(row)
	}
	if row.Status == types.ChallengeStatusCancelled {
		return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeInvalidChallenge, "challenge is cancelled")
	}
	if row.Status == types.ChallengeStatusAnalyzed {
		// Status says analyzed but the report is gone; treat as corrupt.
		return nil, apierr.Newf(http.StatusConflict, apierr.CodeAlreadyAnalyzed, "challenge already analyzed")
	}

	qs, err := row.ParsedQuestionSet()
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeInvalidChallenge, err)
	}
	// Snapshot once; concurrent appends during analysis do not shift pairing.
	msgs, err := row.ParsedMessages()
	if err != nil {
		return nil, err
	}

	if err := steps.EvaluateGate(qs.Questions, msgs); err != nil {
		if errors.Is(err, steps.ErrNoQuestions) {
			return nil, apierr.New(http.StatusBadRequest, apierr.CodeInvalidChallenge, err)
		}
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeIncompleteChallenge, err)
	}

	pairs := steps.BuildPairs(qs.Questions, msgs)

	started := time.Now()
	totalTokens := 0
	analyses := make([]steps.QuestionAnalysis, 0, len(pairs))
	for _, pair := range pairs {
		qa, tokens, err := steps.AnalyzePair(ctx, cs.ai, pair)
		totalTokens += tokens
		if err != nil {
			cs.logUsage(ctx, row, totalTokens, time.Since(started), false)
			if errors.Is(err, steps.ErrMalformedAnalysis) {
				return nil, apierr.New(http.StatusInternalServerError, apierr.CodeMalformedProviderResponse, err)
			}
			return nil, apierr.New(http.StatusInternalServerError, apierr.CodeProviderError, err)
		}
		analyses = append(analyses, qa)
	}

	report, err := steps.Aggregate(qs.Title, len(qs.Questions), cs.ai.Model(), analyses)
	if err != nil {
		cs.logUsage(ctx, row, totalTokens, time.Since(started), false)
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeNoAnalyses, err)
	}
	cs.logUsage(ctx, row, totalTokens, time.Since(started), true)

	report.AnalyzedAt = time.Now().UTC()
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	won, err := cs.challengeRepo.MarkAnalyzed(dbc, challengeID, datatypes.JSON(raw))
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceError,
			&PersistFailedError{Report: &report, Err: err})
	}
	if !won {
		// Another caller persisted first; theirs is canonical.
		fresh, err := cs.challengeRepo.GetByID(dbc, challengeID)
		if err != nil {
			return nil, err
		}
		if fresh.HasAnalysis() {
			return storedReport(fresh)
		}
		return nil, apierr.Newf(http.StatusConflict, apierr.CodeAlreadyAnalyzed, "challenge already analyzed")
	}

	cs.dispatchRewards(ctx, row)
	cs.publish(ctx, realtime.ChallengeChannel(challengeID), realtime.EventChallengeAnalyzed, map[string]any{
		"challenge_id":      challengeID,
		"overall_alignment": report.OverallAlignment,
	})

	cs.log.Info("challenge analyzed",
		"challenge_id", challengeID,
		"questions_analyzed", report.QuestionsAnalyzed,
		"overall_alignment", report.OverallAlignment,
		"tokens_used", totalTokens)
	return &report, nil
}

func storedReport(row *types.CouplesChallenge) (*steps.AnalysisReport, error) {
	var report steps.AnalysisReport
	if err := json.Unmarshal(row.AIAnalysis, &report); err != nil {
		return nil, fmt.Errorf("parse stored analysis: %w", err)
	}
	return &report, nil
}

// dispatchRewards awards both partners. Best-effort: a failed award never
// undoes or fails the analysis.
func (cs *challengeService) dispatchRewards(ctx context.Context, row *types.CouplesChallenge) {
	if cs.rewards == nil {
		return
	}
	recipients := []uuid.UUID{row.InitiatorID}
	if row.PartnerID != nil {
		recipients = append(recipients, *row.PartnerID)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, userID := range recipients {
		userID := userID
		g.Go(func() error {
			if err := cs.rewards.ChallengeCompleted(gctx, userID, row.ID); err != nil {
				cs.log.Warn("reward dispatch failed",
					"challenge_id", row.ID,
					"user_id", userID,
					"error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (cs *challengeService) logUsage(ctx context.Context, row *types.CouplesChallenge, tokens int, elapsed time.Duration, success bool) {
	if cs.usageRepo == nil || tokens == 0 {
		return
	}
	userID := row.InitiatorID
	challengeID := row.ID
	if _, err := cs.usageRepo.Create(dbctx.New(ctx), []*types.AIUsageLog{{
		ID:                uuid.New(),
		UserID:            &userID,
		Operation:         "couples_challenge_analysis",
		RelatedEntityID:   &challengeID,
		RelatedEntityType: "couples_challenge",
		ProviderName:      "zai",
		ModelName:         cs.ai.Model(),
		TokensUsed:        tokens,
		CostUSD:           float64(tokens) / 1000 * 0.001,
		ProcessingTimeMS:  elapsed.Milliseconds(),
		Success:           success,
	}}); err != nil {
		cs.log.Warn("failed to record ai usage", "challenge_id", row.ID, "error", err)
	}
}

func (cs *challengeService) publish(ctx context.Context, channel string, event realtime.Event, data any) {
	if cs.bus == nil {
		return
	}
	if err := cs.bus.Publish(ctx, realtime.Message{Channel: channel, Event: event, Data: data}); err != nil {
		cs.log.Warn("failed to publish realtime event", "event", event, "error", err)
	}
}
