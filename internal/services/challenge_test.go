package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/newomen/newme-backend/internal/domain"
	"github.com/newomen/newme-backend/internal/modules/challenge/steps"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/apierr"
	"github.com/newomen/newme-backend/internal/platform/logger"
	"github.com/newomen/newme-backend/internal/platform/zai"
)

type fakeChallengeRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*types.CouplesChallenge

	markErr      error
	markOverride *bool
}

func newFakeChallengeRepo() *fakeChallengeRepo {
	return &fakeChallengeRepo{rows: make(map[uuid.UUID]*types.CouplesChallenge)}
}

func (f *fakeChallengeRepo) Create(dbc dbctx.Context, rows []*types.CouplesChallenge) ([]*types.CouplesChallenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rows {
		cp := *r
		f.rows[r.ID] = &cp
	}
	return rows, nil
}

func (f *fakeChallengeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CouplesChallenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *fakeChallengeRepo) ListByParticipant(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CouplesChallenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.CouplesChallenge
	for _, r := range f.rows {
		if r.InitiatorID == userID || (r.PartnerID != nil && *r.PartnerID == userID) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeChallengeRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.CouplesChallenge, error) {
	return f.GetByID(dbc, id)
}

func (f *fakeChallengeRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["messages"]; ok {
		row.Messages = v.(datatypes.JSON)
	}
	if v, ok := updates["question_set"]; ok {
		row.QuestionSet = v.(datatypes.JSON)
	}
	if v, ok := updates["partner_id"]; ok {
		pid := v.(uuid.UUID)
		row.PartnerID = &pid
	}
	if v, ok := updates["status"]; ok {
		row.Status = v.(string)
	}
	return nil
}

func (f *fakeChallengeRepo) MarkAnalyzed(dbc dbctx.Context, id uuid.UUID, analysis datatypes.JSON) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return false, f.markErr
	}
	if f.markOverride != nil {
		return *f.markOverride, nil
	}
	row, ok := f.rows[id]
	if !ok {
		return false, nil
	}
	if row.HasAnalysis() || (row.Status != types.ChallengeStatusActive && row.Status != types.ChallengeStatusComplete) {
		return false, nil
	}
	row.AIAnalysis = analysis
	row.Status = types.ChallengeStatusAnalyzed
	row.UpdatedAt = time.Now().UTC()
	return true, nil
}

type fakeAI struct {
	mu       sync.Mutex
	calls    int
	content  string
	failAt   int // 1-based call number to fail on; 0 disables
	failWith error
}

func (f *fakeAI) Chat(ctx context.Context, req zai.ChatRequest) (zai.ChatResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAt > 0 && f.calls >= f.failAt {
		return zai.ChatResult{}, f.failWith
	}
	return zai.ChatResult{Content: f.content, Model: "glm-4.6", TokensUsed: 100}, nil
}

func (f *fakeAI) Model() string { return "glm-4.6" }

type fakeRewards struct {
	mu    sync.Mutex
	users []uuid.UUID
	err   error
}

func (f *fakeRewards) ChallengeCompleted(ctx context.Context, userID, challengeID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userID)
	return f.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func seedReadyChallenge(t *testing.T, repo *fakeChallengeRepo, questions []string) *types.CouplesChallenge {
	t.Helper()
	partnerID := uuid.New()
	qs, err := json.Marshal(types.QuestionSet{Title: "weekend plans", Questions: questions})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var msgs []types.ChallengeMessage
	for i := range questions {
		i := i
		msgs = append(msgs,
			types.ChallengeMessage{ID: uuid.NewString(), Sender: types.SenderUser, Content: fmt.Sprintf("user answer %d", i), QuestionIndex: &i, Timestamp: time.Now()},
			types.ChallengeMessage{ID: uuid.NewString(), Sender: types.SenderPartner, Content: fmt.Sprintf("partner answer %d", i), QuestionIndex: &i, Timestamp: time.Now()},
		)
	}
	rawMsgs, err := json.Marshal(msgs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	row := &types.CouplesChallenge{
		ID:          uuid.New(),
		InitiatorID: uuid.New(),
		PartnerID:   &partnerID,
		QuestionSet: datatypes.JSON(qs),
		Messages:    datatypes.JSON(rawMsgs),
		Status:      types.ChallengeStatusActive,
	}
	if _, err := repo.Create(dbctx.New(context.Background()), []*types.CouplesChallenge{row}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return row
}

func newTestChallengeService(t *testing.T, repo *fakeChallengeRepo, ai *fakeAI, rewards RewardsNotifier) ChallengeService {
	t.Helper()
	return NewChallengeService(nil, testLogger(t), repo, nil, nil, ai, rewards, nil)
}

const goodAnalysisJSON = `{
	"overall_analysis": "The couple shows solid alignment.",
	"individual_insights": {"person_a": "Reflective.", "person_b": "Direct."},
	"alignment_score": 80,
	"growth_opportunities": ["scheduling"],
	"conversation_starters": ["What would make weekends better?"],
	"strengths_as_couple": ["honesty"]
}`

func TestAnalyzeHappyPath(t *testing.T) {
	repo := newFakeChallengeRepo()
	ai := &fakeAI{content: goodAnalysisJSON}
	rewards := &fakeRewards{}
	svc := newTestChallengeService(t, repo, ai, rewards)

	row := seedReadyChallenge(t, repo, []string{"q1", "q2"})

	report, err := svc.Analyze(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if report.OverallAlignment != 80 || report.QuestionsAnalyzed != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if ai.calls != 2 {
		t.Fatalf("expected one provider call per question, got %d", ai.calls)
	}

	stored, _ := repo.GetByID(dbctx.New(context.Background()), row.ID)
	if stored.Status != types.ChallengeStatusAnalyzed || !stored.HasAnalysis() {
		t.Fatalf("expected analyzed row with report, got status=%s", stored.Status)
	}
	if len(rewards.users) != 2 {
		t.Fatalf("expected rewards for both partners, got %v", rewards.users)
	}
}

func TestAnalyzeNotFound(t *testing.T) {
	svc := newTestChallengeService(t, newFakeChallengeRepo(), &fakeAI{content: goodAnalysisJSON}, nil)
	_, err := svc.Analyze(context.Background(), uuid.New())
	if !apierr.Is(err, apierr.CodeChallengeNotFound) {
		t.Fatalf("expected challenge_not_found, got %v", err)
	}
}

func TestAnalyzeIncompleteReturnsProgress(t *testing.T) {
	repo := newFakeChallengeRepo()
	svc := newTestChallengeService(t, repo, &fakeAI{content: goodAnalysisJSON}, nil)

	row := seedReadyChallenge(t, repo, []string{"q1", "q2"})
	one := 0
	msgs := []types.ChallengeMessage{
		{ID: uuid.NewString(), Sender: types.SenderUser, Content: "only answer", QuestionIndex: &one, Timestamp: time.Now()},
	}
	raw, _ := json.Marshal(msgs)
	if err := repo.UpdateFields(dbctx.New(context.Background()), row.ID, map[string]interface{}{"messages": datatypes.JSON(raw)}); err != nil {
		t.Fatalf("update: %v", err)
	}

	_, err := svc.Analyze(context.Background(), row.ID)
	if !apierr.Is(err, apierr.CodeIncompleteChallenge) {
		t.Fatalf("expected incomplete_challenge, got %v", err)
	}
	var inc *steps.IncompleteError
	if !errors.As(err, &inc) {
		t.Fatalf("expected IncompleteError in chain, got %v", err)
	}
	if inc.Questions != 2 || inc.UserResponses != 1 || inc.PartnerResponses != 0 {
		t.Fatalf("unexpected progress: %+v", inc)
	}
}

func TestAnalyzeEmptyQuestionSetIsInvalid(t *testing.T) {
	repo := newFakeChallengeRepo()
	svc := newTestChallengeService(t, repo, &fakeAI{content: goodAnalysisJSON}, nil)

	qs, _ := json.Marshal(types.QuestionSet{Title: "empty"})
	row := &types.CouplesChallenge{
		ID:          uuid.New(),
		InitiatorID: uuid.New(),
		QuestionSet: datatypes.JSON(qs),
		Messages:    datatypes.JSON([]byte("[]")),
		Status:      types.ChallengeStatusActive,
	}
	repo.Create(dbctx.New(context.Background()), []*types.CouplesChallenge{row})

	_, err := svc.Analyze(context.Background(), row.ID)
	if !apierr.Is(err, apierr.CodeInvalidChallenge) {
		t.Fatalf("expected invalid_challenge, got %v", err)
	}
}

func TestAnalyzeProviderFailureLeavesRowUntouched(t *testing.T) {
	repo := newFakeChallengeRepo()
	ai := &fakeAI{content: goodAnalysisJSON, failAt: 2, failWith: errors.New("upstream 503")}
	svc := newTestChallengeService(t, repo, ai, nil)

	row := seedReadyChallenge(t, repo, []string{"q1", "q2"})

	_, err := svc.Analyze(context.Background(), row.ID)
	if !apierr.Is(err, apierr.CodeProviderError) {
		t.Fatalf("expected provider_error, got %v", err)
	}

	stored, _ := repo.GetByID(dbctx.New(context.Background()), row.ID)
	if stored.Status != types.ChallengeStatusActive || stored.HasAnalysis() {
		t.Fatalf("provider failure must not mutate the row, got status=%s", stored.Status)
	}
}

func TestAnalyzeMalformedResponse(t *testing.T) {
	repo := newFakeChallengeRepo()
	ai := &fakeAI{content: "sorry, I cannot help with that"}
	svc := newTestChallengeService(t, repo, ai, nil)

	row := seedReadyChallenge(t, repo, []string{"q1"})

	_, err := svc.Analyze(context.Background(), row.ID)
	if !apierr.Is(err, apierr.CodeMalformedProviderResponse) {
		t.Fatalf("expected malformed_provider_response, got %v", err)
	}
}

func TestAnalyzeIdempotentOnAnalyzedChallenge(t *testing.T) {
	repo := newFakeChallengeRepo()
	ai := &fakeAI{content: goodAnalysisJSON}
	svc := newTestChallengeService(t, repo, ai, nil)

	row := seedReadyChallenge(t, repo, []string{"q1"})

	first, err := svc.Analyze(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	callsAfterFirst := ai.calls

	second, err := svc.Analyze(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if ai.calls != callsAfterFirst {
		t.Fatalf("re-analysis must not call the provider again")
	}
	if second.OverallAlignment != first.OverallAlignment || !second.AnalyzedAt.Equal(first.AnalyzedAt) {
		t.Fatalf("expected stored report back, got %+v vs %+v", second, first)
	}
}

func TestAnalyzeLoserReturnsStoredReport(t *testing.T) {
	repo := newFakeChallengeRepo()
	ai := &fakeAI{content: goodAnalysisJSON}
	svc := newTestChallengeService(t, repo, ai, nil)

	row := seedReadyChallenge(t, repo, []string{"q1"})

	// Simulate a concurrent winner: CAS reports no rows, and the stored row
	// already carries a report.
	winner := steps.AnalysisReport{OverallAlignment: 55, Summary: "winner", AnalyzedAt: time.Now().UTC()}
	rawWinner, _ := json.Marshal(winner)
	lost := false
	repo.markOverride = &lost
	repo.mu.Lock()
	repo.rows[row.ID].AIAnalysis = datatypes.JSON(rawWinner)
	repo.mu.Unlock()

	report, err := svc.Analyze(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("loser should still get the stored report, got %v", err)
	}
	if report.Summary != "winner" || report.OverallAlignment != 55 {
		t.Fatalf("expected winner's report, got %+v", report)
	}
}

func TestAnalyzePersistenceFailureAttachesReport(t *testing.T) {
	repo := newFakeChallengeRepo()
	ai := &fakeAI{content: goodAnalysisJSON}
	svc := newTestChallengeService(t, repo, ai, nil)

	row := seedReadyChallenge(t, repo, []string{"q1"})
	repo.markErr = errors.New("connection reset")

	_, err := svc.Analyze(context.Background(), row.ID)
	if !apierr.Is(err, apierr.CodePersistenceError) {
		t.Fatalf("expected persistence_error, got %v", err)
	}
	var pf *PersistFailedError
	if !errors.As(err, &pf) {
		t.Fatalf("expected PersistFailedError in chain, got %v", err)
	}
	if pf.Report == nil || pf.Report.OverallAlignment != 80 {
		t.Fatalf("expected computed report attached, got %+v", pf.Report)
	}
}

func TestAnalyzeRewardFailureDoesNotFailAnalysis(t *testing.T) {
	repo := newFakeChallengeRepo()
	ai := &fakeAI{content: goodAnalysisJSON}
	rewards := &fakeRewards{err: errors.New("engine down")}
	svc := newTestChallengeService(t, repo, ai, rewards)

	row := seedReadyChallenge(t, repo, []string{"q1"})

	if _, err := svc.Analyze(context.Background(), row.ID); err != nil {
		t.Fatalf("reward failure must not fail analysis, got %v", err)
	}
}

func TestCreateRequiresQuestions(t *testing.T) {
	svc := newTestChallengeService(t, newFakeChallengeRepo(), &fakeAI{}, nil)
	_, err := svc.Create(context.Background(), uuid.New(), nil, &types.QuestionSet{Title: "empty"})
	if !apierr.Is(err, apierr.CodeInvalidChallenge) {
		t.Fatalf("expected invalid_challenge, got %v", err)
	}
}

func TestGenerateNextQuestionKeepsQuestionSet(t *testing.T) {
	repo := newFakeChallengeRepo()
	ai := &fakeAI{content: "What tradition would you like to start together?"}
	svc := newTestChallengeService(t, repo, ai, nil)

	row := seedReadyChallenge(t, repo, []string{"q1", "q2"})

	question, err := svc.GenerateNextQuestion(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if question != "What tradition would you like to start together?" {
		t.Fatalf("unexpected question %q", question)
	}

	stored, _ := repo.GetByID(dbctx.New(context.Background()), row.ID)
	qs, err := stored.ParsedQuestionSet()
	if err != nil {
		t.Fatalf("parse question set: %v", err)
	}
	if len(qs.Questions) != 2 || qs.Questions[0] != "q1" || qs.Questions[1] != "q2" {
		t.Fatalf("question set must stay fixed after generation, got %v", qs.Questions)
	}
	msgs, err := stored.ParsedMessages()
	if err != nil {
		t.Fatalf("parse messages: %v", err)
	}
	last := msgs[len(msgs)-1]
	if last.Sender != types.SenderAI || last.Content != question {
		t.Fatalf("expected generated question recorded as ai message, got %+v", last)
	}
}
