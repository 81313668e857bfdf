package steps

import (
	"errors"
	"testing"
	"time"

	types "github.com/newomen/newme-backend/internal/domain"
)

func msg(sender, content string, idx *int) types.ChallengeMessage {
	return types.ChallengeMessage{
		ID:            "m",
		Sender:        sender,
		Content:       content,
		QuestionIndex: idx,
		Timestamp:     time.Now(),
	}
}

func idx(i int) *int { return &i }

func TestEvaluateGateNoQuestions(t *testing.T) {
	err := EvaluateGate(nil, []types.ChallengeMessage{
		msg(types.SenderUser, "hi", nil),
	})
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestEvaluateGateIncomplete(t *testing.T) {
	questions := []string{"q1", "q2"}
	msgs := []types.ChallengeMessage{
		msg(types.SenderUser, "a1", idx(0)),
		msg(types.SenderUser, "a2", idx(1)),
		msg(types.SenderPartner, "b1", idx(0)),
	}
	err := EvaluateGate(questions, msgs)
	var inc *IncompleteError
	if !errors.As(err, &inc) {
		t.Fatalf("expected IncompleteError, got %v", err)
	}
	if inc.Questions != 2 || inc.UserResponses != 2 || inc.PartnerResponses != 1 {
		t.Fatalf("unexpected progress counts: %+v", inc)
	}
}

func TestEvaluateGateIgnoresOtherSendersAndBlanks(t *testing.T) {
	questions := []string{"q1"}
	msgs := []types.ChallengeMessage{
		msg(types.SenderAI, "welcome", nil),
		msg(types.SenderSystem, "joined", nil),
		msg(types.SenderUser, "   ", nil),
		msg(types.SenderUser, "a1", nil),
		msg(types.SenderPartner, "b1", nil),
	}
	if err := EvaluateGate(questions, msgs); err != nil {
		t.Fatalf("expected gate to pass, got %v", err)
	}
}

func TestEvaluateGateBothComplete(t *testing.T) {
	questions := []string{"q1", "q2", "q3"}
	var msgs []types.ChallengeMessage
	for i := 0; i < 3; i++ {
		msgs = append(msgs, msg(types.SenderUser, "a", idx(i)))
		msgs = append(msgs, msg(types.SenderPartner, "b", idx(i)))
	}
	if err := EvaluateGate(questions, msgs); err != nil {
		t.Fatalf("expected gate to pass, got %v", err)
	}
}
