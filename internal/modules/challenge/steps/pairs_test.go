package steps

import (
	"testing"

	types "github.com/newomen/newme-backend/internal/domain"
)

func TestBuildPairsTaggedMessages(t *testing.T) {
	questions := []string{"q1", "q2"}
	msgs := []types.ChallengeMessage{
		msg(types.SenderUser, "user answer 2", idx(1)),
		msg(types.SenderUser, "user answer 1", idx(0)),
		msg(types.SenderPartner, "partner answer 1", idx(0)),
		msg(types.SenderPartner, "partner answer 2", idx(1)),
	}
	pairs := BuildPairs(questions, msgs)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].UserResponse != "user answer 1" || pairs[0].PartnerResponse != "partner answer 1" {
		t.Fatalf("pair 0 mismatched: %+v", pairs[0])
	}
	if pairs[1].Question != "q2" || pairs[1].UserResponse != "user answer 2" {
		t.Fatalf("pair 1 mismatched: %+v", pairs[1])
	}
}

func TestBuildPairsLatestTagWins(t *testing.T) {
	questions := []string{"q1"}
	msgs := []types.ChallengeMessage{
		msg(types.SenderUser, "first draft", idx(0)),
		msg(types.SenderUser, "final answer", idx(0)),
		msg(types.SenderPartner, "b", idx(0)),
	}
	pairs := BuildPairs(questions, msgs)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].UserResponse != "final answer" {
		t.Fatalf("expected latest tagged answer to win, got %q", pairs[0].UserResponse)
	}
}

func TestBuildPairsPositionalFallback(t *testing.T) {
	questions := []string{"q1", "q2"}
	msgs := []types.ChallengeMessage{
		msg(types.SenderUser, "untagged 1", nil),
		msg(types.SenderUser, "untagged 2", nil),
		msg(types.SenderPartner, "p untagged 1", nil),
		msg(types.SenderPartner, "p untagged 2", nil),
	}
	pairs := BuildPairs(questions, msgs)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].UserResponse != "untagged 1" || pairs[1].UserResponse != "untagged 2" {
		t.Fatalf("positional fallback out of order: %+v", pairs)
	}
}

func TestBuildPairsUntaggedSkipsTaggedSlots(t *testing.T) {
	questions := []string{"q1", "q2"}
	msgs := []types.ChallengeMessage{
		msg(types.SenderUser, "tagged for q1", idx(0)),
		msg(types.SenderUser, "untagged", nil),
		msg(types.SenderPartner, "b1", idx(0)),
		msg(types.SenderPartner, "b2", idx(1)),
	}
	pairs := BuildPairs(questions, msgs)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].UserResponse != "tagged for q1" {
		t.Fatalf("tagged slot overwritten: %+v", pairs[0])
	}
	if pairs[1].UserResponse != "untagged" {
		t.Fatalf("untagged message should fill the free slot: %+v", pairs[1])
	}
}

func TestBuildPairsSkipsQuestionsMissingOneSide(t *testing.T) {
	questions := []string{"q1", "q2"}
	msgs := []types.ChallengeMessage{
		msg(types.SenderUser, "a1", idx(0)),
		msg(types.SenderUser, "a2", idx(1)),
		msg(types.SenderPartner, "b1", idx(0)),
	}
	pairs := BuildPairs(questions, msgs)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].QuestionIndex != 0 {
		t.Fatalf("expected only question 0 paired, got %+v", pairs[0])
	}
}

func TestBuildPairsIgnoresOutOfRangeTags(t *testing.T) {
	questions := []string{"q1"}
	msgs := []types.ChallengeMessage{
		msg(types.SenderUser, "bad tag", idx(7)),
		msg(types.SenderUser, "good", idx(0)),
		msg(types.SenderPartner, "b", idx(0)),
	}
	pairs := BuildPairs(questions, msgs)
	if len(pairs) != 1 || pairs[0].UserResponse != "good" {
		t.Fatalf("expected out-of-range tag dropped, got %+v", pairs)
	}
}
