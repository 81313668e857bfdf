package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	types "github.com/newomen/newme-backend/internal/domain"
)

func TestLoadRewardRulesDefaults(t *testing.T) {
	rules, err := LoadRewardRules()
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}

	cases := map[string]int{
		"complete_couples_challenge": 25,
		"complete_assessment":        20,
		"complete_conversation":      15,
		"complete_wellness_resource": 10,
		"make_connection":            5,
	}
	for activity, want := range cases {
		rule, ok := rules.Activities[activity]
		if !ok {
			t.Fatalf("missing activity %q", activity)
		}
		if rule.Crystals != want {
			t.Fatalf("activity %q: expected %d crystals, got %d", activity, want, rule.Crystals)
		}
		if rule.Source == "" || rule.CounterCol == "" {
			t.Fatalf("activity %q missing source or counter column", activity)
		}
	}

	if rules.DailyLogin.BaseCrystals != 10 {
		t.Fatalf("expected daily login base of 10, got %d", rules.DailyLogin.BaseCrystals)
	}
}

func TestHandleEventValidation(t *testing.T) {
	rules, err := LoadRewardRules()
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	gs := NewGamificationService(nil, testLogger(t), rules, nil, nil, nil, nil)

	if _, err := gs.HandleEvent(context.Background(), GamificationEvent{Type: "complete_assessment"}); err == nil {
		t.Fatal("expected error for missing user id")
	}

	// Unknown types are ignored, not rejected.
	result, err := gs.HandleEvent(context.Background(), GamificationEvent{Type: "complete_moonwalk", UserID: uuid.New()})
	if err != nil {
		t.Fatalf("unknown event type must be ignored, got %v", err)
	}
	if result == nil || result.Crystals != 0 {
		t.Fatalf("unknown event type must award nothing, got %+v", result)
	}
}

func TestBumpCounter(t *testing.T) {
	profile := &types.UserProfile{CouplesChallengeCount: 4, AssessmentCount: 1}

	updates := map[string]interface{}{}
	if got := bumpCounter(profile, "couples_challenge_count", updates); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if updates["couples_challenge_count"] != 5 {
		t.Fatalf("expected update entry, got %v", updates)
	}

	updates = map[string]interface{}{}
	if got := bumpCounter(profile, "unknown_counter", updates); got != 0 {
		t.Fatalf("expected 0 for unknown counter, got %d", got)
	}
	if len(updates) != 0 {
		t.Fatalf("unknown counter must not write updates, got %v", updates)
	}
}
