package steps

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func analysisWithScore(score int, starters ...string) QuestionAnalysis {
	return QuestionAnalysis{
		OverallAnalysis:      "analysis",
		AlignmentScore:       score,
		ConversationStarters: starters,
	}
}

func TestAggregateEmpty(t *testing.T) {
	_, err := Aggregate("t", 3, "glm-4.6", nil)
	if !errors.Is(err, ErrNoAnalyses) {
		t.Fatalf("expected ErrNoAnalyses, got %v", err)
	}
}

func TestAggregateRoundsMeanScore(t *testing.T) {
	analyses := []QuestionAnalysis{
		analysisWithScore(70),
		analysisWithScore(75),
	}
	rep, err := Aggregate("t", 2, "glm-4.6", analyses)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	// 72.5 rounds half away from zero.
	if rep.OverallAlignment != 73 {
		t.Fatalf("expected 73, got %d", rep.OverallAlignment)
	}
}

func TestAggregateSummaryIsFirstAnalysis(t *testing.T) {
	analyses := []QuestionAnalysis{
		{OverallAnalysis: "first summary", AlignmentScore: 60},
		{OverallAnalysis: "second summary", AlignmentScore: 80},
	}
	rep, err := Aggregate("t", 2, "glm-4.6", analyses)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if rep.Summary != "first summary" {
		t.Fatalf("expected first analysis as summary, got %q", rep.Summary)
	}
}

func TestAggregateTruncatesNextStepsToThree(t *testing.T) {
	analyses := []QuestionAnalysis{
		analysisWithScore(50, "s1", "s2"),
		analysisWithScore(50, "s3", "s4"),
	}
	rep, err := Aggregate("t", 2, "glm-4.6", analyses)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(rep.NextSteps) != 3 {
		t.Fatalf("expected 3 next steps, got %v", rep.NextSteps)
	}
	if rep.NextSteps[0] != "s1" || rep.NextSteps[2] != "s3" {
		t.Fatalf("next steps out of order: %v", rep.NextSteps)
	}
}

func TestAggregateDedupesAndCapsThemes(t *testing.T) {
	analyses := []QuestionAnalysis{
		{OverallAnalysis: "a", AlignmentScore: 50, StrengthsAsCouple: []string{"trust", "humor", "trust"}},
		{OverallAnalysis: "b", AlignmentScore: 50, StrengthsAsCouple: []string{"patience", "humor", "candor", "warmth", "loyalty"}},
	}
	rep, err := Aggregate("t", 2, "glm-4.6", analyses)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(rep.StrengthsAsCouple) != 5 {
		t.Fatalf("expected 5 strengths, got %v", rep.StrengthsAsCouple)
	}
	seen := map[string]int{}
	for _, s := range rep.StrengthsAsCouple {
		seen[s]++
		if seen[s] > 1 {
			t.Fatalf("duplicate strength %q in %v", s, rep.StrengthsAsCouple)
		}
	}
}

func TestAggregateDedupesNextSteps(t *testing.T) {
	analyses := []QuestionAnalysis{
		analysisWithScore(50, "talk about money", "talk about money"),
		analysisWithScore(50, "plan a trip", "talk about money"),
	}
	rep, err := Aggregate("t", 2, "glm-4.6", analyses)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(rep.NextSteps) != 2 {
		t.Fatalf("expected 2 deduped next steps, got %v", rep.NextSteps)
	}
	if rep.NextSteps[0] != "talk about money" || rep.NextSteps[1] != "plan a trip" {
		t.Fatalf("next steps out of order: %v", rep.NextSteps)
	}
}

func TestAggregateDeterministic(t *testing.T) {
	analyses := []QuestionAnalysis{
		analysisWithScore(70, "s1", "s2"),
		analysisWithScore(75, "s3"),
	}

	first, err := Aggregate("t", 2, "glm-4.6", analyses)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	second, err := Aggregate("t", 2, "glm-4.6", analyses)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	rawFirst, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	rawSecond, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(rawFirst, rawSecond) {
		t.Fatalf("identical input produced different reports:\n%s\n%s", rawFirst, rawSecond)
	}
}

func TestAnalysisReportWireShape(t *testing.T) {
	rep, err := Aggregate("t", 1, "glm-4.6", []QuestionAnalysis{
		{OverallAnalysis: "a", AlignmentScore: 80, StrengthsAsCouple: []string{"trust"}},
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	raw, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"detailed_analyses"`, `"strengths"`, `"overall_alignment"`, `"next_steps"`} {
		if !strings.Contains(string(raw), key) {
			t.Fatalf("report JSON missing %s: %s", key, raw)
		}
	}
	if strings.Contains(string(raw), `"question_analyses"`) {
		t.Fatalf("report JSON carries a stray key: %s", raw)
	}
}

func TestAggregateCarriesCounts(t *testing.T) {
	analyses := []QuestionAnalysis{analysisWithScore(90)}
	rep, err := Aggregate("date night", 4, "glm-4.6", analyses)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if rep.ChallengeTitle != "date night" || rep.TotalQuestions != 4 || rep.QuestionsAnalyzed != 1 {
		t.Fatalf("unexpected report metadata: %+v", rep)
	}
}
