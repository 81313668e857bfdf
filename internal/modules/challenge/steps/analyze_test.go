package steps

import (
	"errors"
	"testing"
)

const validAnalysisJSON = `{
	"overall_analysis": "Both partners value quality time together.",
	"individual_insights": {"person_a": "Leans on routine.", "person_b": "Seeks novelty."},
	"alignment_score": 82,
	"growth_opportunities": ["planning shared activities"],
	"conversation_starters": ["What does an ideal weekend look like?"],
	"strengths_as_couple": ["mutual respect"]
}`

func TestParseAnalysisValid(t *testing.T) {
	qa, err := ParseAnalysis(validAnalysisJSON)
	if err != nil {
		t.Fatalf("expected valid analysis, got %v", err)
	}
	if qa.AlignmentScore != 82 {
		t.Fatalf("expected score 82, got %d", qa.AlignmentScore)
	}
	if qa.IndividualInsights.PersonB != "Seeks novelty." {
		t.Fatalf("unexpected insights: %+v", qa.IndividualInsights)
	}
}

func TestParseAnalysisStripsMarkdownFence(t *testing.T) {
	qa, err := ParseAnalysis("```json\n" + validAnalysisJSON + "\n```")
	if err != nil {
		t.Fatalf("expected fenced JSON to parse, got %v", err)
	}
	if qa.AlignmentScore != 82 {
		t.Fatalf("expected score 82, got %d", qa.AlignmentScore)
	}
}

func TestParseAnalysisInvalidJSON(t *testing.T) {
	_, err := ParseAnalysis("I think they are doing great!")
	if !errors.Is(err, ErrMalformedAnalysis) {
		t.Fatalf("expected ErrMalformedAnalysis, got %v", err)
	}
}

func TestParseAnalysisMissingAnalysisText(t *testing.T) {
	_, err := ParseAnalysis(`{"alignment_score": 50}`)
	if !errors.Is(err, ErrMalformedAnalysis) {
		t.Fatalf("expected ErrMalformedAnalysis, got %v", err)
	}
}

func TestParseAnalysisScoreOutOfRange(t *testing.T) {
	_, err := ParseAnalysis(`{"overall_analysis": "x", "alignment_score": 140}`)
	if !errors.Is(err, ErrMalformedAnalysis) {
		t.Fatalf("expected ErrMalformedAnalysis, got %v", err)
	}
}
