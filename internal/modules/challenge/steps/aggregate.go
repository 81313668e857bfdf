package steps

import (
	"errors"
	"math"
)

// ErrNoAnalyses means aggregation was asked to summarize zero per-question
// analyses.
var ErrNoAnalyses = errors.New("no analyses to aggregate")

const (
	maxNextSteps    = 3
	maxListedThemes = 5
)

// Aggregate folds the per-question analyses into the single report persisted
// to ai_analysis. Scores average with round-half-up; the first analysis's
// overall_analysis doubles as the summary. Deterministic: identical input
// yields an identical report; the caller stamps AnalyzedAt at persist time.
func Aggregate(title string, totalQuestions int, provider string, analyses []QuestionAnalysis) (AnalysisReport, error) {
	if len(analyses) == 0 {
		return AnalysisReport{}, ErrNoAnalyses
	}

	sum := 0
	for _, a := range analyses {
		sum += a.AlignmentScore
	}
	mean := float64(sum) / float64(len(analyses))

	var starters, strengths, growth []string
	for _, a := range analyses {
		starters = append(starters, a.ConversationStarters...)
		strengths = append(strengths, a.StrengthsAsCouple...)
		growth = append(growth, a.GrowthOpportunities...)
	}

	return AnalysisReport{
		ChallengeTitle:      title,
		OverallAlignment:    int(math.Round(mean)),
		Summary:             analyses[0].OverallAnalysis,
		StrengthsAsCouple:   truncate(dedupe(strengths), maxListedThemes),
		GrowthOpportunities: truncate(dedupe(growth), maxListedThemes),
		NextSteps:           truncate(dedupe(starters), maxNextSteps),
		QuestionAnalyses:    analyses,
		TotalQuestions:      totalQuestions,
		QuestionsAnalyzed:   len(analyses),
		Provider:            provider,
	}, nil
}

func truncate(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}
