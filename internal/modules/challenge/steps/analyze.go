package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/newomen/newme-backend/internal/platform/zai"
)

const (
	analysisTemperature = 0.6
	analysisMaxTokens   = 2000
)

// ErrMalformedAnalysis means the provider replied but not with the JSON shape
// the prompt demands.
var ErrMalformedAnalysis = errors.New("malformed analysis response")

// AnalyzePair runs one provider call for a single question's pair of
// responses. Transport and provider failures come back unwrapped so the
// caller can distinguish them from shape violations. The second return is
// the provider's reported token usage.
func AnalyzePair(ctx context.Context, client zai.Client, pair ResponsePair) (QuestionAnalysis, int, error) {
	res, err := client.Chat(ctx, zai.ChatRequest{
		System:      AnalysisSystemPrompt,
		User:        BuildAnalysisPrompt(pair),
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
		JSONObject:  true,
	})
	if err != nil {
		return QuestionAnalysis{}, 0, err
	}
	qa, err := ParseAnalysis(res.Content)
	if err != nil {
		return QuestionAnalysis{}, res.TokensUsed, err
	}
	qa.QuestionIndex = pair.QuestionIndex
	qa.Question = pair.Question
	return qa, res.TokensUsed, nil
}

// ParseAnalysis validates the provider's JSON. Models occasionally wrap the
// object in a markdown fence even when asked not to, so fences are stripped
// before decoding.
func ParseAnalysis(content string) (QuestionAnalysis, error) {
	cleaned := stripJSONFence(content)
	var qa QuestionAnalysis
	if err := json.Unmarshal([]byte(cleaned), &qa); err != nil {
		return QuestionAnalysis{}, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}
	if strings.TrimSpace(qa.OverallAnalysis) == "" {
		return QuestionAnalysis{}, fmt.Errorf("%w: missing overall_analysis", ErrMalformedAnalysis)
	}
	if qa.AlignmentScore < 0 || qa.AlignmentScore > 100 {
		return QuestionAnalysis{}, fmt.Errorf("%w: alignment_score %d out of range", ErrMalformedAnalysis, qa.AlignmentScore)
	}
	return qa, nil
}

func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
