package steps

import "time"

// QuestionAnalysis is the provider's verdict on one question's pair of
// responses. Field names mirror the JSON shape the model is instructed to
// return.
type QuestionAnalysis struct {
	QuestionIndex        int                `json:"question_index"`
	Question             string             `json:"question"`
	OverallAnalysis      string             `json:"overall_analysis"`
	IndividualInsights   IndividualInsights `json:"individual_insights"`
	AlignmentScore       int                `json:"alignment_score"`
	GrowthOpportunities  []string           `json:"growth_opportunities"`
	ConversationStarters []string           `json:"conversation_starters"`
	StrengthsAsCouple    []string           `json:"strengths_as_couple"`
}

type IndividualInsights struct {
	PersonA string `json:"person_a"`
	PersonB string `json:"person_b"`
}

// ResponsePair is one question with both partners' answers resolved.
type ResponsePair struct {
	QuestionIndex   int
	Question        string
	UserResponse    string
	PartnerResponse string
}

// AnalysisReport is the aggregated result persisted to ai_analysis and
// returned to both partners.
type AnalysisReport struct {
	ChallengeTitle      string             `json:"challenge_title"`
	OverallAlignment    int                `json:"overall_alignment"`
	Summary             string             `json:"summary"`
	StrengthsAsCouple   []string           `json:"strengths"`
	GrowthOpportunities []string           `json:"growth_opportunities"`
	NextSteps           []string           `json:"next_steps"`
	QuestionAnalyses    []QuestionAnalysis `json:"detailed_analyses"`
	TotalQuestions      int                `json:"total_questions"`
	QuestionsAnalyzed   int                `json:"questions_analyzed"`
	Provider            string             `json:"provider"`
	AnalyzedAt          time.Time          `json:"analyzed_at"`
}
