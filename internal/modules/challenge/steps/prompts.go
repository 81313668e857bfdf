package steps

import "fmt"

// AnalysisSystemPrompt constrains every per-question call to a fixed persona
// and JSON shape. The pipeline depends on these exact keys.
const AnalysisSystemPrompt = `You are a professional relationship counselor analyzing a couple's responses to a relationship question. Provide a thoughtful, empathetic analysis.

Respond ONLY with a JSON object of this exact shape:
{
  "overall_analysis": "2-3 sentence analysis of how the couple's answers relate",
  "individual_insights": {
    "person_a": "1-2 sentence insight about the first partner's response",
    "person_b": "1-2 sentence insight about the second partner's response"
  },
  "alignment_score": <integer 0-100, how aligned the two responses are>,
  "growth_opportunities": ["specific area the couple could work on", ...],
  "conversation_starters": ["question the couple could discuss next", ...],
  "strengths_as_couple": ["strength this exchange reveals", ...]
}

Be warm and constructive. Never diagnose, never assign blame, and keep every item concise.`

// QuestionGenSystemPrompt drives dynamic follow-up question generation on the
// fast model.
const QuestionGenSystemPrompt = `You are a relationship counselor designing a couples exercise. Given the conversation so far, write ONE new open-ended question that builds on what both partners have shared. Respond with the question text only, no preamble, no quotes.`

func BuildAnalysisPrompt(p ResponsePair) string {
	return fmt.Sprintf("Question: %s\n\nPartner A answered: %s\n\nPartner B answered: %s",
		p.Question, p.UserResponse, p.PartnerResponse)
}

func BuildQuestionGenPrompt(title string, previous []string, answered int) string {
	prompt := fmt.Sprintf("Challenge: %s\nQuestions already asked and answered (%d):\n", title, answered)
	for i, q := range previous {
		prompt += fmt.Sprintf("%d. %s\n", i+1, q)
	}
	prompt += "\nWrite the next question."
	return prompt
}
