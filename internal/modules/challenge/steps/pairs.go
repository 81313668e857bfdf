package steps

import (
	"strings"

	types "github.com/newomen/newme-backend/internal/domain"
)

// BuildPairs resolves, for each question, the initiator's and partner's
// answer. Messages tagged with a question_index claim that slot, later tags
// overwrite earlier ones. Untagged messages fall back to positional order
// within their sender's stream, filling the lowest slot not already claimed by
// a tag. Questions missing either side are skipped.
func BuildPairs(questions []string, msgs []types.ChallengeMessage) []ResponsePair {
	userAnswers := resolveAnswers(questions, msgs, types.SenderUser)
	partnerAnswers := resolveAnswers(questions, msgs, types.SenderPartner)

	pairs := make([]ResponsePair, 0, len(questions))
	for i, q := range questions {
		u, uok := userAnswers[i]
		p, pok := partnerAnswers[i]
		if !uok || !pok {
			continue
		}
		pairs = append(pairs, ResponsePair{
			QuestionIndex:   i,
			Question:        q,
			UserResponse:    u,
			PartnerResponse: p,
		})
	}
	return pairs
}

func resolveAnswers(questions []string, msgs []types.ChallengeMessage, sender string) map[int]string {
	answers := make(map[int]string, len(questions))
	tagged := make(map[int]bool, len(questions))
	var untagged []string

	for _, m := range msgs {
		if m.Sender != sender || strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.QuestionIndex != nil {
			idx := *m.QuestionIndex
			if idx < 0 || idx >= len(questions) {
				continue
			}
			answers[idx] = m.Content
			tagged[idx] = true
			continue
		}
		untagged = append(untagged, m.Content)
	}

	next := 0
	for _, content := range untagged {
		for next < len(questions) && tagged[next] {
			next++
		}
		if next >= len(questions) {
			break
		}
		answers[next] = content
		next++
	}
	return answers
}
