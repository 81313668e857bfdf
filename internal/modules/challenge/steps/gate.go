package steps

import (
	"errors"
	"fmt"
	"strings"

	types "github.com/newomen/newme-backend/internal/domain"
)

// ErrNoQuestions means the challenge row carries an empty question set and can
// never be analyzed.
var ErrNoQuestions = errors.New("challenge has no questions")

// IncompleteError reports how far each partner has gotten when the completion
// gate rejects a challenge.
type IncompleteError struct {
	Questions        int
	UserResponses    int
	PartnerResponses int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("challenge incomplete: %d/%d initiator responses, %d/%d partner responses",
		e.UserResponses, e.Questions, e.PartnerResponses, e.Questions)
}

// EvaluateGate decides whether a challenge is ready for analysis. Both
// partners must have at least one non-empty response per question. The
// question count is checked first so an empty question set is never reported
// as "incomplete".
func EvaluateGate(questions []string, msgs []types.ChallengeMessage) error {
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	userCount, partnerCount := 0, 0
	for _, m := range msgs {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		switch m.Sender {
		case types.SenderUser:
			userCount++
		case types.SenderPartner:
			partnerCount++
		}
	}
	if userCount < len(questions) || partnerCount < len(questions) {
		return &IncompleteError{
			Questions:        len(questions),
			UserResponses:    userCount,
			PartnerResponses: partnerCount,
		}
	}
	return nil
}
