package realtime

import (
	"context"

	"github.com/google/uuid"
)

type Event string

const (
	EventChallengeCreated   Event = "ChallengeCreated"
	EventChallengeJoined    Event = "ChallengeJoined"
	EventChallengeMessage   Event = "ChallengeMessage"
	EventChallengeAnalyzed  Event = "ChallengeAnalyzed"
	EventCrystalsAwarded    Event = "CrystalsAwarded"
	EventAchievementUnlock  Event = "AchievementUnlocked"
	EventAssessmentAnalyzed Event = "AssessmentAnalyzed"
)

type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}

// Bus fans messages out across process instances so every SSE-connected
// client sees an event no matter which instance produced it.
type Bus interface {
	Publish(ctx context.Context, msg Message) error
	StartForwarder(ctx context.Context, onMsg func(m Message)) error
	Close() error
}

func UserChannel(userID uuid.UUID) string {
	return "user:" + userID.String()
}

func ChallengeChannel(challengeID uuid.UUID) string {
	return "challenge:" + challengeID.String()
}
