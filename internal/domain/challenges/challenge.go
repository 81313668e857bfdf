package challenges

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/newomen/newme-backend/internal/domain/user"
)

// Challenge lifecycle. "analyzed" is reached directly from "active" once the
// completion gate and analysis pipeline succeed; nothing leaves "analyzed".
const (
	StatusActive    = "active"
	StatusComplete  = "complete"
	StatusAnalyzed  = "analyzed"
	StatusCancelled = "cancelled"
)

const (
	SenderUser    = "user"
	SenderPartner = "partner"
	SenderAI      = "ai"
	SenderSystem  = "system"
)

// QuestionSet is the immutable question list snapshotted onto a challenge at
// creation time.
type QuestionSet struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Questions   []string `json:"questions"`
}

// Message is one turn in a challenge. QuestionIndex tags which question the
// turn answers; older clients may omit it, in which case pairing falls back
// to positional order.
type Message struct {
	ID            string    `json:"id"`
	Sender        string    `json:"sender"`
	Content       string    `json:"content"`
	QuestionIndex *int      `json:"question_index,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

type CouplesChallenge struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	InitiatorID uuid.UUID  `gorm:"type:uuid;not null;index" json:"initiator_id"`
	Initiator   *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:InitiatorID;references:ID" json:"initiator,omitempty"`

	PartnerID *uuid.UUID `gorm:"type:uuid;index" json:"partner_id,omitempty"`
	Partner   *user.User `gorm:"constraint:OnDelete:SET NULL;foreignKey:PartnerID;references:ID" json:"partner,omitempty"`

	TemplateID *uuid.UUID `gorm:"type:uuid;index" json:"template_id,omitempty"`

	QuestionSet          datatypes.JSON `gorm:"type:jsonb;column:question_set;not null" json:"question_set"`
	Messages             datatypes.JSON `gorm:"type:jsonb;column:messages;not null;default:'[]'" json:"messages"`
	CurrentQuestionIndex int            `gorm:"column:current_question_index;not null;default:0" json:"current_question_index"`

	Status     string         `gorm:"column:status;not null;default:'active';index" json:"status"`
	AIAnalysis datatypes.JSON `gorm:"type:jsonb;column:ai_analysis" json:"ai_analysis,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now();index" json:"updated_at"`
}

func (CouplesChallenge) TableName() string { return "couples_challenges" }

func (c *CouplesChallenge) ParsedQuestionSet() (QuestionSet, error) {
	var qs QuestionSet
	if len(c.QuestionSet) == 0 {
		return qs, fmt.Errorf("challenge %s has no question set", c.ID)
	}
	if err := json.Unmarshal(c.QuestionSet, &qs); err != nil {
		return qs, fmt.Errorf("parse question set: %w", err)
	}
	return qs, nil
}

func (c *CouplesChallenge) ParsedMessages() ([]Message, error) {
	if len(c.Messages) == 0 {
		return []Message{}, nil
	}
	var msgs []Message
	if err := json.Unmarshal(c.Messages, &msgs); err != nil {
		return nil, fmt.Errorf("parse messages: %w", err)
	}
	return msgs, nil
}

func (c *CouplesChallenge) HasAnalysis() bool {
	return len(c.AIAnalysis) > 0 && string(c.AIAnalysis) != "null"
}
