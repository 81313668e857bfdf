package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/newomen/newme-backend/internal/domain/user"
)

// Crystal award sources, mirrored in the event handlers.
const (
	SourceAssessmentCompletion       = "assessment_completion"
	SourceDailyLogin                 = "daily_login"
	SourceConversationCompletion     = "conversation_completion"
	SourceCouplesChallengeCompletion = "couples_challenge_completion"
	SourceWellnessResourceCompletion = "wellness_resource_completion"
	SourceMakeConnection             = "make_connection"
)

type CrystalTransaction struct {
	ID     uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	Amount      int    `gorm:"column:amount;not null" json:"amount"`
	Source      string `gorm:"column:source;not null;index" json:"source"`
	Description string `gorm:"column:description" json:"description"`

	RelatedEntityID   *uuid.UUID `gorm:"type:uuid;column:related_entity_id" json:"related_entity_id,omitempty"`
	RelatedEntityType string     `gorm:"column:related_entity_type" json:"related_entity_type,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (CrystalTransaction) TableName() string { return "crystal_transactions" }

// Achievement is a catalog entry. Criteria holds the rule payload the engine
// evaluates (counter name + threshold).
type Achievement struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Key         string         `gorm:"column:key;not null;uniqueIndex" json:"key"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	Criteria    datatypes.JSON `gorm:"type:jsonb;column:criteria;not null;default:'{}'" json:"criteria"`
	Reward      int            `gorm:"column:reward;not null;default:0" json:"reward"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Achievement) TableName() string { return "achievements" }

type UserAchievement struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index:idx_user_achievement,unique" json:"user_id"`
	AchievementID uuid.UUID `gorm:"type:uuid;not null;index:idx_user_achievement,unique" json:"achievement_id"`

	UnlockedAt time.Time `gorm:"column:unlocked_at;not null;default:now()" json:"unlocked_at"`
}

func (UserAchievement) TableName() string { return "user_achievements" }
