package challenges

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChallengeTemplate is a reusable question set couples can start a challenge
// from. Questions are stored as a jsonb string array.
type ChallengeTemplate struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	Category    string         `gorm:"column:category;index" json:"category"`
	Questions   datatypes.JSON `gorm:"type:jsonb;column:questions;not null;default:'[]'" json:"questions"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ChallengeTemplate) TableName() string { return "challenge_templates" }
