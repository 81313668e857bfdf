package assessments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Assessment struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title           string         `gorm:"column:title;not null" json:"title"`
	Description     string         `gorm:"column:description" json:"description"`
	Category        string         `gorm:"column:category;index" json:"category"`
	DifficultyLevel string         `gorm:"column:difficulty_level" json:"difficulty_level"`
	Questions       datatypes.JSON `gorm:"type:jsonb;column:questions;not null;default:'[]'" json:"questions"`
	ScoringRubric   datatypes.JSON `gorm:"type:jsonb;column:scoring_rubric" json:"scoring_rubric,omitempty"`
	PassingScore    int            `gorm:"column:passing_score;not null;default:70" json:"passing_score"`

	// Per-assessment AI overrides; empty values fall back to service defaults.
	AISystemPrompt string  `gorm:"column:ai_system_prompt" json:"ai_system_prompt,omitempty"`
	AITemperature  float64 `gorm:"column:ai_temperature;not null;default:0" json:"ai_temperature,omitempty"`
	AIMaxTokens    int     `gorm:"column:ai_max_tokens;not null;default:0" json:"ai_max_tokens,omitempty"`

	IsActive bool `gorm:"column:is_active;not null;default:true" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Assessment) TableName() string { return "assessments" }
