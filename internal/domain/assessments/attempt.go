package assessments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/newomen/newme-backend/internal/domain/user"
)

const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusSubmitted  = "submitted"
	AttemptStatusCompleted  = "completed"
)

type AssessmentAttempt struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *user.User  `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	AssessmentID uuid.UUID   `gorm:"type:uuid;not null;index" json:"assessment_id"`
	Assessment   *Assessment `gorm:"constraint:OnDelete:CASCADE;foreignKey:AssessmentID;references:ID" json:"assessment,omitempty"`

	Responses        datatypes.JSON `gorm:"type:jsonb;column:responses;not null;default:'{}'" json:"responses"`
	TimeSpentMinutes int            `gorm:"column:time_spent_minutes;not null;default:0" json:"time_spent_minutes"`

	AIAnalysis    datatypes.JSON `gorm:"type:jsonb;column:ai_analysis" json:"ai_analysis,omitempty"`
	AIScore       *int           `gorm:"column:ai_score" json:"ai_score,omitempty"`
	AIFeedback    string         `gorm:"column:ai_feedback" json:"ai_feedback,omitempty"`
	AIExplanation string         `gorm:"column:ai_explanation" json:"ai_explanation,omitempty"`
	IsAIProcessed bool           `gorm:"column:is_ai_processed;not null;default:false" json:"is_ai_processed"`

	Status      string     `gorm:"column:status;not null;default:'in_progress';index" json:"status"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AssessmentAttempt) TableName() string { return "assessment_attempts" }
