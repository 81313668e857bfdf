package assessments

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentProgress tracks a user's best result per assessment. Upserted by
// the processing pipeline; best_score only moves up.
type AssessmentProgress struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index:idx_assessment_progress_user_assessment,unique" json:"user_id"`
	AssessmentID uuid.UUID `gorm:"type:uuid;not null;index:idx_assessment_progress_user_assessment,unique" json:"assessment_id"`

	BestScore     *int       `gorm:"column:best_score" json:"best_score,omitempty"`
	BestAttemptID *uuid.UUID `gorm:"type:uuid;column:best_attempt_id" json:"best_attempt_id,omitempty"`
	TotalAttempts int        `gorm:"column:total_attempts;not null;default:0" json:"total_attempts"`
	LastAttemptAt *time.Time `gorm:"column:last_attempt_at" json:"last_attempt_at,omitempty"`

	IsCompleted    bool       `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	CompletionDate *time.Time `gorm:"column:completion_date" json:"completion_date,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AssessmentProgress) TableName() string { return "user_assessment_progress" }
