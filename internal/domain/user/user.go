package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email       string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	DisplayName string    `gorm:"column:display_name;not null;default:''" json:"display_name"`

	AvatarURL   string `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	AvatarColor string `gorm:"column:avatar_color" json:"avatar_color,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "users" }

// UserProfile carries the gamification state for a user. One row per user,
// created lazily on the first event.
type UserProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	CrystalBalance int        `gorm:"column:crystal_balance;not null;default:0" json:"crystal_balance"`
	DailyStreak    int        `gorm:"column:daily_streak;not null;default:0" json:"daily_streak"`
	LastLoginAt    *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`

	AssessmentCount       int `gorm:"column:assessment_count;not null;default:0" json:"assessment_count"`
	ConversationCount     int `gorm:"column:conversation_count;not null;default:0" json:"conversation_count"`
	CouplesChallengeCount int `gorm:"column:couples_challenge_count;not null;default:0" json:"couples_challenge_count"`
	WellnessResourceCount int `gorm:"column:wellness_resource_count;not null;default:0" json:"wellness_resource_count"`
	ConnectionCount       int `gorm:"column:connection_count;not null;default:0" json:"connection_count"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserProfile) TableName() string { return "user_profiles" }
