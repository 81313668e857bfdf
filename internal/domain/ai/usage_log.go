package ai

import (
	"time"

	"github.com/google/uuid"
)

// AIUsageLog records one provider call for cost and latency auditing.
type AIUsageLog struct {
	ID     uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`

	Operation         string     `gorm:"column:operation;not null;index" json:"operation"`
	RelatedEntityID   *uuid.UUID `gorm:"type:uuid;column:related_entity_id" json:"related_entity_id,omitempty"`
	RelatedEntityType string     `gorm:"column:related_entity_type" json:"related_entity_type,omitempty"`

	ProviderName     string  `gorm:"column:provider_name;not null" json:"provider_name"`
	ModelName        string  `gorm:"column:model_name;not null" json:"model_name"`
	TokensUsed       int     `gorm:"column:tokens_used;not null;default:0" json:"tokens_used"`
	CostUSD          float64 `gorm:"column:cost_usd;not null;default:0" json:"cost_usd"`
	ProcessingTimeMS int64   `gorm:"column:processing_time_ms;not null;default:0" json:"processing_time_ms"`
	Success          bool    `gorm:"column:success;not null;default:true" json:"success"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (AIUsageLog) TableName() string { return "ai_usage_logs" }
