package models

import (
	"encoding/json"
	"time"

	"github.com/orchestraops/planning-service/pkg/enums"
)

// OutboxDLQ captures terminal outbox failures for auditing and remediation.
type OutboxDLQ struct {
	ID            int64                      `gorm:"column:id;primaryKey;autoIncrement"`
	EventID       int64                      `gorm:"column:event_id;not null"`
	EntityKind    enums.EntityKind           `gorm:"column:entity_kind;not null"`
	EntityID      int64                      `gorm:"column:entity_id;not null"`
	Operation     enums.Operation            `gorm:"column:operation;not null"`
	CorrelationID string                     `gorm:"column:correlation_id;not null"`
	Payload       json.RawMessage            `gorm:"column:payload;type:jsonb;not null"`
	ErrorReason   enums.OutboxDLQErrorReason `gorm:"column:error_reason;not null"`
	ErrorMessage  *string                    `gorm:"column:error_message"`
	AttemptCount  int                        `gorm:"column:attempt_count;not null;default:0"`
	FailedAt      time.Time                  `gorm:"column:failed_at;autoCreateTime"`
	CreatedAt     time.Time                  `gorm:"column:created_at;autoCreateTime"`
}
