package models

import (
	"encoding/json"
	"time"

	"github.com/orchestraops/planning-service/pkg/enums"
)

// OutboxEvent records one committed mutation awaiting delivery to the bus.
// The bigserial id doubles as the append sequence: draining in id order
// preserves per-entity emission order.
type OutboxEvent struct {
	ID            int64            `gorm:"column:id;primaryKey;autoIncrement"`
	EntityKind    enums.EntityKind `gorm:"column:entity_kind;not null"`
	EntityID      int64            `gorm:"column:entity_id;not null"`
	Operation     enums.Operation  `gorm:"column:operation;not null"`
	CorrelationID string           `gorm:"column:correlation_id;not null"`
	Payload       json.RawMessage  `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	PublishedAt   *time.Time       `gorm:"column:published_at"`
	AttemptCount  int              `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string          `gorm:"column:last_error"`
}
