package models

import (
	"time"

	"github.com/orchestraops/planning-service/pkg/enums"
)

// Rehearsal is a planned practice session.
type Rehearsal struct {
	ID        int64                 `gorm:"column:id;primaryKey;autoIncrement"`
	Title     string                `gorm:"column:title;not null"`
	Location  Location              `gorm:"embedded"`
	StartTime time.Time             `gorm:"column:start_time;not null"`
	EndTime   time.Time             `gorm:"column:end_time;not null"`
	Notes     *string               `gorm:"column:notes"`
	Status    enums.RehearsalStatus `gorm:"column:status;not null"`
	Type      enums.RehearsalType   `gorm:"column:type;not null"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
