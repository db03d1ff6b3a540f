package models

import (
	"time"

	"github.com/orchestraops/planning-service/pkg/enums"
)

// Concert is a planned performance. The id is assigned by the database on
// first insert; statuses persist by name.
type Concert struct {
	ID              int64               `gorm:"column:id;primaryKey;autoIncrement"`
	Title           string              `gorm:"column:title;not null"`
	Location        Location            `gorm:"embedded"`
	MeetupTime      *time.Time          `gorm:"column:meetup_time"`
	SoundCheckTime  *time.Time          `gorm:"column:sound_check_time"`
	StartTime       time.Time           `gorm:"column:start_time;not null"`
	ExpectedEndTime *time.Time          `gorm:"column:expected_end_time"`
	Notes           *string             `gorm:"column:notes"`
	Status          enums.ConcertStatus `gorm:"column:status;not null"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
