package concerts

import (
	"time"

	"github.com/orchestraops/planning-service/pkg/db/models"
)

// ConcertDTO represents the concert payload returned to clients.
type ConcertDTO struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	Location        LocationDTO `json:"location"`
	MeetupTime      *time.Time  `json:"meetup_time,omitempty"`
	SoundCheckTime  *time.Time  `json:"sound_check_time,omitempty"`
	StartTime       time.Time   `json:"start_time"`
	ExpectedEndTime *time.Time  `json:"expected_end_time,omitempty"`
	Notes           *string     `json:"notes,omitempty"`
	Status          string      `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// LocationDTO exposes the venue coordinates.
type LocationDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewConcertDTO builds a DTO from the persisted model.
func NewConcertDTO(concert *models.Concert) *ConcertDTO {
	return &ConcertDTO{
		ID:    concert.ID,
		Title: concert.Title,
		Location: LocationDTO{
			Latitude:  concert.Location.Latitude,
			Longitude: concert.Location.Longitude,
		},
		MeetupTime:      concert.MeetupTime,
		SoundCheckTime:  concert.SoundCheckTime,
		StartTime:       concert.StartTime,
		ExpectedEndTime: concert.ExpectedEndTime,
		Notes:           concert.Notes,
		Status:          string(concert.Status),
		CreatedAt:       concert.CreatedAt,
		UpdatedAt:       concert.UpdatedAt,
	}
}
