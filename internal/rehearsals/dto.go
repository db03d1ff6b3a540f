package rehearsals

import (
	"time"

	"github.com/orchestraops/planning-service/pkg/db/models"
)

// RehearsalDTO represents the rehearsal payload returned to clients.
type RehearsalDTO struct {
	ID        int64       `json:"id"`
	Title     string      `json:"title"`
	Location  LocationDTO `json:"location"`
	StartTime time.Time   `json:"start_time"`
	EndTime   time.Time   `json:"end_time"`
	Notes     *string     `json:"notes,omitempty"`
	Status    string      `json:"status"`
	Type      string      `json:"type"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// LocationDTO exposes the venue coordinates.
type LocationDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewRehearsalDTO builds a DTO from the persisted model.
func NewRehearsalDTO(rehearsal *models.Rehearsal) *RehearsalDTO {
	return &RehearsalDTO{
		ID:    rehearsal.ID,
		Title: rehearsal.Title,
		Location: LocationDTO{
			Latitude:  rehearsal.Location.Latitude,
			Longitude: rehearsal.Location.Longitude,
		},
		StartTime: rehearsal.StartTime,
		EndTime:   rehearsal.EndTime,
		Notes:     rehearsal.Notes,
		Status:    string(rehearsal.Status),
		Type:      string(rehearsal.Type),
		CreatedAt: rehearsal.CreatedAt,
		UpdatedAt: rehearsal.UpdatedAt,
	}
}
