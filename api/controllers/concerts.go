package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/orchestraops/planning-service/api/middleware"
	"github.com/orchestraops/planning-service/api/responses"
	"github.com/orchestraops/planning-service/api/validators"
	concertsvc "github.com/orchestraops/planning-service/internal/concerts"
	"github.com/orchestraops/planning-service/pkg/db/models"
	"github.com/orchestraops/planning-service/pkg/enums"
	pkgerrors "github.com/orchestraops/planning-service/pkg/errors"
	"github.com/orchestraops/planning-service/pkg/logger"
)

const (
	maxTitleLen = 200
	maxNotesLen = 2000
)

// CreateConcert handles POST /api/v1/concerts.
func CreateConcert(svc concertsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "concert service unavailable"))
			return
		}

		var payload concertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payload.toCreateInput()
		concert, err := svc.CreateConcert(r.Context(), input, middleware.CorrelationIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, concert)
	}
}

// GetConcert handles GET /api/v1/concerts/{id}.
func GetConcert(svc concertsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "concert service unavailable"))
			return
		}

		id, err := parseIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		concert, err := svc.GetConcert(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, concert)
	}
}

// ListConcerts handles GET /api/v1/concerts with an optional status filter.
func ListConcerts(svc concertsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "concert service unavailable"))
			return
		}

		var filter concertsvc.ListFilter
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseConcertStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = &status
		}

		concerts, err := svc.ListConcerts(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, concerts)
	}
}

// UpdateConcert handles PUT /api/v1/concerts/{id}. The payload replaces the
// stored fields wholesale.
func UpdateConcert(svc concertsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "concert service unavailable"))
			return
		}

		id, err := parseIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload concertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		concert, err := svc.UpdateConcert(r.Context(), id, payload.toUpdateInput(), middleware.CorrelationIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, concert)
	}
}

// DeleteConcert handles DELETE /api/v1/concerts/{id} and returns the deleted
// resource.
func DeleteConcert(svc concertsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "concert service unavailable"))
			return
		}

		id, err := parseIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		concert, err := svc.DeleteConcert(r.Context(), id, middleware.CorrelationIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, concert)
	}
}

type concertRequest struct {
	Title           string          `json:"title" validate:"required"`
	Location        locationRequest `json:"location"`
	MeetupTime      *time.Time      `json:"meetup_time,omitempty"`
	SoundCheckTime  *time.Time      `json:"sound_check_time,omitempty"`
	StartTime       time.Time       `json:"start_time" validate:"required"`
	ExpectedEndTime *time.Time      `json:"expected_end_time,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	Status          *string         `json:"status,omitempty"`
}

type locationRequest struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

func (req concertRequest) toCreateInput() concertsvc.CreateConcertInput {
	return concertsvc.CreateConcertInput{
		Title:           validators.SanitizeString(req.Title, maxTitleLen),
		Location:        models.Location{Latitude: req.Location.Latitude, Longitude: req.Location.Longitude},
		MeetupTime:      req.MeetupTime,
		SoundCheckTime:  req.SoundCheckTime,
		StartTime:       req.StartTime,
		ExpectedEndTime: req.ExpectedEndTime,
		Notes:           sanitizeNotes(req.Notes),
		Status:          req.Status,
	}
}

func (req concertRequest) toUpdateInput() concertsvc.UpdateConcertInput {
	return concertsvc.UpdateConcertInput{
		Title:           validators.SanitizeString(req.Title, maxTitleLen),
		Location:        models.Location{Latitude: req.Location.Latitude, Longitude: req.Location.Longitude},
		MeetupTime:      req.MeetupTime,
		SoundCheckTime:  req.SoundCheckTime,
		StartTime:       req.StartTime,
		ExpectedEndTime: req.ExpectedEndTime,
		Notes:           sanitizeNotes(req.Notes),
		Status:          req.Status,
	}
}

func sanitizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	clean := validators.SanitizeString(*notes, maxNotesLen)
	return &clean
}

func parseIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "id must be a positive integer").WithDetails(map[string]any{"id": raw})
	}
	return id, nil
}
