package controllers

import (
	"net/http"
	"time"

	"github.com/orchestraops/planning-service/api/middleware"
	"github.com/orchestraops/planning-service/api/responses"
	"github.com/orchestraops/planning-service/api/validators"
	rehearsalsvc "github.com/orchestraops/planning-service/internal/rehearsals"
	"github.com/orchestraops/planning-service/pkg/db/models"
	"github.com/orchestraops/planning-service/pkg/enums"
	pkgerrors "github.com/orchestraops/planning-service/pkg/errors"
	"github.com/orchestraops/planning-service/pkg/logger"
)

// CreateRehearsal handles POST /api/v1/rehearsals.
func CreateRehearsal(svc rehearsalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rehearsal service unavailable"))
			return
		}

		var payload rehearsalRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rehearsal, err := svc.CreateRehearsal(r.Context(), payload.toCreateInput(), middleware.CorrelationIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, rehearsal)
	}
}

// GetRehearsal handles GET /api/v1/rehearsals/{id}.
func GetRehearsal(svc rehearsalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rehearsal service unavailable"))
			return
		}

		id, err := parseIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rehearsal, err := svc.GetRehearsal(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rehearsal)
	}
}

// ListRehearsals handles GET /api/v1/rehearsals. Status and type filters
// combine as a conjunction.
func ListRehearsals(svc rehearsalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rehearsal service unavailable"))
			return
		}

		var filter rehearsalsvc.ListFilter
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseRehearsalStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = &status
		}
		if raw := r.URL.Query().Get("type"); raw != "" {
			kind, err := enums.ParseRehearsalType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type filter"))
				return
			}
			filter.Type = &kind
		}

		rehearsals, err := svc.ListRehearsals(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rehearsals)
	}
}

// UpdateRehearsal handles PUT /api/v1/rehearsals/{id}.
func UpdateRehearsal(svc rehearsalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rehearsal service unavailable"))
			return
		}

		id, err := parseIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload rehearsalRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rehearsal, err := svc.UpdateRehearsal(r.Context(), id, payload.toUpdateInput(), middleware.CorrelationIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rehearsal)
	}
}

// DeleteRehearsal handles DELETE /api/v1/rehearsals/{id}.
func DeleteRehearsal(svc rehearsalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rehearsal service unavailable"))
			return
		}

		id, err := parseIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rehearsal, err := svc.DeleteRehearsal(r.Context(), id, middleware.CorrelationIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rehearsal)
	}
}

type rehearsalRequest struct {
	Title     string          `json:"title" validate:"required"`
	Location  locationRequest `json:"location"`
	StartTime time.Time       `json:"start_time" validate:"required"`
	EndTime   time.Time       `json:"end_time" validate:"required"`
	Notes     *string         `json:"notes,omitempty"`
	Status    *string         `json:"status,omitempty"`
	Type      *string         `json:"type,omitempty"`
}

func (req rehearsalRequest) toCreateInput() rehearsalsvc.CreateRehearsalInput {
	return rehearsalsvc.CreateRehearsalInput{
		Title:     validators.SanitizeString(req.Title, maxTitleLen),
		Location:  models.Location{Latitude: req.Location.Latitude, Longitude: req.Location.Longitude},
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     sanitizeNotes(req.Notes),
		Status:    req.Status,
		Type:      req.Type,
	}
}

func (req rehearsalRequest) toUpdateInput() rehearsalsvc.UpdateRehearsalInput {
	return rehearsalsvc.UpdateRehearsalInput{
		Title:     validators.SanitizeString(req.Title, maxTitleLen),
		Location:  models.Location{Latitude: req.Location.Latitude, Longitude: req.Location.Longitude},
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     sanitizeNotes(req.Notes),
		Status:    req.Status,
		Type:      req.Type,
	}
}
