package controllers

import (
	"context"
	"net/http"

	"github.com/orchestraops/planning-service/api/responses"
	"github.com/orchestraops/planning-service/api/validators"
	"github.com/orchestraops/planning-service/pkg/db/models"
	pkgerrors "github.com/orchestraops/planning-service/pkg/errors"
	"github.com/orchestraops/planning-service/pkg/logger"
)

const (
	dlqDefaultLimit = 50
	dlqMaxLimit     = 500
)

// DLQLister reads terminal outbox failures, newest first.
type DLQLister interface {
	List(ctx context.Context, limit int) ([]models.OutboxDLQ, error)
}

// ListOutboxDLQ handles GET /api/v1/outbox/dlq for operators inspecting
// events that exhausted delivery.
func ListOutboxDLQ(repo DLQLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dlq repository unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", dlqDefaultLimit, 1, dlqMaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := repo.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list dlq entries"))
			return
		}

		responses.WriteSuccess(w, rows)
	}
}
