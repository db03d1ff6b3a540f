package rehearsals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/orchestraops/planning-service/pkg/db"
	"github.com/orchestraops/planning-service/pkg/db/models"
	"github.com/orchestraops/planning-service/pkg/enums"
	pkgerrors "github.com/orchestraops/planning-service/pkg/errors"
	"github.com/orchestraops/planning-service/pkg/logger"
	"github.com/orchestraops/planning-service/pkg/outbox"
)

// Service exposes the rehearsal planning operations.
type Service interface {
	CreateRehearsal(ctx context.Context, input CreateRehearsalInput, correlationID string) (*RehearsalDTO, error)
	GetRehearsal(ctx context.Context, id int64) (*RehearsalDTO, error)
	ListRehearsals(ctx context.Context, filter ListFilter) ([]RehearsalDTO, error)
	UpdateRehearsal(ctx context.Context, id int64, input UpdateRehearsalInput, correlationID string) (*RehearsalDTO, error)
	DeleteRehearsal(ctx context.Context, id int64, correlationID string) (*RehearsalDTO, error)
}

// CreateRehearsalInput holds the validated payload to create a rehearsal.
// Status and Type are the raw client values; nil means "use the default".
type CreateRehearsalInput struct {
	Title     string
	Location  models.Location
	StartTime time.Time
	EndTime   time.Time
	Notes     *string
	Status    *string
	Type      *string
}

// UpdateRehearsalInput replaces the rehearsal's fields wholesale. Nil Status
// or Type keeps the stored value.
type UpdateRehearsalInput struct {
	Title     string
	Location  models.Location
	StartTime time.Time
	EndTime   time.Time
	Notes     *string
	Status    *string
	Type      *string
}

type changeEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.ChangeEvent) error
}

// service implements the rehearsal service.
type service struct {
	repo     *Repository
	dbClient *db.Client
	emitter  changeEmitter
	logg     *logger.Logger
}

// NewService constructs a rehearsal service instance.
func NewService(repo *Repository, dbClient *db.Client, emitter changeEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rehearsal repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("change emitter required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		emitter:  emitter,
		logg:     logg,
	}, nil
}

// CreateRehearsal validates the payload, persists the rehearsal, and queues
// the change notification in the same transaction.
func (s *service) CreateRehearsal(ctx context.Context, input CreateRehearsalInput, correlationID string) (*RehearsalDTO, error) {
	if err := validateRehearsalFields(input.Title, input.Location, input.StartTime, input.EndTime); err != nil {
		return nil, err
	}

	status := enums.RehearsalStatusPlanned
	if input.Status != nil {
		parsed, err := enums.ParseRehearsalStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		status = parsed
	}
	sessionType := enums.RehearsalTypeRegular
	if input.Type != nil {
		parsed, err := enums.ParseRehearsalType(*input.Type)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		sessionType = parsed
	}

	rehearsal := &models.Rehearsal{
		Title:     strings.TrimSpace(input.Title),
		Location:  input.Location,
		StartTime: input.StartTime.UTC(),
		EndTime:   input.EndTime.UTC(),
		Notes:     input.Notes,
		Status:    status,
		Type:      sessionType,
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		created, err := txRepo.Create(ctx, rehearsal)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert rehearsal")
		}
		return s.emitter.Emit(ctx, tx, outbox.ChangeEvent{
			Kind:          enums.KindRehearsal,
			EntityID:      created.ID,
			Operation:     enums.OperationCreated,
			CorrelationID: correlationID,
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create rehearsal")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithEntity(ctx, string(enums.KindRehearsal), rehearsal.ID), "rehearsal created")
	}
	return NewRehearsalDTO(rehearsal), nil
}

// GetRehearsal loads a single rehearsal.
func (s *service) GetRehearsal(ctx context.Context, id int64) (*RehearsalDTO, error) {
	rehearsal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rehearsal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rehearsal")
	}
	return NewRehearsalDTO(rehearsal), nil
}

// ListRehearsals returns rehearsals matching the filter. Read-only; never
// touches the outbox.
func (s *service) ListRehearsals(ctx context.Context, filter ListFilter) ([]RehearsalDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rehearsals")
	}
	dtos := make([]RehearsalDTO, len(rows))
	for i := range rows {
		dtos[i] = *NewRehearsalDTO(&rows[i])
	}
	return dtos, nil
}

// UpdateRehearsal replaces the rehearsal fields and queues the change
// notification in the same transaction.
func (s *service) UpdateRehearsal(ctx context.Context, id int64, input UpdateRehearsalInput, correlationID string) (*RehearsalDTO, error) {
	if err := validateRehearsalFields(input.Title, input.Location, input.StartTime, input.EndTime); err != nil {
		return nil, err
	}

	rehearsal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rehearsal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rehearsal")
	}

	if input.Status != nil {
		parsed, err := enums.ParseRehearsalStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		rehearsal.Status = parsed
	}
	if input.Type != nil {
		parsed, err := enums.ParseRehearsalType(*input.Type)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		rehearsal.Type = parsed
	}

	rehearsal.Title = strings.TrimSpace(input.Title)
	rehearsal.Location = input.Location
	rehearsal.StartTime = input.StartTime.UTC()
	rehearsal.EndTime = input.EndTime.UTC()
	rehearsal.Notes = input.Notes

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.Update(ctx, rehearsal); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "rehearsal not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update rehearsal")
		}
		return s.emitter.Emit(ctx, tx, outbox.ChangeEvent{
			Kind:          enums.KindRehearsal,
			EntityID:      rehearsal.ID,
			Operation:     enums.OperationUpdated,
			CorrelationID: correlationID,
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rehearsal")
	}

	return NewRehearsalDTO(rehearsal), nil
}

// DeleteRehearsal removes the rehearsal and queues the change notification in
// the same transaction. Returns the deleted rehearsal.
func (s *service) DeleteRehearsal(ctx context.Context, id int64, correlationID string) (*RehearsalDTO, error) {
	rehearsal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rehearsal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rehearsal")
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "rehearsal not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete rehearsal")
		}
		return s.emitter.Emit(ctx, tx, outbox.ChangeEvent{
			Kind:          enums.KindRehearsal,
			EntityID:      id,
			Operation:     enums.OperationDeleted,
			CorrelationID: correlationID,
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete rehearsal")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithEntity(ctx, string(enums.KindRehearsal), id), "rehearsal deleted")
	}
	return NewRehearsalDTO(rehearsal), nil
}

func validateRehearsalFields(title string, location models.Location, startTime, endTime time.Time) error {
	if strings.TrimSpace(title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if startTime.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start_time is required")
	}
	if endTime.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "end_time is required")
	}
	if !endTime.After(startTime) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end_time must be after start_time")
	}
	if location.Latitude < -90 || location.Latitude > 90 {
		return pkgerrors.New(pkgerrors.CodeValidation, "latitude must be between -90 and 90")
	}
	if location.Longitude < -180 || location.Longitude > 180 {
		return pkgerrors.New(pkgerrors.CodeValidation, "longitude must be between -180 and 180")
	}
	return nil
}
