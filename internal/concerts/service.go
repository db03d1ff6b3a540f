package concerts

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

// Service exposes the concert planning operations.
type Service interface {
	CreateConcert(ctx context.Context, input CreateConcertInput, correlationID string) (*ConcertDTO, error)
	GetConcert(ctx context.Context, id int64) (*ConcertDTO, error)
	ListConcerts(ctx context.Context, filter ListFilter) ([]ConcertDTO, error)
	UpdateConcert(ctx context.Context, id int64, input UpdateConcertInput, correlationID string) (*ConcertDTO, error)
	DeleteConcert(ctx context.Context, id int64, correlationID string) (*ConcertDTO, error)
}

// CreateConcertInput holds the validated payload to create a concert. Status
// is the raw client value; nil means "use the default".
type CreateConcertInput struct {
	Title           string
	Location        models.Location
	MeetupTime      *time.Time
	SoundCheckTime  *time.Time
	StartTime       time.Time
	ExpectedEndTime *time.Time
	Notes           *string
	Status          *string
}

// UpdateConcertInput replaces the concert's fields wholesale. A nil Status
// keeps the stored value.
type UpdateConcertInput struct {
	Title           string
	Location        models.Location
	MeetupTime      *time.Time
	SoundCheckTime  *time.Time
	StartTime       time.Time
	ExpectedEndTime *time.Time
	Notes           *string
	Status          *string
}

type changeEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.ChangeEvent) error
}

// service implements the concert service.
type service struct {
	repo     *Repository
	dbClient *db.Client
	emitter  changeEmitter
	logg     *logger.Logger
}

// NewService constructs a concert service instance.
func NewService(repo *Repository, dbClient *db.Client, emitter changeEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("concert repository required")
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

// CreateConcert validates the payload, persists the concert, and queues the
// change notification in the same transaction.
func (s *service) CreateConcert(ctx context.Context, input CreateConcertInput, correlationID string) (*ConcertDTO, error) {
	if err := validateConcertFields(input.Title, input.Location, input.StartTime, input.ExpectedEndTime); err != nil {
		return nil, err
	}

	status := enums.ConcertStatusProposed
	if input.Status != nil {
		parsed, err := enums.ParseConcertStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		status = parsed
	}

	concert := &models.Concert{
		Title:           strings.TrimSpace(input.Title),
		Location:        input.Location,
		MeetupTime:      normalizeOptionalUTC(input.MeetupTime),
		SoundCheckTime:  normalizeOptionalUTC(input.SoundCheckTime),
		StartTime:       input.StartTime.UTC(),
		ExpectedEndTime: normalizeOptionalUTC(input.ExpectedEndTime),
		Notes:           input.Notes,
		Status:          status,
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		created, err := txRepo.Create(ctx, concert)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert concert")
		}
		return s.emitter.Emit(ctx, tx, outbox.ChangeEvent{
			Kind:          enums.KindConcert,
			EntityID:      created.ID,
			Operation:     enums.OperationCreated,
			CorrelationID: correlationID,
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create concert")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithEntity(ctx, string(enums.KindConcert), concert.ID), "concert created")
	}
	return NewConcertDTO(concert), nil
}

// GetConcert loads a single concert.
func (s *service) GetConcert(ctx context.Context, id int64) (*ConcertDTO, error) {
	concert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "concert not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load concert")
	}
	return NewConcertDTO(concert), nil
}

// ListConcerts returns concerts matching the filter. Read-only; never touches
// the outbox.
func (s *service) ListConcerts(ctx context.Context, filter ListFilter) ([]ConcertDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list concerts")
	}
	dtos := make([]ConcertDTO, len(rows))
	for i := range rows {
		dtos[i] = *NewConcertDTO(&rows[i])
	}
	return dtos, nil
}

// UpdateConcert replaces the concert fields and queues the change
// notification in the same transaction.
func (s *service) UpdateConcert(ctx context.Context, id int64, input UpdateConcertInput, correlationID string) (*ConcertDTO, error) {
	if err := validateConcertFields(input.Title, input.Location, input.StartTime, input.ExpectedEndTime); err != nil {
		return nil, err
	}

	concert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "concert not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load concert")
	}

	if input.Status != nil {
		parsed, err := enums.ParseConcertStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		concert.Status = parsed
	}

	concert.Title = strings.TrimSpace(input.Title)
	concert.Location = input.Location
	concert.MeetupTime = normalizeOptionalUTC(input.MeetupTime)
	concert.SoundCheckTime = normalizeOptionalUTC(input.SoundCheckTime)
	concert.StartTime = input.StartTime.UTC()
	concert.ExpectedEndTime = normalizeOptionalUTC(input.ExpectedEndTime)
	concert.Notes = input.Notes

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.Update(ctx, concert); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "concert not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update concert")
		}
		return s.emitter.Emit(ctx, tx, outbox.ChangeEvent{
			Kind:          enums.KindConcert,
			EntityID:      concert.ID,
			Operation:     enums.OperationUpdated,
			CorrelationID: correlationID,
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update concert")
	}

	return NewConcertDTO(concert), nil
}

// DeleteConcert removes the concert and queues the change notification in the
// same transaction. Returns the deleted concert.
func (s *service) DeleteConcert(ctx context.Context, id int64, correlationID string) (*ConcertDTO, error) {
	concert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "concert not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load concert")
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "concert not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete concert")
		}
		return s.emitter.Emit(ctx, tx, outbox.ChangeEvent{
			Kind:          enums.KindConcert,
			EntityID:      id,
			Operation:     enums.OperationDeleted,
			CorrelationID: correlationID,
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete concert")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithEntity(ctx, string(enums.KindConcert), id), "concert deleted")
	}
	return NewConcertDTO(concert), nil
}

func validateConcertFields(title string, location models.Location, startTime time.Time, expectedEnd *time.Time) error {
	if strings.TrimSpace(title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if startTime.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start_time is required")
	}
	if err := validateLocation(location); err != nil {
		return err
	}
	if expectedEnd != nil && !expectedEnd.After(startTime) {
		return pkgerrors.New(pkgerrors.CodeValidation, "expected_end_time must be after start_time")
	}
	return nil
}

func validateLocation(location models.Location) error {
	if location.Latitude < -90 || location.Latitude > 90 {
		return pkgerrors.New(pkgerrors.CodeValidation, "latitude must be between -90 and 90")
	}
	if location.Longitude < -180 || location.Longitude > 180 {
		return pkgerrors.New(pkgerrors.CodeValidation, "longitude must be between -180 and 180")
	}
	return nil
}

func normalizeOptionalUTC(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	utc := value.UTC()
	return &utc
}
