package rehearsals

import (
	"context"

	"gorm.io/gorm"

	"github.com/orchestraops/planning-service/pkg/db/models"
	"github.com/orchestraops/planning-service/pkg/enums"
)

// RehearsalRepository defines persistence operations for rehearsals.
type RehearsalRepository interface {
	Create(context.Context, *models.Rehearsal) (*models.Rehearsal, error)
	FindByID(context.Context, int64) (*models.Rehearsal, error)
	List(context.Context, ListFilter) ([]models.Rehearsal, error)
	Update(context.Context, *models.Rehearsal) (*models.Rehearsal, error)
	Delete(context.Context, int64) error
}

// ListFilter narrows the read-side rehearsal queries. Status and Type combine
// as a conjunction when both are set.
type ListFilter struct {
	Status *enums.RehearsalStatus
	Type   *enums.RehearsalType
}

// Repository is the GORM-backed rehearsal store.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new rehearsal row and returns it with the assigned id.
func (r *Repository) Create(ctx context.Context, rehearsal *models.Rehearsal) (*models.Rehearsal, error) {
	if err := r.db.WithContext(ctx).Create(rehearsal).Error; err != nil {
		return nil, err
	}
	return rehearsal, nil
}

// FindByID loads the rehearsal by primary key.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Rehearsal, error) {
	var rehearsal models.Rehearsal
	if err := r.db.WithContext(ctx).First(&rehearsal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rehearsal, nil
}

// List returns rehearsals ordered by start time, optionally filtered.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Rehearsal, error) {
	query := r.db.WithContext(ctx).Model(&models.Rehearsal{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	var rows []models.Rehearsal
	if err := query.Order("start_time ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update rewrites the full rehearsal row. A row that vanished since it was
// loaded surfaces as ErrRecordNotFound; it is never re-inserted.
func (r *Repository) Update(ctx context.Context, rehearsal *models.Rehearsal) (*models.Rehearsal, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Rehearsal{}).
		Where("id = ?", rehearsal.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(rehearsal)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return rehearsal, nil
}

// Delete removes the rehearsal row. Missing rows surface as ErrRecordNotFound.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Rehearsal{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
