package concerts

import (
	"context"

	"gorm.io/gorm"

	"github.com/orchestraops/planning-service/pkg/db/models"
	"github.com/orchestraops/planning-service/pkg/enums"
)

// ConcertRepository defines persistence operations for concerts.
type ConcertRepository interface {
	Create(context.Context, *models.Concert) (*models.Concert, error)
	FindByID(context.Context, int64) (*models.Concert, error)
	List(context.Context, ListFilter) ([]models.Concert, error)
	Update(context.Context, *models.Concert) (*models.Concert, error)
	Delete(context.Context, int64) error
}

// ListFilter narrows the read-side concert queries.
type ListFilter struct {
	Status *enums.ConcertStatus
}

// Repository is the GORM-backed concert store.
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

// Create inserts a new concert row and returns it with the assigned id.
func (r *Repository) Create(ctx context.Context, concert *models.Concert) (*models.Concert, error) {
	if err := r.db.WithContext(ctx).Create(concert).Error; err != nil {
		return nil, err
	}
	return concert, nil
}

// FindByID loads the concert by primary key.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Concert, error) {
	var concert models.Concert
	if err := r.db.WithContext(ctx).First(&concert, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &concert, nil
}

// List returns concerts ordered by start time, optionally filtered by status.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Concert, error) {
	query := r.db.WithContext(ctx).Model(&models.Concert{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	var rows []models.Concert
	if err := query.Order("start_time ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update rewrites the full concert row. A row that vanished since it was
// loaded surfaces as ErrRecordNotFound; it is never re-inserted.
func (r *Repository) Update(ctx context.Context, concert *models.Concert) (*models.Concert, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Concert{}).
		Where("id = ?", concert.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(concert)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return concert, nil
}

// Delete removes the concert row. Missing rows surface as ErrRecordNotFound.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Concert{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
