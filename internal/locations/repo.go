package locations

import (
	"context"
	"strings"

	"github.com/SC-Market/sc-market-backend-sub001/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository owns reads and writes for the location directory.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, location *models.Location) error {
	return r.db.WithContext(ctx).Create(location).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).First(&location, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *Repository) ListPresets(ctx context.Context) ([]models.Location, error) {
	var rows []models.Location
	err := r.db.WithContext(ctx).
		Where("is_preset = ?", true).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Location, error) {
	var rows []models.Location
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

// Search matches presets always, plus the owner's custom rows when ownerID is
// set. Matching is case-insensitive substring.
func (r *Repository) Search(ctx context.Context, query string, ownerID *uuid.UUID) ([]models.Location, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	q := r.db.WithContext(ctx).Where("LOWER(name) LIKE ?", pattern)
	if ownerID != nil {
		q = q.Where("is_preset = ? OR owner_id = ?", true, *ownerID)
	} else {
		q = q.Where("is_preset = ?", true)
	}
	var rows []models.Location
	err := q.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) FindByNameForOwner(ctx context.Context, name string, ownerID uuid.UUID) (*models.Location, error) {
	var location models.Location
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ? AND owner_id = ?", strings.ToLower(name), ownerID).
		First(&location).Error
	if err != nil {
		return nil, err
	}
	return &location, nil
}
