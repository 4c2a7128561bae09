package listings

import (
	"context"
	"errors"

	"github.com/SC-Market/sc-market-backend-sub001/pkg/db/models"
	pkgerrors "github.com/SC-Market/sc-market-backend-sub001/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository resolves market listings for the stock engine. Listing lifecycle
// itself is managed elsewhere in the platform.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MarketListing, error) {
	var listing models.MarketListing
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, err
	}
	return &listing, nil
}
