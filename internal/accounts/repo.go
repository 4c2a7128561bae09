package accounts

import (
	"context"
	"errors"

	"github.com/SC-Market/sc-market-backend-sub001/pkg/db/models"
	pkgerrors "github.com/SC-Market/sc-market-backend-sub001/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository resolves accounts by id or username for ownership fields.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, err
	}
	return &account, nil
}

func (r *Repository) ResolveByUsername(ctx context.Context, username string) (uuid.UUID, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return uuid.Nil, err
	}
	return account.ID, nil
}
