package stock

import (
	"time"

	"github.com/SC-Market/sc-market-backend-sub001/pkg/db/models"
	"github.com/google/uuid"
)

// LotDTO is the external shape of a stock lot.
type LotDTO struct {
	ID            uuid.UUID  `json:"id"`
	ListingID     uuid.UUID  `json:"listing_id"`
	LocationID    *uuid.UUID `json:"location_id,omitempty"`
	OwnerID       *uuid.UUID `json:"owner_id,omitempty"`
	QuantityTotal int        `json:"quantity_total"`
	Listed        bool       `json:"listed"`
	Notes         string     `json:"notes,omitempty"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// StockLevels is the derived per-listing view: available only counts listed
// lots, total and reserved count every lot.
type StockLevels struct {
	Total     int `json:"total"`
	Reserved  int `json:"reserved"`
	Available int `json:"available"`
}

// CreateLotInput holds the validated payload to create a lot. OwnerUsername,
// when set, is resolved to an internal account id; it wins over OwnerID.
type CreateLotInput struct {
	ListingID     uuid.UUID
	QuantityTotal int
	LocationID    *uuid.UUID
	OwnerID       *uuid.UUID
	OwnerUsername *string
	Listed        bool
	Notes         string
}

// UpdateLotInput holds optional mutation values for a lot. Version, when
// supplied, is the caller's optimistic concurrency token; a stale token fails
// the update instead of merging.
type UpdateLotInput struct {
	ListingID     *uuid.UUID
	LocationID    *uuid.UUID
	QuantityTotal *int
	Listed        *bool
	Notes         *string
	Version       *int64
}

// TransferResult carries both sides of a completed transfer.
type TransferResult struct {
	Source      LotDTO `json:"source"`
	Destination LotDTO `json:"destination"`
}

func toLotDTO(lot *models.StockLot) LotDTO {
	return LotDTO{
		ID:            lot.ID,
		ListingID:     lot.ListingID,
		LocationID:    lot.LocationID,
		OwnerID:       lot.OwnerID,
		QuantityTotal: lot.QuantityTotal,
		Listed:        lot.Listed,
		Notes:         lot.Notes,
		Version:       lot.Version,
		CreatedAt:     lot.CreatedAt,
		UpdatedAt:     lot.UpdatedAt,
	}
}

func toLotDTOs(lots []models.StockLot) []LotDTO {
	out := make([]LotDTO, 0, len(lots))
	for i := range lots {
		out = append(out, toLotDTO(&lots[i]))
	}
	return out
}
