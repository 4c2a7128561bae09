package locations

import (
	"time"

	"github.com/SC-Market/sc-market-backend-sub001/pkg/db/models"
	"github.com/google/uuid"
)

type LocationDTO struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	IsPreset  bool       `json:"is_preset"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type CreateLocationInput struct {
	Name          string
	OwnerID       *uuid.UUID
	OwnerUsername *string
}

func toLocationDTO(l *models.Location) LocationDTO {
	return LocationDTO{
		ID:        l.ID,
		Name:      l.Name,
		IsPreset:  l.IsPreset,
		OwnerID:   l.OwnerID,
		CreatedAt: l.CreatedAt,
	}
}

func toLocationDTOs(rows []models.Location) []LocationDTO {
	out := make([]LocationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toLocationDTO(&rows[i]))
	}
	return out
}
