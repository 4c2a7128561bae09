package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LocationNameMaxLength bounds custom location names.
const LocationNameMaxLength = 255

// Location is a named place inventory can reside at. Preset rows are
// system-defined and visible to everyone; custom rows belong to one account.
type Location struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	IsPreset  bool       `gorm:"column:is_preset;not null;default:false"`
	OwnerID   *uuid.UUID `gorm:"column:owner_id;type:uuid;index"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (l *Location) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
