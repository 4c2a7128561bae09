package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account maps a public handle to the internal identifier lots and locations
// reference as owner.
type Account struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Username  string    `gorm:"column:username;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
