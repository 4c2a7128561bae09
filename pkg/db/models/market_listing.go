package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MarketListing is the slim projection of a sellable catalog entry the stock
// engine needs: existence plus the seller identity used for ownership checks
// when a lot moves between listings.
type MarketListing struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SellerID  uuid.UUID `gorm:"column:seller_id;type:uuid;not null;index"`
	Title     string    `gorm:"column:title;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (m *MarketListing) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
