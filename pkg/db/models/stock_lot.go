package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotesMaxLength bounds the free-text notes field on a lot.
const NotesMaxLength = 1000

// StockLot is a discrete quantity of a listing's inventory, optionally tied
// to a location and an owning account. QuantityTotal covers allocated and
// unallocated units alike; Version is the optimistic concurrency token bumped
// on every write that changes the lot's effective capacity.
type StockLot struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ListingID     uuid.UUID         `gorm:"column:listing_id;type:uuid;not null;index"`
	LocationID    *uuid.UUID        `gorm:"column:location_id;type:uuid;index"`
	OwnerID       *uuid.UUID        `gorm:"column:owner_id;type:uuid;index"`
	QuantityTotal int               `gorm:"column:quantity_total;not null;default:0;check:quantity_total >= 0"`
	Listed        bool              `gorm:"column:listed;not null;default:true"`
	Notes         string            `gorm:"column:notes;not null;default:''"`
	Version       int64             `gorm:"column:version;not null;default:1"`
	Allocations   []StockAllocation `gorm:"foreignKey:LotID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *StockLot) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
