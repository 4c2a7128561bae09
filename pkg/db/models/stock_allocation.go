package models

import (
	"time"

	"github.com/SC-Market/sc-market-backend-sub001/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockAllocation reserves part of a lot's quantity on behalf of one order.
// Release and consume flip the status instead of deleting the row, so the
// ledger keeps an audit trail for as long as the lot exists.
type StockAllocation struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	LotID     uuid.UUID              `gorm:"column:lot_id;type:uuid;not null;index"`
	OrderID   uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	Quantity  int                    `gorm:"column:quantity;not null;check:quantity > 0"`
	Status    enums.AllocationStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (a *StockAllocation) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
