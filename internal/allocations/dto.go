package allocations

import (
	"time"

	"github.com/SC-Market/sc-market-backend-sub001/pkg/db/models"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/enums"
	"github.com/google/uuid"
)

// AllocationDTO is the external shape of a reservation row.
type AllocationDTO struct {
	ID        uuid.UUID              `json:"id"`
	LotID     uuid.UUID              `json:"lot_id"`
	OrderID   uuid.UUID              `json:"order_id"`
	Quantity  int                    `json:"quantity"`
	Status    enums.AllocationStatus `json:"status"`
	CreatedAt time.Time              `json:"created_at"`
}

// AllocationRequest names one (lot, quantity) pair of a manual batch.
type AllocationRequest struct {
	LotID    uuid.UUID
	Quantity int
}

func toAllocationDTO(allocation *models.StockAllocation) AllocationDTO {
	return AllocationDTO{
		ID:        allocation.ID,
		LotID:     allocation.LotID,
		OrderID:   allocation.OrderID,
		Quantity:  allocation.Quantity,
		Status:    allocation.Status,
		CreatedAt: allocation.CreatedAt,
	}
}

func toAllocationDTOs(rows []models.StockAllocation) []AllocationDTO {
	out := make([]AllocationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toAllocationDTO(&rows[i]))
	}
	return out
}
