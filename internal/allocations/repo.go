package allocations

import (
	"context"

	"github.com/SC-Market/sc-market-backend-sub001/pkg/db/models"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages persistence for allocation rows. Lot-side reads and
// claims go through the stock repository so the lot invariants stay enforced
// in one place.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, allocation *models.StockAllocation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.StockAllocation, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.StockAllocation, error)
	SetStatusIfActive(ctx context.Context, id uuid.UUID, status enums.AllocationStatus) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an allocation repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, allocation *models.StockAllocation) error {
	return r.db.WithContext(ctx).Create(allocation).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StockAllocation, error) {
	var allocation models.StockAllocation
	if err := r.db.WithContext(ctx).First(&allocation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &allocation, nil
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.StockAllocation, error) {
	var rows []models.StockAllocation
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SetStatusIfActive flips an active allocation into a terminal status. Zero
// rows affected means the allocation was already terminal (or gone).
func (r *repository) SetStatusIfActive(ctx context.Context, id uuid.UUID, status enums.AllocationStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StockAllocation{}).
		Where("id = ? AND status = ?", id, enums.AllocationStatusActive).
		Update("status", status)
	return res.RowsAffected, res.Error
}
