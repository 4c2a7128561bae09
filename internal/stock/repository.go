package stock

import (
	"context"
	"time"

	"github.com/SC-Market/sc-market-backend-sub001/pkg/db/models"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository wires together all stock lot persistence helpers. Every
// capacity-changing path claims the lot row first (ClaimLot) so the row lock
// serializes concurrent admitters without dialect-specific SELECT FOR UPDATE.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateLot inserts a new lot row.
func (r *Repository) CreateLot(ctx context.Context, lot *models.StockLot) (*models.StockLot, error) {
	if err := r.db.WithContext(ctx).Create(lot).Error; err != nil {
		return nil, err
	}
	return lot, nil
}

// FindLotByID loads the lot without associations.
func (r *Repository) FindLotByID(ctx context.Context, id uuid.UUID) (*models.StockLot, error) {
	var lot models.StockLot
	if err := r.db.WithContext(ctx).First(&lot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

// ClaimLot bumps the lot's version as a write claim. Inside a transaction the
// claimed row stays locked until commit, so concurrent claimers queue up and
// re-read committed state once they acquire it. Returns gorm.ErrRecordNotFound
// when the lot does not exist.
func (r *Repository) ClaimLot(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.StockLot{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateLotVersioned applies updates only when the stored version matches the
// expected token, bumping the token in the same statement. The returned count
// is zero on a stale token (or a vanished row).
func (r *Repository) UpdateLotVersioned(ctx context.Context, id uuid.UUID, expectedVersion int64, updates map[string]any) (int64, error) {
	patch := make(map[string]any, len(updates)+2)
	for k, v := range updates {
		patch[k] = v
	}
	patch["version"] = gorm.Expr("version + 1")
	patch["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).
		Model(&models.StockLot{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		UpdateColumns(patch)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// SetQuantityTotal overwrites the lot quantity. Callers must hold the lot
// claim; the version was already bumped by ClaimLot.
func (r *Repository) SetQuantityTotal(ctx context.Context, id uuid.UUID, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&models.StockLot{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"quantity_total": quantity,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AdjustQuantityTotal applies a relative quantity change in one statement.
func (r *Repository) AdjustQuantityTotal(ctx context.Context, id uuid.UUID, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&models.StockLot{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"quantity_total": gorm.Expr("quantity_total + ?", delta),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteLot removes a lot by ID.
func (r *Repository) DeleteLot(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.StockLot{}).Error
}

// ActiveAllocatedQuantity sums the active allocation quantities for a lot.
func (r *Repository) ActiveAllocatedQuantity(ctx context.Context, lotID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&models.StockAllocation{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("lot_id = ? AND status = ?", lotID, enums.AllocationStatusActive).
		Scan(&total).
		Error
	return total, err
}

// ActiveAllocationCount counts live reservations against a lot.
func (r *Repository) ActiveAllocationCount(ctx context.Context, lotID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StockAllocation{}).
		Where("lot_id = ? AND status = ?", lotID, enums.AllocationStatusActive).
		Count(&count).
		Error
	return count, err
}

// LotFilters narrows ListLots. Nil fields are ignored.
type LotFilters struct {
	ListingID  *uuid.UUID
	OwnerID    *uuid.UUID
	LocationID *uuid.UUID
	Listed     *bool
}

// ListLots returns lots matching the filters, oldest first.
func (r *Repository) ListLots(ctx context.Context, filters LotFilters) ([]models.StockLot, error) {
	qb := r.db.WithContext(ctx).Model(&models.StockLot{})
	if filters.ListingID != nil {
		qb = qb.Where("listing_id = ?", *filters.ListingID)
	}
	if filters.OwnerID != nil {
		qb = qb.Where("owner_id = ?", *filters.OwnerID)
	}
	if filters.LocationID != nil {
		qb = qb.Where("location_id = ?", *filters.LocationID)
	}
	if filters.Listed != nil {
		qb = qb.Where("listed = ?", *filters.Listed)
	}

	var rows []models.StockLot
	err := qb.Order("created_at ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

// ListListingLotsOldestFirst returns a listing's lots in creation order, the
// deterministic tie-break automatic allocation walks.
func (r *Repository) ListListingLotsOldestFirst(ctx context.Context, listingID uuid.UUID, listedOnly bool) ([]models.StockLot, error) {
	qb := r.db.WithContext(ctx).
		Model(&models.StockLot{}).
		Where("listing_id = ?", listingID)
	if listedOnly {
		qb = qb.Where("listed = ?", true)
	}

	var rows []models.StockLot
	err := qb.Order("created_at ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

// FindImplicitLot returns the oldest location-less, owner-less lot for a
// listing, the row the simple-stock convenience path adjusts.
func (r *Repository) FindImplicitLot(ctx context.Context, listingID uuid.UUID) (*models.StockLot, error) {
	var lot models.StockLot
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND location_id IS NULL AND owner_id IS NULL", listingID).
		Order("created_at ASC").
		Order("id ASC").
		First(&lot).
		Error
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// FindLotAtLocation returns the oldest lot holding the same listing for the
// same owner at the given location, excluding excludeID.
func (r *Repository) FindLotAtLocation(ctx context.Context, listingID, locationID uuid.UUID, ownerID *uuid.UUID, excludeID uuid.UUID) (*models.StockLot, error) {
	qb := r.db.WithContext(ctx).
		Where("listing_id = ? AND location_id = ? AND id <> ?", listingID, locationID, excludeID)
	if ownerID != nil {
		qb = qb.Where("owner_id = ?", *ownerID)
	} else {
		qb = qb.Where("owner_id IS NULL")
	}

	var lot models.StockLot
	err := qb.Order("created_at ASC").Order("id ASC").First(&lot).Error
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// One statement so the totals and reserved sums come from the same snapshot.
// Under READ COMMITTED two statements can straddle a concurrent commit and
// report skewed aggregates.
const listingLevelsQuery = `
SELECT COALESCE(SUM(l.quantity_total), 0)                                     AS total,
       COALESCE(SUM(CASE WHEN l.listed THEN l.quantity_total ELSE 0 END), 0) AS listed_total,
       COALESCE(SUM(a.active_quantity), 0)                                   AS reserved,
       COALESCE(SUM(CASE WHEN l.listed THEN a.active_quantity ELSE 0 END), 0) AS listed_reserved
FROM stock_lots l
LEFT JOIN (
    SELECT lot_id, SUM(quantity) AS active_quantity
    FROM stock_allocations
    WHERE status = ?
    GROUP BY lot_id
) a ON a.lot_id = l.id
WHERE l.listing_id = ?
`

type listingLevelsRow struct {
	Total          int
	ListedTotal    int
	Reserved       int
	ListedReserved int
}

// ListingStockLevels computes the aggregate views for a listing.
func (r *Repository) ListingStockLevels(ctx context.Context, listingID uuid.UUID) (StockLevels, error) {
	var row listingLevelsRow
	if err := r.db.WithContext(ctx).
		Raw(listingLevelsQuery, enums.AllocationStatusActive, listingID).
		Scan(&row).Error; err != nil {
		return StockLevels{}, err
	}

	return StockLevels{
		Total:     row.Total,
		Reserved:  row.Reserved,
		Available: row.ListedTotal - row.ListedReserved,
	}, nil
}
