package allocations

import (
	"context"
	"errors"
	"fmt"

	"github.com/SC-Market/sc-market-backend-sub001/internal/stock"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/db/models"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/enums"
	pkgerrors "github.com/SC-Market/sc-market-backend-sub001/pkg/errors"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderRegistry interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type listingRegistry interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.MarketListing, error)
}

// Service reserves inventory for orders and answers how much of a lot or
// listing is already reserved.
type Service interface {
	GetAllocatedQuantity(ctx context.Context, lotID uuid.UUID) (int, error)
	GetAllocations(ctx context.Context, orderID uuid.UUID) ([]AllocationDTO, error)
	ManualAllocate(ctx context.Context, orderID uuid.UUID, requests []AllocationRequest) ([]AllocationDTO, error)
	AutoAllocate(ctx context.Context, orderID, listingID uuid.UUID, quantity int) ([]AllocationDTO, error)
	Release(ctx context.Context, allocationID uuid.UUID) (*AllocationDTO, error)
	Consume(ctx context.Context, allocationID uuid.UUID) (*AllocationDTO, error)
}

type service struct {
	repo     Repository
	lots     *stock.Repository
	tx       txRunner
	orders   orderRegistry
	listings listingRegistry
	metrics  *metrics.StockMetrics
}

// NewService wires the allocation ledger.
func NewService(
	repo Repository,
	lots *stock.Repository,
	tx txRunner,
	orders orderRegistry,
	listings listingRegistry,
	stockMetrics *metrics.StockMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("allocation repository required")
	}
	if lots == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order registry required")
	}
	if listings == nil {
		return nil, fmt.Errorf("listing registry required")
	}
	return &service{
		repo:     repo,
		lots:     lots,
		tx:       tx,
		orders:   orders,
		listings: listings,
		metrics:  stockMetrics,
	}, nil
}

func (s *service) GetAllocatedQuantity(ctx context.Context, lotID uuid.UUID) (int, error) {
	if _, err := s.lots.FindLotByID(ctx, lotID); err != nil {
		return 0, lookupError(err, "lot not found")
	}
	total, err := s.lots.ActiveAllocatedQuantity(ctx, lotID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum active allocations")
	}
	return total, nil
}

func (s *service) GetAllocations(ctx context.Context, orderID uuid.UUID) ([]AllocationDTO, error) {
	rows, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order allocations")
	}
	return toAllocationDTOs(rows), nil
}

func (s *service) ManualAllocate(ctx context.Context, orderID uuid.UUID, requests []AllocationRequest) ([]AllocationDTO, error) {
	if len(requests) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "allocation batch is empty")
	}

	var quantityErrs error
	for _, req := range requests {
		if req.Quantity <= 0 {
			quantityErrs = multierr.Append(quantityErrs,
				fmt.Errorf("lot %s: quantity %d must be positive", req.LotID, req.Quantity))
		}
	}
	if quantityErrs != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidQuantity, quantityErrs, "invalid allocation quantities")
	}

	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return nil, lookupError(err, "order not found")
	}

	var created []AllocationDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lots := s.lots.WithTx(tx)

		claimed := map[uuid.UUID]bool{}
		batchQuantities := map[uuid.UUID]int{}

		for _, req := range requests {
			if !claimed[req.LotID] {
				if err := lots.ClaimLot(ctx, req.LotID); err != nil {
					return lookupError(err, "lot not found")
				}
				claimed[req.LotID] = true
			}

			lot, err := lots.FindLotByID(ctx, req.LotID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lot")
			}

			// Includes rows inserted earlier in this batch.
			allocated, err := lots.ActiveAllocatedQuantity(ctx, req.LotID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum active allocations")
			}
			remaining := lot.QuantityTotal - allocated
			if req.Quantity > remaining {
				detail := pkgerrors.StockShortfall{LotID: req.LotID, Requested: req.Quantity, Available: remaining}
				if batchQuantities[req.LotID] > 0 {
					s.metrics.IncRejected("over_allocation")
					return pkgerrors.New(pkgerrors.CodeOverAllocation, "batch would push allocations above lot capacity").
						WithDetails(detail)
				}
				s.metrics.IncRejected("insufficient_stock")
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "lot has insufficient unallocated stock").
					WithDetails(detail)
			}

			allocation := &models.StockAllocation{
				LotID:    req.LotID,
				OrderID:  orderID,
				Quantity: req.Quantity,
				Status:   enums.AllocationStatusActive,
			}
			if err := repo.Create(ctx, allocation); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert allocation")
			}
			batchQuantities[req.LotID] += req.Quantity
			created = append(created, toAllocationDTO(allocation))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncAllocated("manual")
	return created, nil
}

// AutoAllocate reserves quantity units of a listing without caller-chosen
// lots, walking listed lots oldest first and draining each lot's unallocated
// remainder before the next. Nothing commits when stock runs out.
func (s *service) AutoAllocate(ctx context.Context, orderID, listingID uuid.UUID, quantity int) ([]AllocationDTO, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "allocation quantity must be positive").
			WithDetails(pkgerrors.QuantityViolation{Field: "quantity", Quantity: quantity})
	}
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return nil, lookupError(err, "order not found")
	}
	if _, err := s.listings.FindByID(ctx, listingID); err != nil {
		return nil, lookupError(err, "listing not found")
	}

	var created []AllocationDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lots := s.lots.WithTx(tx)

		candidates, err := lots.ListListingLotsOldestFirst(ctx, listingID, true)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list listing lots")
		}

		need := quantity
		granted := 0
		for i := range candidates {
			if need == 0 {
				break
			}
			lot := &candidates[i]

			if err := lots.ClaimLot(ctx, lot.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim lot")
			}
			current, err := lots.FindLotByID(ctx, lot.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lot")
			}
			allocated, err := lots.ActiveAllocatedQuantity(ctx, lot.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum active allocations")
			}

			remaining := current.QuantityTotal - allocated
			if remaining <= 0 {
				continue
			}
			take := remaining
			if take > need {
				take = need
			}

			allocation := &models.StockAllocation{
				LotID:    lot.ID,
				OrderID:  orderID,
				Quantity: take,
				Status:   enums.AllocationStatusActive,
			}
			if err := repo.Create(ctx, allocation); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert allocation")
			}
			created = append(created, toAllocationDTO(allocation))
			need -= take
			granted += take
		}

		if need > 0 {
			s.metrics.IncRejected("insufficient_stock")
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "listing has insufficient unallocated stock").
				WithDetails(pkgerrors.ListingShortfall{ListingID: listingID, Requested: quantity, Available: granted})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncAllocated("auto")
	return created, nil
}

// Release marks an allocation released, returning its quantity to the lot's
// unallocated pool. Terminal allocations are left untouched.
func (s *service) Release(ctx context.Context, allocationID uuid.UUID) (*AllocationDTO, error) {
	return s.transition(ctx, allocationID, enums.AllocationStatusReleased)
}

// Consume marks an allocation consumed, turning the reservation into a
// permanent deduction. Terminal allocations are left untouched.
func (s *service) Consume(ctx context.Context, allocationID uuid.UUID) (*AllocationDTO, error) {
	return s.transition(ctx, allocationID, enums.AllocationStatusConsumed)
}

func (s *service) transition(ctx context.Context, allocationID uuid.UUID, target enums.AllocationStatus) (*AllocationDTO, error) {
	var dto AllocationDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lots := s.lots.WithTx(tx)

		allocation, err := repo.FindByID(ctx, allocationID)
		if err != nil {
			return lookupError(err, "allocation not found")
		}
		if allocation.Status.IsTerminal() {
			dto = toAllocationDTO(allocation)
			return nil
		}

		// Releasing changes the lot's unallocated pool, so serialize with
		// concurrent admitters the same way they serialize with each other.
		if err := lots.ClaimLot(ctx, allocation.LotID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim lot")
		}

		rows, err := repo.SetStatusIfActive(ctx, allocationID, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update allocation status")
		}
		if rows == 0 {
			// Lost a race with another terminal transition; report the winner.
			current, rerr := repo.FindByID(ctx, allocationID)
			if rerr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, rerr, "reload allocation")
			}
			dto = toAllocationDTO(current)
			return nil
		}

		// Consuming removes the units from the lot entirely; releasing only
		// returns them to the unallocated pool.
		if target == enums.AllocationStatusConsumed {
			if err := lots.AdjustQuantityTotal(ctx, allocation.LotID, -allocation.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deduct consumed quantity")
			}
		}

		allocation.Status = target
		dto = toAllocationDTO(allocation)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func lookupError(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
