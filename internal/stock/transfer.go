package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/SC-Market/sc-market-backend-sub001/pkg/db/models"
	pkgerrors "github.com/SC-Market/sc-market-backend-sub001/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransferLot moves quantity from a source lot to a (possibly new) lot at the
// destination location. Both row mutations commit together or not at all, and
// reserved quantity never leaves the source lot.
func (s *service) TransferLot(ctx context.Context, sourceLotID, destinationLocationID uuid.UUID, quantity int) (*TransferResult, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "transfer quantity must be positive").
			WithDetails(pkgerrors.QuantityViolation{Field: "quantity", Quantity: quantity})
	}

	if _, err := s.locations.FindByID(ctx, destinationLocationID); err != nil {
		return nil, asLookupError(err, "destination location not found")
	}

	var result TransferResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := repo.ClaimLot(ctx, sourceLotID); err != nil {
			return asLookupError(err, "source lot not found")
		}
		source, err := repo.FindLotByID(ctx, sourceLotID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load source lot")
		}

		if source.LocationID != nil && *source.LocationID == destinationLocationID {
			return pkgerrors.New(pkgerrors.CodeValidation, "destination must differ from the source location").
				WithDetails(map[string]any{"lot_id": sourceLotID, "location_id": destinationLocationID})
		}

		allocated, err := repo.ActiveAllocatedQuantity(ctx, sourceLotID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum active allocations")
		}
		unallocated := source.QuantityTotal - allocated
		if quantity > unallocated {
			s.metrics.IncRejected("insufficient_stock")
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "transfer exceeds unallocated source quantity").
				WithDetails(pkgerrors.StockShortfall{LotID: sourceLotID, Requested: quantity, Available: unallocated})
		}

		if err := repo.SetQuantityTotal(ctx, sourceLotID, source.QuantityTotal-quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement source lot")
		}

		destination, err := s.upsertDestination(ctx, repo, source, destinationLocationID, quantity)
		if err != nil {
			return err
		}

		updatedSource, err := repo.FindLotByID(ctx, sourceLotID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload source lot")
		}

		result = TransferResult{
			Source:      toLotDTO(updatedSource),
			Destination: toLotDTO(destination),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) upsertDestination(ctx context.Context, repo *Repository, source *models.StockLot, locationID uuid.UUID, quantity int) (*models.StockLot, error) {
	existing, err := repo.FindLotAtLocation(ctx, source.ListingID, locationID, source.OwnerID, source.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created, cerr := repo.CreateLot(ctx, &models.StockLot{
			ListingID:     source.ListingID,
			LocationID:    &locationID,
			OwnerID:       source.OwnerID,
			QuantityTotal: quantity,
			Listed:        source.Listed,
			Version:       1,
		})
		if cerr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, cerr, "create destination lot")
		}
		return created, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("find lot at location %s", locationID))
	}

	if err := repo.ClaimLot(ctx, existing.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim destination lot")
	}
	if err := repo.AdjustQuantityTotal(ctx, existing.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment destination lot")
	}

	updated, err := repo.FindLotByID(ctx, existing.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload destination lot")
	}
	return updated, nil
}
