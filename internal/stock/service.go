package stock

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/SC-Market/sc-market-backend-sub001/pkg/db/models"
	pkgerrors "github.com/SC-Market/sc-market-backend-sub001/pkg/errors"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type listingRegistry interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.MarketListing, error)
}

type locationDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
}

type accountResolver interface {
	ResolveByUsername(ctx context.Context, username string) (uuid.UUID, error)
}

// Service exposes lot management, aggregate stock reads, and transfers.
type Service interface {
	CreateLot(ctx context.Context, input CreateLotInput) (*LotDTO, error)
	UpdateLot(ctx context.Context, lotID uuid.UUID, input UpdateLotInput) (*LotDTO, error)
	DeleteLot(ctx context.Context, lotID uuid.UUID) error
	UpdateSimpleStock(ctx context.Context, listingID uuid.UUID, quantity int) (*LotDTO, error)
	GetStockLevels(ctx context.Context, listingID uuid.UUID) (*StockLevels, error)
	GetTotalStock(ctx context.Context, listingID uuid.UUID) (int, error)
	GetReservedStock(ctx context.Context, listingID uuid.UUID) (int, error)
	GetAvailableStock(ctx context.Context, listingID uuid.UUID) (int, error)
	GetLots(ctx context.Context, filters LotFilters) ([]LotDTO, error)
	TransferLot(ctx context.Context, sourceLotID, destinationLocationID uuid.UUID, quantity int) (*TransferResult, error)
}

type service struct {
	repo      *Repository
	tx        txRunner
	listings  listingRegistry
	locations locationDirectory
	accounts  accountResolver
	metrics   *metrics.StockMetrics
}

// NewService constructs the lot store service.
func NewService(
	repo *Repository,
	tx txRunner,
	listings listingRegistry,
	locations locationDirectory,
	accounts accountResolver,
	stockMetrics *metrics.StockMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if listings == nil {
		return nil, fmt.Errorf("listing registry required")
	}
	if locations == nil {
		return nil, fmt.Errorf("location directory required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account resolver required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		listings:  listings,
		locations: locations,
		accounts:  accounts,
		metrics:   stockMetrics,
	}, nil
}

func (s *service) CreateLot(ctx context.Context, input CreateLotInput) (*LotDTO, error) {
	if input.QuantityTotal < 0 {
		return nil, invalidQuantity("quantity_total", input.QuantityTotal)
	}
	if err := checkNotes(input.Notes); err != nil {
		return nil, err
	}

	if _, err := s.listings.FindByID(ctx, input.ListingID); err != nil {
		return nil, asLookupError(err, "listing not found")
	}

	if input.LocationID != nil {
		if _, err := s.locations.FindByID(ctx, *input.LocationID); err != nil {
			return nil, asLookupError(err, "location not found")
		}
	}

	ownerID := input.OwnerID
	if input.OwnerUsername != nil && *input.OwnerUsername != "" {
		resolved, err := s.accounts.ResolveByUsername(ctx, *input.OwnerUsername)
		if err != nil {
			return nil, err
		}
		ownerID = &resolved
	}

	lot := &models.StockLot{
		ListingID:     input.ListingID,
		LocationID:    input.LocationID,
		OwnerID:       ownerID,
		QuantityTotal: input.QuantityTotal,
		Listed:        input.Listed,
		Notes:         input.Notes,
		Version:       1,
	}
	created, err := s.repo.CreateLot(ctx, lot)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert stock lot")
	}

	dto := toLotDTO(created)
	return &dto, nil
}

func (s *service) UpdateLot(ctx context.Context, lotID uuid.UUID, input UpdateLotInput) (*LotDTO, error) {
	if input.QuantityTotal != nil && *input.QuantityTotal < 0 {
		return nil, invalidQuantity("quantity_total", *input.QuantityTotal)
	}
	if input.Notes != nil {
		if err := checkNotes(*input.Notes); err != nil {
			return nil, err
		}
	}

	var dto LotDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		lot, err := repo.FindLotByID(ctx, lotID)
		if err != nil {
			return asLookupError(err, "lot not found")
		}

		updates := map[string]any{}

		if input.ListingID != nil && *input.ListingID != lot.ListingID {
			allocations, aerr := repo.ActiveAllocationCount(ctx, lotID)
			if aerr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, aerr, "count active allocations")
			}
			if allocations > 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "lot with active allocations cannot change listing").
					WithDetails(map[string]any{"lot_id": lotID, "active_allocations": allocations})
			}
			if err := s.checkListingMove(ctx, lot.ListingID, *input.ListingID); err != nil {
				return err
			}
			updates["listing_id"] = *input.ListingID
		}

		if input.LocationID != nil {
			if _, err := s.locations.FindByID(ctx, *input.LocationID); err != nil {
				return asLookupError(err, "location not found")
			}
			updates["location_id"] = *input.LocationID
		}

		if input.QuantityTotal != nil {
			allocated, err := repo.ActiveAllocatedQuantity(ctx, lotID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum active allocations")
			}
			if *input.QuantityTotal < allocated {
				return pkgerrors.New(pkgerrors.CodeOverAllocation, "quantity_total cannot drop below active allocations").
					WithDetails(pkgerrors.StockShortfall{LotID: lotID, Requested: *input.QuantityTotal, Available: allocated})
			}
			updates["quantity_total"] = *input.QuantityTotal
		}

		if input.Listed != nil {
			updates["listed"] = *input.Listed
		}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
		}

		expectedVersion := lot.Version
		if input.Version != nil {
			expectedVersion = *input.Version
		}

		rows, err := repo.UpdateLotVersioned(ctx, lotID, expectedVersion, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock lot")
		}
		if rows == 0 {
			s.metrics.IncVersionConflict()
			return pkgerrors.New(pkgerrors.CodeConflict, "lot was modified concurrently").
				WithDetails(pkgerrors.VersionMismatch{LotID: lotID, SuppliedVersion: expectedVersion})
		}

		updated, err := repo.FindLotByID(ctx, lotID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload stock lot")
		}
		dto = toLotDTO(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// checkListingMove rejects moving a lot to a listing sold by someone else.
func (s *service) checkListingMove(ctx context.Context, fromListingID, toListingID uuid.UUID) error {
	from, err := s.listings.FindByID(ctx, fromListingID)
	if err != nil {
		return asLookupError(err, "listing not found")
	}
	to, err := s.listings.FindByID(ctx, toListingID)
	if err != nil {
		return asLookupError(err, "listing not found")
	}
	if from.SellerID != to.SellerID {
		return pkgerrors.New(pkgerrors.CodeValidation, "lot cannot move to a listing with a different seller").
			WithDetails(map[string]any{"from_listing_id": fromListingID, "to_listing_id": toListingID})
	}
	return nil
}

func (s *service) DeleteLot(ctx context.Context, lotID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// The claim serializes the delete against in-flight allocators.
		if err := repo.ClaimLot(ctx, lotID); err != nil {
			return asLookupError(err, "lot not found")
		}

		active, err := repo.ActiveAllocationCount(ctx, lotID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active allocations")
		}
		if active > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "lot has active allocations and cannot be deleted").
				WithDetails(map[string]any{"lot_id": lotID, "active_allocations": active})
		}

		if err := repo.DeleteLot(ctx, lotID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete stock lot")
		}
		return nil
	})
}

func (s *service) UpdateSimpleStock(ctx context.Context, listingID uuid.UUID, quantity int) (*LotDTO, error) {
	if quantity < 0 {
		return nil, invalidQuantity("quantity", quantity)
	}
	if _, err := s.listings.FindByID(ctx, listingID); err != nil {
		return nil, asLookupError(err, "listing not found")
	}

	var dto LotDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		lot, err := repo.FindImplicitLot(ctx, listingID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created, cerr := repo.CreateLot(ctx, &models.StockLot{
				ListingID:     listingID,
				QuantityTotal: quantity,
				Listed:        true,
				Version:       1,
			})
			if cerr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, cerr, "insert implicit stock lot")
			}
			dto = toLotDTO(created)
			return nil
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load implicit stock lot")
		}

		if err := repo.ClaimLot(ctx, lot.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim implicit stock lot")
		}

		// The caller states the quantity they have on hand to sell; stock
		// already reserved against the lot stays reserved on top of it.
		allocated, err := repo.ActiveAllocatedQuantity(ctx, lot.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum active allocations")
		}
		if err := repo.SetQuantityTotal(ctx, lot.ID, quantity+allocated); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set lot quantity")
		}

		updated, err := repo.FindLotByID(ctx, lot.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload stock lot")
		}
		dto = toLotDTO(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *service) GetStockLevels(ctx context.Context, listingID uuid.UUID) (*StockLevels, error) {
	if _, err := s.listings.FindByID(ctx, listingID); err != nil {
		return nil, asLookupError(err, "listing not found")
	}

	var levels StockLevels
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var terr error
		levels, terr = s.repo.WithTx(tx).ListingStockLevels(ctx, listingID)
		return terr
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate listing stock")
	}
	return &levels, nil
}

func (s *service) GetTotalStock(ctx context.Context, listingID uuid.UUID) (int, error) {
	levels, err := s.GetStockLevels(ctx, listingID)
	if err != nil {
		return 0, err
	}
	return levels.Total, nil
}

func (s *service) GetReservedStock(ctx context.Context, listingID uuid.UUID) (int, error) {
	levels, err := s.GetStockLevels(ctx, listingID)
	if err != nil {
		return 0, err
	}
	return levels.Reserved, nil
}

func (s *service) GetAvailableStock(ctx context.Context, listingID uuid.UUID) (int, error) {
	levels, err := s.GetStockLevels(ctx, listingID)
	if err != nil {
		return 0, err
	}
	return levels.Available, nil
}

func (s *service) GetLots(ctx context.Context, filters LotFilters) ([]LotDTO, error) {
	lots, err := s.repo.ListLots(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock lots")
	}
	return toLotDTOs(lots), nil
}

func invalidQuantity(field string, quantity int) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeInvalidQuantity, fmt.Sprintf("%s must not be negative", field)).
		WithDetails(pkgerrors.QuantityViolation{Field: field, Quantity: quantity})
}

func checkNotes(notes string) error {
	// The limit is in characters, not bytes, so multibyte text is not
	// penalized.
	if count := utf8.RuneCountInString(notes); count > models.NotesMaxLength {
		return pkgerrors.New(pkgerrors.CodeCharacterLimit, "notes exceed the character limit").
			WithDetails(pkgerrors.CharacterLimit{Field: "notes", Limit: models.NotesMaxLength, Length: count})
	}
	return nil
}

// asLookupError maps a missing row to the not-found taxonomy and everything
// else to a dependency failure.
func asLookupError(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
