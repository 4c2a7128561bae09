package stock

import (
	"context"
	"testing"

	"github.com/SC-Market/sc-market-backend-sub001/pkg/db/models"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/enums"
	pkgerrors "github.com/SC-Market/sc-market-backend-sub001/pkg/errors"
	"github.com/google/uuid"
)

func TestTransferLotToNewLocation(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "mover-one")
	listingID := seedListing(t, conn, sellerID)
	sourceLoc := seedLocation(t, conn, "Area18")
	destLoc := seedLocation(t, conn, "Orison")
	lotID := seedLot(t, conn, models.StockLot{
		ListingID:     listingID,
		LocationID:    &sourceLoc,
		QuantityTotal: 10,
		Listed:        true,
	})

	result, err := svc.TransferLot(ctx, lotID, destLoc, 4)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if result.Source.QuantityTotal != 6 {
		t.Fatalf("expected source quantity 6, got %d", result.Source.QuantityTotal)
	}
	if result.Destination.QuantityTotal != 4 {
		t.Fatalf("expected destination quantity 4, got %d", result.Destination.QuantityTotal)
	}
	if result.Destination.LocationID == nil || *result.Destination.LocationID != destLoc {
		t.Fatalf("destination lot at wrong location: %+v", result.Destination)
	}
	if !result.Destination.Listed {
		t.Fatal("destination lot should inherit the listed flag")
	}
	if result.Source.QuantityTotal+result.Destination.QuantityTotal != 10 {
		t.Fatal("transfer must conserve total quantity")
	}
}

func TestTransferLotMergesExistingDestination(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "mover-two")
	listingID := seedListing(t, conn, sellerID)
	sourceLoc := seedLocation(t, conn, "Lorville")
	destLoc := seedLocation(t, conn, "New Babbage")
	sourceID := seedLot(t, conn, models.StockLot{ListingID: listingID, LocationID: &sourceLoc, QuantityTotal: 9, Listed: true})
	destID := seedLot(t, conn, models.StockLot{ListingID: listingID, LocationID: &destLoc, QuantityTotal: 5, Listed: true})

	result, err := svc.TransferLot(ctx, sourceID, destLoc, 3)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if result.Destination.ID != destID {
		t.Fatalf("expected merge into existing lot %s, got %s", destID, result.Destination.ID)
	}
	if result.Source.QuantityTotal != 6 || result.Destination.QuantityTotal != 8 {
		t.Fatalf("unexpected quantities after merge: %+v", result)
	}

	var count int64
	if err := conn.Model(&models.StockLot{}).Where("listing_id = ?", listingID).Count(&count).Error; err != nil {
		t.Fatalf("count lots: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 lots after merge, got %d", count)
	}
}

func TestTransferLotRespectsReservations(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "mover-three")
	buyerID := seedAccount(t, conn, "buyer-five")
	listingID := seedListing(t, conn, sellerID)
	orderID := seedOrder(t, conn, buyerID)
	sourceLoc := seedLocation(t, conn, "Port Tressler")
	destLoc := seedLocation(t, conn, "Everus Harbor")
	lotID := seedLot(t, conn, models.StockLot{ListingID: listingID, LocationID: &sourceLoc, QuantityTotal: 10, Listed: true})
	seedAllocation(t, conn, lotID, orderID, 7, enums.AllocationStatusActive)

	// Only 3 of the 10 are unallocated.
	_, err := svc.TransferLot(ctx, lotID, destLoc, 4)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	lot, ferr := NewRepository(conn).FindLotByID(ctx, lotID)
	if ferr != nil {
		t.Fatalf("reload lot: %v", ferr)
	}
	if lot.QuantityTotal != 10 {
		t.Fatalf("failed transfer must not change the source, got %d", lot.QuantityTotal)
	}

	result, err := svc.TransferLot(ctx, lotID, destLoc, 3)
	if err != nil {
		t.Fatalf("transfer within unallocated: %v", err)
	}
	if result.Source.QuantityTotal != 7 {
		t.Fatalf("expected source to retain the reserved 7, got %d", result.Source.QuantityTotal)
	}
}

func TestTransferLotInvalidQuantity(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "mover-four")
	listingID := seedListing(t, conn, sellerID)
	destLoc := seedLocation(t, conn, "Grim HEX")
	lotID := seedLot(t, conn, models.StockLot{ListingID: listingID, QuantityTotal: 5, Listed: true})

	for _, quantity := range []int{0, -2} {
		_, err := svc.TransferLot(ctx, lotID, destLoc, quantity)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidQuantity {
			t.Fatalf("quantity %d: expected invalid quantity error, got %v", quantity, err)
		}
	}
}

func TestTransferLotSameLocation(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "mover-five")
	listingID := seedListing(t, conn, sellerID)
	locationID := seedLocation(t, conn, "Baijini Point")
	lotID := seedLot(t, conn, models.StockLot{ListingID: listingID, LocationID: &locationID, QuantityTotal: 5, Listed: true})

	_, err := svc.TransferLot(ctx, lotID, locationID, 2)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTransferLotUnknownDestination(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "mover-six")
	listingID := seedListing(t, conn, sellerID)
	lotID := seedLot(t, conn, models.StockLot{ListingID: listingID, QuantityTotal: 5, Listed: true})

	_, err := svc.TransferLot(ctx, lotID, uuid.New(), 2)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}
