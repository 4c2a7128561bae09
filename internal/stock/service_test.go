package stock

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/SC-Market/sc-market-backend-sub001/pkg/db/models"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/enums"
	pkgerrors "github.com/SC-Market/sc-market-backend-sub001/pkg/errors"
	"github.com/google/uuid"
)

func TestCreateLot(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "seller-one")
	listingID := seedListing(t, conn, sellerID)
	locationID := seedLocation(t, conn, "Area18")

	dto, err := svc.CreateLot(ctx, CreateLotInput{
		ListingID:     listingID,
		QuantityTotal: 25,
		LocationID:    &locationID,
		Listed:        true,
		Notes:         "hangar overflow",
	})
	if err != nil {
		t.Fatalf("create lot: %v", err)
	}
	if dto.QuantityTotal != 25 || !dto.Listed {
		t.Fatalf("unexpected lot: %+v", dto)
	}
	if dto.Version != 1 {
		t.Fatalf("expected initial version 1, got %d", dto.Version)
	}
	if dto.LocationID == nil || *dto.LocationID != locationID {
		t.Fatalf("expected location %s, got %+v", locationID, dto.LocationID)
	}
}

func TestCreateLotResolvesOwnerUsername(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "seller-two")
	ownerID := seedAccount(t, conn, "hauler")
	listingID := seedListing(t, conn, sellerID)

	username := "hauler"
	dto, err := svc.CreateLot(ctx, CreateLotInput{
		ListingID:     listingID,
		QuantityTotal: 5,
		OwnerUsername: &username,
		Listed:        true,
	})
	if err != nil {
		t.Fatalf("create lot: %v", err)
	}
	if dto.OwnerID == nil || *dto.OwnerID != ownerID {
		t.Fatalf("expected owner %s, got %+v", ownerID, dto.OwnerID)
	}
}

func TestCreateLotRejectsNegativeQuantity(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.CreateLot(context.Background(), CreateLotInput{
		ListingID:     uuid.New(),
		QuantityTotal: -1,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidQuantity {
		t.Fatalf("expected invalid quantity error, got %v", err)
	}
}

func TestCreateLotRejectsLongNotes(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.CreateLot(context.Background(), CreateLotInput{
		ListingID: uuid.New(),
		Notes:     strings.Repeat("x", models.NotesMaxLength+1),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCharacterLimit {
		t.Fatalf("expected character limit error, got %v", err)
	}
}

func TestCreateLotNotesLimitCountsCharacters(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "seller-notes")
	listingID := seedListing(t, conn, sellerID)

	// At the limit in characters even though it is twice the limit in bytes.
	notes := strings.Repeat("ü", models.NotesMaxLength)
	dto, err := svc.CreateLot(ctx, CreateLotInput{ListingID: listingID, QuantityTotal: 1, Notes: notes})
	if err != nil {
		t.Fatalf("create lot with multibyte notes: %v", err)
	}
	if dto.Notes != notes {
		t.Fatal("notes were not stored verbatim")
	}

	_, err = svc.CreateLot(ctx, CreateLotInput{ListingID: listingID, QuantityTotal: 1, Notes: notes + "ü"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCharacterLimit {
		t.Fatalf("expected character limit error, got %v", err)
	}
}

func TestCreateLotUnknownListing(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.CreateLot(context.Background(), CreateLotInput{
		ListingID:     uuid.New(),
		QuantityTotal: 1,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestUpdateLotPartial(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "seller-three")
	listingID := seedListing(t, conn, sellerID)
	lotID := seedLot(t, conn, models.StockLot{ListingID: listingID, QuantityTotal: 10, Listed: true})

	newQty := 20
	unlisted := false
	dto, err := svc.UpdateLot(ctx, lotID, UpdateLotInput{QuantityTotal: &newQty, Listed: &unlisted})
	if err != nil {
		t.Fatalf("update lot: %v", err)
	}
	if dto.QuantityTotal != 20 || dto.Listed {
		t.Fatalf("unexpected lot after update: %+v", dto)
	}
	if dto.Version != 2 {
		t.Fatalf("expected version bump to 2, got %d", dto.Version)
	}
}

func TestUpdateLotStaleVersion(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "seller-four")
	listingID := seedListing(t, conn, sellerID)
	lotID := seedLot(t, conn, models.StockLot{ListingID: listingID, QuantityTotal: 10, Listed: true})

	// First writer succeeds with the current token.
	current := int64(1)
	firstQty := 12
	if _, err := svc.UpdateLot(ctx, lotID, UpdateLotInput{QuantityTotal: &firstQty, Version: &current}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// Second writer replays the same token and must lose.
	secondQty := 15
	_, err := svc.UpdateLot(ctx, lotID, UpdateLotInput{QuantityTotal: &secondQty, Version: &current})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}

	lot, ferr := NewRepository(conn).FindLotByID(ctx, lotID)
	if ferr != nil {
		t.Fatalf("reload lot: %v", ferr)
	}
	if lot.QuantityTotal != 12 {
		t.Fatalf("stale write must not land, got quantity %d", lot.QuantityTotal)
	}
}

func TestUpdateLotQuantityBelowActiveAllocations(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "seller-five")
	buyerID := seedAccount(t, conn, "buyer-one")
	listingID := seedListing(t, conn, sellerID)
	orderID := seedOrder(t, conn, buyerID)
	lotID := seedLot(t, conn, models.StockLot{ListingID: listingID, QuantityTotal: 10, Listed: true})
	seedAllocation(t, conn, lotID, orderID, 6, enums.AllocationStatusActive)

	tooLow := 5
	_, err := svc.UpdateLot(ctx, lotID, UpdateLotInput{QuantityTotal: &tooLow})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeOverAllocation {
		t.Fatalf("expected over-allocation error, got %v", err)
	}
}

func TestUpdateLotRejectsCrossSellerListingMove(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerA := seedAccount(t, conn, "seller-a")
	sellerB := seedAccount(t, conn, "seller-b")
	listingA := seedListing(t, conn, sellerA)
	listingB := seedListing(t, conn, sellerB)
	lotID := seedLot(t, conn, models.StockLot{ListingID: listingA, QuantityTotal: 4, Listed: true})

	_, err := svc.UpdateLot(ctx, lotID, UpdateLotInput{ListingID: &listingB})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateLotRejectsListingMoveWithAllocations(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "seller-moves")
	buyerID := seedAccount(t, conn, "buyer-moves")
	listingA := seedListing(t, conn, sellerID)
	listingB := seedListing(t, conn, sellerID)
	orderID := seedOrder(t, conn, buyerID)
	lotID := seedLot(t, conn, models.StockLot{ListingID: listingA, QuantityTotal: 8, Listed: true})
	seedAllocation(t, conn, lotID, orderID, 2, enums.AllocationStatusActive)

	_, err := svc.UpdateLot(ctx, lotID, UpdateLotInput{ListingID: &listingB})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateLotConcurrentSameVersion(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	limitToSingleConn(t, conn)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "seller-race")
	listingID := seedListing(t, conn, sellerID)
	lotID := seedLot(t, conn, models.StockLot{ListingID: listingID, QuantityTotal: 10, Listed: true})

	// Both writers read version 1 before either commits.
	quantities := []int{12, 15}
	errs := make(chan error, len(quantities))
	var wg sync.WaitGroup
	for _, quantity := range quantities {
		wg.Add(1)
		go func(quantity int) {
			defer wg.Done()
			token := int64(1)
			_, err := svc.UpdateLot(ctx, lotID, UpdateLotInput{QuantityTotal: &quantity, Version: &token})
			errs <- err
		}(quantity)
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeConflict {
			t.Fatalf("unexpected error: %v", err)
		}
		conflicts++
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("expected exactly one winner and one conflict, got %d wins, %d conflicts", wins, conflicts)
	}

	lot, err := NewRepository(conn).FindLotByID(ctx, lotID)
	if err != nil {
		t.Fatalf("reload lot: %v", err)
	}
	if lot.Version != 2 {
		t.Fatalf("expected single version bump to 2, got %d", lot.Version)
	}
	if lot.QuantityTotal != 12 && lot.QuantityTotal != 15 {
		t.Fatalf("expected the winner's quantity, got %d", lot.QuantityTotal)
	}
}

func TestDeleteLotBlockedByActiveAllocation(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "seller-six")
	buyerID := seedAccount(t, conn, "buyer-two")
	listingID := seedListing(t, conn, sellerID)
	orderID := seedOrder(t, conn, buyerID)
	lotID := seedLot(t, conn, models.StockLot{ListingID: listingID, QuantityTotal: 10, Listed: true})
	allocationID := seedAllocation(t, conn, lotID, orderID, 3, enums.AllocationStatusActive)

	err := svc.DeleteLot(ctx, lotID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	// Released reservations no longer block deletion.
	if err := conn.Model(&models.StockAllocation{}).
		Where("id = ?", allocationID).
		Update("status", enums.AllocationStatusReleased).Error; err != nil {
		t.Fatalf("release allocation: %v", err)
	}
	if err := svc.DeleteLot(ctx, lotID); err != nil {
		t.Fatalf("delete lot: %v", err)
	}
}

func TestUpdateSimpleStock(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "seller-seven")
	listingID := seedListing(t, conn, sellerID)

	// No implicit lot yet: one gets created.
	dto, err := svc.UpdateSimpleStock(ctx, listingID, 30)
	if err != nil {
		t.Fatalf("simple stock create: %v", err)
	}
	if dto.QuantityTotal != 30 || dto.LocationID != nil || dto.OwnerID != nil {
		t.Fatalf("unexpected implicit lot: %+v", dto)
	}

	// Reserved stock stays on top of the stated on-hand quantity.
	buyerID := seedAccount(t, conn, "buyer-three")
	orderID := seedOrder(t, conn, buyerID)
	seedAllocation(t, conn, dto.ID, orderID, 8, enums.AllocationStatusActive)

	updated, err := svc.UpdateSimpleStock(ctx, listingID, 10)
	if err != nil {
		t.Fatalf("simple stock update: %v", err)
	}
	if updated.ID != dto.ID {
		t.Fatalf("expected same implicit lot, got %s and %s", dto.ID, updated.ID)
	}
	if updated.QuantityTotal != 18 {
		t.Fatalf("expected quantity 18 (10 on hand + 8 reserved), got %d", updated.QuantityTotal)
	}
}

func TestGetStockLevels(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "seller-eight")
	buyerID := seedAccount(t, conn, "buyer-four")
	listingID := seedListing(t, conn, sellerID)
	orderID := seedOrder(t, conn, buyerID)

	listedLot := seedLot(t, conn, models.StockLot{ListingID: listingID, QuantityTotal: 10, Listed: true})
	seedLot(t, conn, models.StockLot{ListingID: listingID, QuantityTotal: 7, Listed: false})
	seedAllocation(t, conn, listedLot, orderID, 4, enums.AllocationStatusActive)
	seedAllocation(t, conn, listedLot, orderID, 2, enums.AllocationStatusReleased)

	levels, err := svc.GetStockLevels(ctx, listingID)
	if err != nil {
		t.Fatalf("stock levels: %v", err)
	}
	if levels.Total != 17 {
		t.Fatalf("expected total 17, got %d", levels.Total)
	}
	if levels.Reserved != 4 {
		t.Fatalf("expected reserved 4, got %d", levels.Reserved)
	}
	// Unlisted quantity never counts toward availability.
	if levels.Available != 6 {
		t.Fatalf("expected available 6, got %d", levels.Available)
	}

	available, err := svc.GetAvailableStock(ctx, listingID)
	if err != nil {
		t.Fatalf("available stock: %v", err)
	}
	if available != 6 {
		t.Fatalf("expected available 6, got %d", available)
	}
}

func TestGetLotsFilters(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerID := seedAccount(t, conn, "seller-nine")
	ownerID := seedAccount(t, conn, "owner-one")
	listingID := seedListing(t, conn, sellerID)
	otherListing := seedListing(t, conn, sellerID)
	locationID := seedLocation(t, conn, "Lorville")

	seedLot(t, conn, models.StockLot{ListingID: listingID, QuantityTotal: 1, Listed: true, OwnerID: &ownerID, LocationID: &locationID})
	seedLot(t, conn, models.StockLot{ListingID: listingID, QuantityTotal: 2, Listed: false})
	seedLot(t, conn, models.StockLot{ListingID: otherListing, QuantityTotal: 3, Listed: true})

	all, err := svc.GetLots(ctx, LotFilters{ListingID: &listingID})
	if err != nil {
		t.Fatalf("list lots: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 lots for listing, got %d", len(all))
	}

	listed := true
	filtered, err := svc.GetLots(ctx, LotFilters{ListingID: &listingID, Listed: &listed, OwnerID: &ownerID, LocationID: &locationID})
	if err != nil {
		t.Fatalf("list filtered lots: %v", err)
	}
	if len(filtered) != 1 || filtered[0].QuantityTotal != 1 {
		t.Fatalf("unexpected filtered lots: %+v", filtered)
	}
}
