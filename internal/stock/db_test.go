package stock

import (
	"testing"

	"github.com/SC-Market/sc-market-backend-sub001/internal/accounts"
	"github.com/SC-Market/sc-market-backend-sub001/internal/listings"
	"github.com/SC-Market/sc-market-backend-sub001/internal/locations"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/db"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/db/models"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:stock_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Account{},
		&models.MarketListing{},
		&models.Order{},
		&models.Location{},
		&models.StockLot{},
		&models.StockAllocation{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// sqlite permits one writer at a time; capping the pool makes concurrent
// callers queue on a single connection instead of failing with lock errors.
func limitToSingleConn(t *testing.T, conn *gorm.DB) {
	t.Helper()
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(conn),
		db.FromConn(conn),
		listings.NewRepository(conn),
		locations.NewRepository(conn),
		accounts.NewRepository(conn),
		nil,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedAccount(t *testing.T, conn *gorm.DB, username string) uuid.UUID {
	t.Helper()
	account := models.Account{Username: username}
	if err := conn.Create(&account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account.ID
}

func seedListing(t *testing.T, conn *gorm.DB, sellerID uuid.UUID) uuid.UUID {
	t.Helper()
	listing := models.MarketListing{SellerID: sellerID}
	if err := conn.Create(&listing).Error; err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return listing.ID
}

func seedLocation(t *testing.T, conn *gorm.DB, name string) uuid.UUID {
	t.Helper()
	location := models.Location{Name: name, IsPreset: true}
	if err := conn.Create(&location).Error; err != nil {
		t.Fatalf("seed location: %v", err)
	}
	return location.ID
}

func seedOrder(t *testing.T, conn *gorm.DB, buyerID uuid.UUID) uuid.UUID {
	t.Helper()
	order := models.Order{BuyerID: buyerID}
	if err := conn.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order.ID
}

func seedLot(t *testing.T, conn *gorm.DB, lot models.StockLot) uuid.UUID {
	t.Helper()
	if lot.Version == 0 {
		lot.Version = 1
	}
	if err := conn.Create(&lot).Error; err != nil {
		t.Fatalf("seed lot: %v", err)
	}
	return lot.ID
}

func seedAllocation(t *testing.T, conn *gorm.DB, lotID, orderID uuid.UUID, quantity int, status enums.AllocationStatus) uuid.UUID {
	t.Helper()
	allocation := models.StockAllocation{
		LotID:    lotID,
		OrderID:  orderID,
		Quantity: quantity,
		Status:   status,
	}
	if err := conn.Create(&allocation).Error; err != nil {
		t.Fatalf("seed allocation: %v", err)
	}
	return allocation.ID
}
