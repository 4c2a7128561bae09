package locations

import (
	"context"
	"strings"
	"testing"

	"github.com/SC-Market/sc-market-backend-sub001/internal/accounts"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/db/models"
	pkgerrors "github.com/SC-Market/sc-market-backend-sub001/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:locations_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Account{}, &models.Location{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), accounts.NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedPreset(t *testing.T, conn *gorm.DB, name string) uuid.UUID {
	t.Helper()
	location := models.Location{Name: name, IsPreset: true}
	if err := conn.Create(&location).Error; err != nil {
		t.Fatalf("seed preset: %v", err)
	}
	return location.ID
}

func seedAccount(t *testing.T, conn *gorm.DB, username string) uuid.UUID {
	t.Helper()
	account := models.Account{Username: username}
	if err := conn.Create(&account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account.ID
}

func TestGetPresetLocations(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	seedPreset(t, conn, "Orison")
	seedPreset(t, conn, "Area18")
	ownerID := seedAccount(t, conn, "trader-one")
	if err := conn.Create(&models.Location{Name: "My Hangar", OwnerID: &ownerID}).Error; err != nil {
		t.Fatalf("seed custom: %v", err)
	}

	rows, err := svc.GetPresetLocations(ctx)
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 presets, got %d", len(rows))
	}
	if rows[0].Name != "Area18" || rows[1].Name != "Orison" {
		t.Fatalf("expected name ordering, got %+v", rows)
	}
}

func TestSearchLocations(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	seedPreset(t, conn, "Port Tressler")
	seedPreset(t, conn, "Port Olisar")
	seedPreset(t, conn, "Lorville")
	ownerID := seedAccount(t, conn, "trader-two")
	otherID := seedAccount(t, conn, "trader-three")
	if err := conn.Create(&models.Location{Name: "Port Cache", OwnerID: &ownerID}).Error; err != nil {
		t.Fatalf("seed custom: %v", err)
	}
	if err := conn.Create(&models.Location{Name: "Port Stash", OwnerID: &otherID}).Error; err != nil {
		t.Fatalf("seed other custom: %v", err)
	}

	// Anonymous search only sees presets, case-insensitively.
	rows, err := svc.SearchLocations(ctx, "pOrT", nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 preset matches, got %d", len(rows))
	}

	// Owner-scoped search adds that owner's rows only.
	rows, err = svc.SearchLocations(ctx, "port", &ownerID)
	if err != nil {
		t.Fatalf("owner search: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 matches for owner, got %d", len(rows))
	}
	for _, row := range rows {
		if !row.IsPreset && (row.OwnerID == nil || *row.OwnerID != ownerID) {
			t.Fatalf("search leaked another owner's location: %+v", row)
		}
	}
}

func TestCreateCustomLocation(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	ownerID := seedAccount(t, conn, "trader-four")
	dto, err := svc.CreateCustomLocation(ctx, CreateLocationInput{Name: "  Scrapyard Nine  ", OwnerID: &ownerID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Name != "Scrapyard Nine" {
		t.Fatalf("expected trimmed name, got %q", dto.Name)
	}
	if dto.IsPreset {
		t.Fatal("custom location must not be preset")
	}

	// Creating the same name again resolves to the existing row.
	again, err := svc.CreateCustomLocation(ctx, CreateLocationInput{Name: "scrapyard nine", OwnerID: &ownerID})
	if err != nil {
		t.Fatalf("re-create: %v", err)
	}
	if again.ID != dto.ID {
		t.Fatalf("expected existing location %s, got %s", dto.ID, again.ID)
	}

	owned, err := svc.GetUserLocations(ctx, ownerID)
	if err != nil {
		t.Fatalf("user locations: %v", err)
	}
	if len(owned) != 1 {
		t.Fatalf("expected 1 owned location, got %d", len(owned))
	}
}

func TestCreateCustomLocationResolvesUsername(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	ownerID := seedAccount(t, conn, "trader-five")
	username := "trader-five"
	dto, err := svc.CreateCustomLocation(ctx, CreateLocationInput{Name: "Backup Depot", OwnerUsername: &username})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.OwnerID == nil || *dto.OwnerID != ownerID {
		t.Fatalf("expected owner %s, got %+v", ownerID, dto.OwnerID)
	}
}

func TestCreateCustomLocationValidation(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	ownerID := seedAccount(t, conn, "trader-six")

	_, err := svc.CreateCustomLocation(ctx, CreateLocationInput{Name: "   ", OwnerID: &ownerID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}

	long := strings.Repeat("a", models.LocationNameMaxLength+1)
	_, err = svc.CreateCustomLocation(ctx, CreateLocationInput{Name: long, OwnerID: &ownerID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCharacterLimit {
		t.Fatalf("expected character limit error, got %v", err)
	}

	_, err = svc.CreateCustomLocation(ctx, CreateLocationInput{Name: "No Owner"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing owner, got %v", err)
	}

	// The limit is in characters: a max-length multibyte name passes even
	// though its byte length is twice the limit.
	multibyte := strings.Repeat("ñ", models.LocationNameMaxLength)
	dto, err := svc.CreateCustomLocation(ctx, CreateLocationInput{Name: multibyte, OwnerID: &ownerID})
	if err != nil {
		t.Fatalf("create multibyte-named location: %v", err)
	}
	if dto.Name != multibyte {
		t.Fatal("name was not stored verbatim")
	}
}

func TestGetLocationByID(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	presetID := seedPreset(t, conn, "Seraphim Station")
	dto, err := svc.GetLocationByID(ctx, presetID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto.Name != "Seraphim Station" || !dto.IsPreset {
		t.Fatalf("unexpected location: %+v", dto)
	}

	_, err = svc.GetLocationByID(ctx, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}
