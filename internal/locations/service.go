package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/SC-Market/sc-market-backend-sub001/pkg/db"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/db/models"
	pkgerrors "github.com/SC-Market/sc-market-backend-sub001/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type accountResolver interface {
	ResolveByUsername(ctx context.Context, username string) (uuid.UUID, error)
}

// Service is the location directory: preset catalog plus per-user custom
// locations.
type Service interface {
	GetPresetLocations(ctx context.Context) ([]LocationDTO, error)
	GetUserLocations(ctx context.Context, ownerID uuid.UUID) ([]LocationDTO, error)
	SearchLocations(ctx context.Context, query string, ownerID *uuid.UUID) ([]LocationDTO, error)
	CreateCustomLocation(ctx context.Context, input CreateLocationInput) (*LocationDTO, error)
	GetLocationByID(ctx context.Context, id uuid.UUID) (*LocationDTO, error)
}

type service struct {
	repo     *Repository
	accounts accountResolver
}

func NewService(repo *Repository, accounts accountResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("location repository required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account resolver required")
	}
	return &service{repo: repo, accounts: accounts}, nil
}

func (s *service) GetPresetLocations(ctx context.Context) ([]LocationDTO, error) {
	rows, err := s.repo.ListPresets(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list preset locations")
	}
	return toLocationDTOs(rows), nil
}

func (s *service) GetUserLocations(ctx context.Context, ownerID uuid.UUID) ([]LocationDTO, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user locations")
	}
	return toLocationDTOs(rows), nil
}

func (s *service) SearchLocations(ctx context.Context, query string, ownerID *uuid.UUID) ([]LocationDTO, error) {
	rows, err := s.repo.Search(ctx, strings.TrimSpace(query), ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search locations")
	}
	return toLocationDTOs(rows), nil
}

func (s *service) CreateCustomLocation(ctx context.Context, input CreateLocationInput) (*LocationDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location name is required")
	}
	if count := utf8.RuneCountInString(name); count > models.LocationNameMaxLength {
		return nil, pkgerrors.New(pkgerrors.CodeCharacterLimit, "location name exceeds limit").
			WithDetails(pkgerrors.CharacterLimit{Field: "name", Limit: models.LocationNameMaxLength, Length: count})
	}

	ownerID := input.OwnerID
	if ownerID == nil && input.OwnerUsername != nil {
		resolved, err := s.accounts.ResolveByUsername(ctx, *input.OwnerUsername)
		if err != nil {
			return nil, err
		}
		ownerID = &resolved
	}
	if ownerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "custom locations require an owner")
	}

	// Same name for the same owner resolves to the existing row.
	if existing, err := s.repo.FindByNameForOwner(ctx, name, *ownerID); err == nil {
		dto := toLocationDTO(existing)
		return &dto, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up location by name")
	}

	location := &models.Location{Name: name, IsPreset: false, OwnerID: ownerID}
	if err := s.repo.Create(ctx, location); err != nil {
		// A concurrent create of the same name resolves to its row.
		if db.IsUniqueViolation(err, "uq_locations_owner_name") {
			if existing, ferr := s.repo.FindByNameForOwner(ctx, name, *ownerID); ferr == nil {
				dto := toLocationDTO(existing)
				return &dto, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert location")
	}
	dto := toLocationDTO(location)
	return &dto, nil
}

func (s *service) GetLocationByID(ctx context.Context, id uuid.UUID) (*LocationDTO, error) {
	location, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	dto := toLocationDTO(location)
	return &dto, nil
}
