package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SC-Market/sc-market-backend-sub001/api/responses"
	"github.com/SC-Market/sc-market-backend-sub001/api/validators"
	"github.com/SC-Market/sc-market-backend-sub001/internal/stock"
	pkgerrors "github.com/SC-Market/sc-market-backend-sub001/pkg/errors"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/logger"
)

type createLotPayload struct {
	ListingID     string  `json:"listing_id" validate:"required,uuid"`
	QuantityTotal int     `json:"quantity_total"`
	LocationID    *string `json:"location_id,omitempty" validate:"omitempty,uuid"`
	OwnerID       *string `json:"owner_id,omitempty" validate:"omitempty,uuid"`
	OwnerUsername *string `json:"owner_username,omitempty"`
	Listed        bool    `json:"listed"`
	Notes         string  `json:"notes"`
}

type updateLotPayload struct {
	ListingID     *string `json:"listing_id,omitempty" validate:"omitempty,uuid"`
	LocationID    *string `json:"location_id,omitempty" validate:"omitempty,uuid"`
	QuantityTotal *int    `json:"quantity_total,omitempty"`
	Listed        *bool   `json:"listed,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	Version       *int64  `json:"version,omitempty"`
}

type simpleStockPayload struct {
	Quantity int `json:"quantity"`
}

type transferPayload struct {
	DestinationLocationID string `json:"destination_location_id" validate:"required,uuid"`
	// Quantity is classified by the transfer service so zero and negative
	// values surface as INVALID_QUANTITY rather than a generic decode error.
	Quantity int `json:"quantity"`
}

func parsePathUUID(r *http.Request, key string) (uuid.UUID, error) {
	value, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return value, nil
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	value, err := uuid.Parse(*raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return &value, nil
}

// LotCreate registers a new stock lot for a listing.
func LotCreate(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		var payload createLotPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		listingID, err := uuid.Parse(payload.ListingID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing_id"))
			return
		}
		locationID, err := parseOptionalUUID(payload.LocationID, "location_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ownerID, err := parseOptionalUUID(payload.OwnerID, "owner_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.CreateLot(ctx, stock.CreateLotInput{
			ListingID:     listingID,
			QuantityTotal: payload.QuantityTotal,
			LocationID:    locationID,
			OwnerID:       ownerID,
			OwnerUsername: payload.OwnerUsername,
			Listed:        payload.Listed,
			Notes:         payload.Notes,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// LotList returns lots matching the optional listing/owner/location/listed
// query filters.
func LotList(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		listingID, err := validators.ParseQueryUUID(r, "listing_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ownerID, err := validators.ParseQueryUUID(r, "owner_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		locationID, err := validators.ParseQueryUUID(r, "location_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		listed, err := validators.ParseQueryBool(r, "listed")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		lots, err := svc.GetLots(ctx, stock.LotFilters{
			ListingID:  listingID,
			OwnerID:    ownerID,
			LocationID: locationID,
			Listed:     listed,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, lots)
	}
}

// LotUpdate applies a partial update to a lot, honoring the optional
// optimistic concurrency token.
func LotUpdate(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		lotID, err := parsePathUUID(r, "lotID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithLotID(ctx, lotID.String())
		}

		var payload updateLotPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		listingID, err := parseOptionalUUID(payload.ListingID, "listing_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		locationID, err := parseOptionalUUID(payload.LocationID, "location_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.UpdateLot(ctx, lotID, stock.UpdateLotInput{
			ListingID:     listingID,
			LocationID:    locationID,
			QuantityTotal: payload.QuantityTotal,
			Listed:        payload.Listed,
			Notes:         payload.Notes,
			Version:       payload.Version,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// LotDelete removes a lot with no active allocations.
func LotDelete(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		lotID, err := parsePathUUID(r, "lotID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithLotID(ctx, lotID.String())
		}

		if err := svc.DeleteLot(ctx, lotID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// LotTransfer moves quantity from a lot to another location atomically.
func LotTransfer(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		lotID, err := parsePathUUID(r, "lotID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithLotID(ctx, lotID.String())
		}

		var payload transferPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		destinationID, err := uuid.Parse(payload.DestinationLocationID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid destination_location_id"))
			return
		}

		result, err := svc.TransferLot(ctx, lotID, destinationID, payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListingStockLevels returns the total/reserved/available aggregates for one
// listing.
func ListingStockLevels(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		listingID, err := parsePathUUID(r, "listingID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithListingID(ctx, listingID.String())
		}

		levels, err := svc.GetStockLevels(ctx, listingID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, levels)
	}
}

// ListingSimpleStock sets the listing's on-hand quantity through the implicit
// lot, preserving active reservations.
func ListingSimpleStock(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		listingID, err := parsePathUUID(r, "listingID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithListingID(ctx, listingID.String())
		}

		var payload simpleStockPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.UpdateSimpleStock(ctx, listingID, payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
