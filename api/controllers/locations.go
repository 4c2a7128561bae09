package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/SC-Market/sc-market-backend-sub001/api/responses"
	"github.com/SC-Market/sc-market-backend-sub001/api/validators"
	"github.com/SC-Market/sc-market-backend-sub001/internal/locations"
	pkgerrors "github.com/SC-Market/sc-market-backend-sub001/pkg/errors"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/logger"
)

type createLocationPayload struct {
	Name          string  `json:"name" validate:"required"`
	OwnerID       *string `json:"owner_id,omitempty" validate:"omitempty,uuid"`
	OwnerUsername *string `json:"owner_username,omitempty"`
}

// LocationsPresets lists the system-defined location catalog.
func LocationsPresets(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location service unavailable"))
			return
		}

		rows, err := svc.GetPresetLocations(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// LocationsSearch matches presets, plus the owner's custom rows when owner_id
// is supplied.
func LocationsSearch(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location service unavailable"))
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		ownerID, err := validators.ParseQueryUUID(r, "owner_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.SearchLocations(ctx, query, ownerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// LocationsByOwner lists one account's custom locations.
func LocationsByOwner(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location service unavailable"))
			return
		}

		ownerID, err := parsePathUUID(r, "ownerID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.GetUserLocations(ctx, ownerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// LocationCreate registers a custom location for an account.
func LocationCreate(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location service unavailable"))
			return
		}

		var payload createLocationPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var ownerID *uuid.UUID
		if payload.OwnerID != nil && *payload.OwnerID != "" {
			parsed, err := uuid.Parse(*payload.OwnerID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid owner_id"))
				return
			}
			ownerID = &parsed
		}

		dto, err := svc.CreateCustomLocation(ctx, locations.CreateLocationInput{
			Name:          payload.Name,
			OwnerID:       ownerID,
			OwnerUsername: payload.OwnerUsername,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// LocationGet loads one location by id.
func LocationGet(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "location service unavailable"))
			return
		}

		locationID, err := parsePathUUID(r, "locationID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.GetLocationByID(ctx, locationID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
