package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/SC-Market/sc-market-backend-sub001/api/responses"
	"github.com/SC-Market/sc-market-backend-sub001/api/validators"
	"github.com/SC-Market/sc-market-backend-sub001/internal/allocations"
	pkgerrors "github.com/SC-Market/sc-market-backend-sub001/pkg/errors"
	"github.com/SC-Market/sc-market-backend-sub001/pkg/logger"
)

type manualAllocatePayload struct {
	OrderID     string                  `json:"order_id" validate:"required,uuid"`
	Allocations []allocationRequestItem `json:"allocations" validate:"required,min=1,dive"`
}

type allocationRequestItem struct {
	LotID    string `json:"lot_id" validate:"required,uuid"`
	Quantity int    `json:"quantity"`
}

type autoAllocatePayload struct {
	OrderID   string `json:"order_id" validate:"required,uuid"`
	ListingID string `json:"listing_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"`
}

// AllocationsManual reserves caller-chosen (lot, quantity) pairs for an
// order, all or nothing.
func AllocationsManual(svc allocations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation service unavailable"))
			return
		}

		var payload manualAllocatePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID, err := uuid.Parse(payload.OrderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_id"))
			return
		}
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID.String())
		}

		requests := make([]allocations.AllocationRequest, 0, len(payload.Allocations))
		for _, item := range payload.Allocations {
			lotID, err := uuid.Parse(item.LotID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lot_id"))
				return
			}
			requests = append(requests, allocations.AllocationRequest{LotID: lotID, Quantity: item.Quantity})
		}

		created, err := svc.ManualAllocate(ctx, orderID, requests)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// AllocationsAuto reserves listing stock for an order oldest lot first.
func AllocationsAuto(svc allocations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation service unavailable"))
			return
		}

		var payload autoAllocatePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID, err := uuid.Parse(payload.OrderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_id"))
			return
		}
		listingID, err := uuid.Parse(payload.ListingID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing_id"))
			return
		}
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID.String())
			ctx = logg.WithListingID(ctx, listingID.String())
		}

		created, err := svc.AutoAllocate(ctx, orderID, listingID, payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// AllocationsByOrder lists every allocation recorded against an order.
func AllocationsByOrder(svc allocations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation service unavailable"))
			return
		}

		orderID, err := parsePathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID.String())
		}

		rows, err := svc.GetAllocations(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AllocationRelease returns a reservation to the lot's unallocated pool.
func AllocationRelease(svc allocations.Service, logg *logger.Logger) http.HandlerFunc {
	return allocationTransition(svc, logg, func(ctx *http.Request, s allocations.Service, id uuid.UUID) (*allocations.AllocationDTO, error) {
		return s.Release(ctx.Context(), id)
	})
}

// AllocationConsume converts a reservation into a permanent deduction.
func AllocationConsume(svc allocations.Service, logg *logger.Logger) http.HandlerFunc {
	return allocationTransition(svc, logg, func(ctx *http.Request, s allocations.Service, id uuid.UUID) (*allocations.AllocationDTO, error) {
		return s.Consume(ctx.Context(), id)
	})
}

func allocationTransition(
	svc allocations.Service,
	logg *logger.Logger,
	apply func(*http.Request, allocations.Service, uuid.UUID) (*allocations.AllocationDTO, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation service unavailable"))
			return
		}

		allocationID, err := parsePathUUID(r, "allocationID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := apply(r, svc, allocationID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
