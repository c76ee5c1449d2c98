package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ferry-system/services"
)

// TrackingHandler exposes the live fleet to the map screens.
type TrackingHandler struct {
	tracking *services.TrackingService
	bookings *services.BookingService
}

func NewTrackingHandler(tracking *services.TrackingService, bookings *services.BookingService) *TrackingHandler {
	return &TrackingHandler{
		tracking: tracking,
		bookings: bookings,
	}
}

func (h *TrackingHandler) ListFerries(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, map[string]any{
		"ferries": h.tracking.Fleet(),
	})
}

func (h *TrackingHandler) GetFerry(e *core.RequestEvent) error {
	ferry, ok := h.tracking.FerryByID(e.Request.PathValue("id"))
	if !ok {
		return apis.NewNotFoundError("Ferry not found", nil)
	}
	return e.JSON(http.StatusOK, ferry)
}

// FerryPosition returns the last persisted telemetry sample for one vessel.
func (h *TrackingHandler) FerryPosition(e *core.RequestEvent) error {
	pos, err := h.tracking.LastPosition(e.Request.Context(), e.Request.PathValue("id"))
	if err != nil {
		return apis.NewNotFoundError("No position available", err)
	}
	return e.JSON(http.StatusOK, pos)
}

func (h *TrackingHandler) ListRoutes(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, map[string]any{
		"routes": h.tracking.Routes(),
	})
}

// MyRoute orients the crossing for the caller's active booking and returns
// distance and crossing-time estimates for it.
func (h *TrackingHandler) MyRoute(e *core.RequestEvent) error {
	bookings, err := h.bookings.ListForUser(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return serviceError(err)
	}

	active, ok := services.ActiveBooking(bookings)
	if !ok {
		return apis.NewNotFoundError("No active booking", nil)
	}

	estimate, ok := h.tracking.RouteForBooking(active)
	if !ok {
		return apis.NewNotFoundError("Active booking has no ferry route", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"booking_id": active.ID,
		"route":      estimate,
	})
}
