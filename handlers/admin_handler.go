package handlers

import (
	"net/http"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"ferry-system/models"
	"ferry-system/monitoring"
	"ferry-system/services"
)

// AdminHandler serves the back-office: fleet-wide booking lists, status
// transitions and revenue stats. All routes sit behind admin auth.
type AdminHandler struct {
	app      core.App
	bookings *services.BookingService
	monitor  *monitoring.Monitor
}

func NewAdminHandler(app core.App, bookings *services.BookingService, monitor *monitoring.Monitor) *AdminHandler {
	return &AdminHandler{
		app:      app,
		bookings: bookings,
		monitor:  monitor,
	}
}

func (h *AdminHandler) ListBookings(e *core.RequestEvent) error {
	var (
		bookings []models.Booking
		err      error
	)

	if raw := e.Request.URL.Query().Get("status"); raw != "" {
		st := models.BookingStatus(raw)
		if !st.Valid() {
			return apis.NewBadRequestError("Unknown status filter", nil)
		}
		bookings, err = h.bookings.ListByStatus(e.Request.Context(), st)
	} else {
		bookings, err = h.bookings.ListAll(e.Request.Context())
	}
	if err != nil {
		return serviceError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"bookings": bookings,
		"total":    len(bookings),
	})
}

// TransitionBooking moves one booking along the lifecycle. The service owns
// the legality check.
func (h *AdminHandler) TransitionBooking(e *core.RequestEvent) error {
	var req struct {
		Status models.BookingStatus `json:"status"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	booking, err := h.bookings.Transition(e.Request.Context(), e.Request.PathValue("id"), req.Status)
	if err != nil {
		h.monitor.TrackBookingOperation("transition", "error")
		return serviceError(err)
	}

	h.monitor.TrackBookingOperation("transition", "ok")
	return e.JSON(http.StatusOK, booking)
}

func (h *AdminHandler) DeleteBooking(e *core.RequestEvent) error {
	if err := h.bookings.Delete(e.Request.Context(), e.Request.PathValue("id")); err != nil {
		h.monitor.TrackBookingOperation("delete", "error")
		return serviceError(err)
	}

	h.monitor.TrackBookingOperation("delete", "ok")
	return e.NoContent(http.StatusNoContent)
}

// Stats summarizes the store for the dashboard: counts per status and
// realized revenue over confirmed and completed bookings.
func (h *AdminHandler) Stats(e *core.RequestEvent) error {
	counts := map[string]int64{}
	for _, st := range []models.BookingStatus{
		models.BookingPending, models.BookingConfirmed,
		models.BookingCancelled, models.BookingCompleted,
	} {
		n, err := h.app.CountRecords("bookings", dbx.HashExp{"status": string(st)})
		if err != nil {
			return serviceError(err)
		}
		counts[string(st)] = n
	}

	revenue := decimal.Zero
	for _, st := range []models.BookingStatus{models.BookingConfirmed, models.BookingCompleted} {
		bookings, err := h.bookings.ListByStatus(e.Request.Context(), st)
		if err != nil {
			return serviceError(err)
		}
		for _, b := range bookings {
			revenue = revenue.Add(decimal.NewFromFloat(b.TotalPrice))
		}
	}

	return e.JSON(http.StatusOK, map[string]any{
		"counts":  counts,
		"revenue": revenue.StringFixed(2),
	})
}
