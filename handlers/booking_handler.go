package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ferry-system/internal/status"
	"ferry-system/models"
	"ferry-system/monitoring"
	"ferry-system/services"
)

type BookingHandler struct {
	bookings *services.BookingService
	monitor  *monitoring.Monitor
}

func NewBookingHandler(bookings *services.BookingService, monitor *monitoring.Monitor) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		monitor:  monitor,
	}
}

func sessionFromEvent(e *core.RequestEvent) models.Session {
	return models.Session{
		UserID:    e.Auth.Id,
		UserName:  e.Auth.GetString("name"),
		UserEmail: e.Auth.Email(),
	}
}

// serviceError translates repository errors into API responses.
func serviceError(err error) error {
	switch {
	case status.IsValidation(err):
		return apis.NewBadRequestError(err.Error(), err)
	case errors.Is(err, status.ErrNotFound):
		return apis.NewNotFoundError("Booking not found", err)
	case errors.Is(err, status.ErrInvalidTransition):
		return apis.NewBadRequestError(err.Error(), err)
	case errors.Is(err, status.ErrInvalidPass):
		return apis.NewBadRequestError(err.Error(), err)
	case errors.Is(err, status.ErrUnavailable):
		return apis.NewApiError(http.StatusConflict, err.Error(), err)
	default:
		return err
	}
}

func (h *BookingHandler) CreateBooking(e *core.RequestEvent) error {
	var in models.BookingInput
	if err := e.BindBody(&in); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	booking, err := h.bookings.Create(e.Request.Context(), sessionFromEvent(e), &in)
	if err != nil {
		h.monitor.TrackBookingOperation("create", "error")
		return serviceError(err)
	}

	h.monitor.TrackBookingOperation("create", "ok")
	return e.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) ListMyBookings(e *core.RequestEvent) error {
	bookings, err := h.bookings.ListForUser(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return serviceError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"bookings": bookings,
		"total":    len(bookings),
	})
}

// ActiveBooking returns the caller's current trip, if any.
func (h *BookingHandler) ActiveBooking(e *core.RequestEvent) error {
	bookings, err := h.bookings.ListForUser(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return serviceError(err)
	}

	active, ok := services.ActiveBooking(bookings)
	if !ok {
		return apis.NewNotFoundError("No active booking", nil)
	}
	return e.JSON(http.StatusOK, active)
}

func (h *BookingHandler) GetBooking(e *core.RequestEvent) error {
	booking, err := h.ownedBooking(e)
	if err != nil {
		return err
	}
	return e.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) UpdateBooking(e *core.RequestEvent) error {
	booking, err := h.ownedBooking(e)
	if err != nil {
		return err
	}

	var patch map[string]any
	if err := e.BindBody(&patch); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.bookings.Update(e.Request.Context(), booking.ID, patch); err != nil {
		h.monitor.TrackBookingOperation("update", "error")
		return serviceError(err)
	}

	h.monitor.TrackBookingOperation("update", "ok")
	updated, _, err := h.bookings.Get(e.Request.Context(), booking.ID)
	if err != nil {
		return serviceError(err)
	}
	return e.JSON(http.StatusOK, updated)
}

func (h *BookingHandler) CancelBooking(e *core.RequestEvent) error {
	booking, err := h.ownedBooking(e)
	if err != nil {
		return err
	}

	cancelled, err := h.bookings.Cancel(e.Request.Context(), booking.ID)
	if err != nil {
		h.monitor.TrackBookingOperation("cancel", "error")
		return serviceError(err)
	}

	h.monitor.TrackBookingOperation("cancel", "ok")
	return e.JSON(http.StatusOK, cancelled)
}

// CheckAvailability reports whether a lodging interval is free.
func (h *BookingHandler) CheckAvailability(e *core.RequestEvent) error {
	start, err := time.Parse(time.RFC3339, e.Request.URL.Query().Get("start"))
	if err != nil {
		return apis.NewBadRequestError("Invalid start time", err)
	}
	end, err := time.Parse(time.RFC3339, e.Request.URL.Query().Get("end"))
	if err != nil {
		return apis.NewBadRequestError("Invalid end time", err)
	}
	if !start.Before(end) {
		return apis.NewBadRequestError("start must be before end", nil)
	}

	available, err := h.bookings.CheckAvailability(e.Request.Context(), start, end)
	if err != nil {
		return serviceError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"available": available,
	})
}

// BoardingPass renders the booking's QR boarding pass.
func (h *BookingHandler) BoardingPass(e *core.RequestEvent) error {
	booking, err := h.ownedBooking(e)
	if err != nil {
		return err
	}

	png, err := services.BoardingPassPNG(booking, 256)
	if err != nil {
		return serviceError(err)
	}

	return e.Blob(http.StatusOK, "image/png", png)
}

// VerifyBoardingPass resolves a scanned pass payload back to its booking.
// Gate staff only.
func (h *BookingHandler) VerifyBoardingPass(e *core.RequestEvent) error {
	var req struct {
		Payload string `json:"payload"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	pass, err := services.ParseBoardingPass(req.Payload)
	if err != nil {
		h.monitor.TrackBoardingPassScan("invalid")
		return serviceError(err)
	}

	booking, found, err := h.bookings.GetByReference(e.Request.Context(), pass.Reference)
	if err != nil {
		return serviceError(err)
	}
	if !found {
		h.monitor.TrackBoardingPassScan("unknown")
		return apis.NewNotFoundError("Booking not found", nil)
	}

	valid := booking.Status == models.BookingConfirmed
	if valid {
		h.monitor.TrackBoardingPassScan("ok")
	} else {
		h.monitor.TrackBoardingPassScan("rejected")
	}

	return e.JSON(http.StatusOK, map[string]any{
		"valid":   valid,
		"pass":    pass,
		"booking": booking,
	})
}

// ownedBooking loads the path booking and enforces that the caller owns it.
// Admins pass the ownership check.
func (h *BookingHandler) ownedBooking(e *core.RequestEvent) (models.Booking, error) {
	id := e.Request.PathValue("id")

	booking, found, err := h.bookings.Get(e.Request.Context(), id)
	if err != nil {
		return models.Booking{}, serviceError(err)
	}
	if !found {
		return models.Booking{}, apis.NewNotFoundError("Booking not found", nil)
	}

	if booking.UserID != e.Auth.Id && e.Auth.Collection().Name != "admins" {
		return models.Booking{}, apis.NewForbiddenError("Not your booking", nil)
	}
	return booking, nil
}
