package services

import (
	"fmt"

	"ferry-system/internal/status"
	"ferry-system/models"
)

// transitions is the only reachability table for booking statuses.
// pending -> confirmed -> completed, with cancelled reachable from
// pending or confirmed. Terminal states have no entries.
var transitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:   {models.BookingConfirmed, models.BookingCancelled},
	models.BookingConfirmed: {models.BookingCompleted, models.BookingCancelled},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to models.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to models.BookingStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", status.ErrInvalidTransition, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", status.ErrInvalidTransition, from, to)
	}
	return nil
}

// ActiveBooking selects the caller's current trip: the first record in store
// order whose status is pending or confirmed. The boolean is false when there
// is none.
func ActiveBooking(bookings []models.Booking) (models.Booking, bool) {
	for _, b := range bookings {
		if b.Status == models.BookingPending || b.Status == models.BookingConfirmed {
			return b, true
		}
	}
	return models.Booking{}, false
}
