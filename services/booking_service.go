package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"

	"ferry-system/config"
	"ferry-system/internal/status"
	"ferry-system/models"
	"ferry-system/utils"
)

const collectionBookings = "bookings"

// updatableFields is the merge whitelist for Update. Status changes go through
// Transition only; identity, pricing and timestamps are never caller-writable.
var updatableFields = map[string]bool{
	"check_in":         true,
	"check_out":        true,
	"nationality":      true,
	"guests":           true,
	"special_requests": true,
	"ferry_details":    true,
}

// BookingService mediates all reads and writes of booking records against the
// store and owns the status lifecycle.
type BookingService struct {
	app       core.App
	config    *config.Config
	basePrice decimal.Decimal
}

func NewBookingService(app core.App, cfg *config.Config) *BookingService {
	base, err := decimal.NewFromString(cfg.BasePricePerPassenger)
	if err != nil {
		log.Printf("Invalid BASE_PRICE_PER_PASSENGER %q, falling back to 50: %v", cfg.BasePricePerPassenger, err)
		base = decimal.NewFromInt(50)
	}

	return &BookingService{
		app:       app,
		config:    cfg,
		basePrice: base,
	}
}

// TotalPrice computes base price per passenger times passenger count.
func (s *BookingService) TotalPrice(guests int) decimal.Decimal {
	return s.basePrice.Mul(decimal.NewFromInt(int64(guests)))
}

// Create validates the draft, prices it, stamps the caller's identity and
// writes a new pending record. The store assigns id and timestamps.
func (s *BookingService) Create(ctx context.Context, session models.Session, in *models.BookingInput) (models.Booking, error) {
	if err := in.Validate(); err != nil {
		return models.Booking{}, err
	}

	if in.Kind == models.KindLodging {
		available, err := s.CheckAvailability(ctx, in.CheckIn, in.CheckOut)
		if err != nil {
			return models.Booking{}, err
		}
		if !available {
			return models.Booking{}, fmt.Errorf("%w: %s to %s", status.ErrUnavailable,
				in.CheckIn.Format(time.RFC3339), in.CheckOut.Format(time.RFC3339))
		}
	}

	collection, err := s.app.FindCollectionByNameOrId(collectionBookings)
	if err != nil {
		return models.Booking{}, fmt.Errorf("bookings collection: %w", err)
	}

	ref, err := utils.BookingRef(6)
	if err != nil {
		return models.Booking{}, fmt.Errorf("booking reference: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("reference", ref)
	record.Set("user_id", session.UserID)
	record.Set("user_name", session.UserName)
	record.Set("user_email", session.UserEmail)
	record.Set("kind", string(in.Kind))
	record.Set("status", string(models.BookingPending))
	record.Set("total_price", s.TotalPrice(in.Guests).InexactFloat64())
	record.Set("guests", in.Guests)
	record.Set("nationality", in.Nationality)
	record.Set("special_requests", in.SpecialRequests)
	if !in.CheckIn.IsZero() {
		record.Set("check_in", in.CheckIn)
	}
	if !in.CheckOut.IsZero() {
		record.Set("check_out", in.CheckOut)
	}
	if in.Kind == models.KindFerry {
		record.Set("ferry_details", in.Ferry)
	}

	if err := s.app.Save(record); err != nil {
		return models.Booking{}, fmt.Errorf("save booking: %w", err)
	}

	return recordToBooking(record), nil
}

// Get is a point lookup. A missing record is not an error: the boolean
// reports presence.
func (s *BookingService) Get(ctx context.Context, id string) (models.Booking, bool, error) {
	record, err := s.app.FindRecordById(collectionBookings, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, false, nil
		}
		return models.Booking{}, false, fmt.Errorf("find booking %s: %w", id, err)
	}
	return recordToBooking(record), true, nil
}

// GetByReference resolves a booking by its human-facing reference code, used
// by the boarding pass scanner.
func (s *BookingService) GetByReference(ctx context.Context, ref string) (models.Booking, bool, error) {
	records, err := s.app.FindRecordsByFilter(
		collectionBookings,
		"reference = {:ref}",
		"-created",
		1,
		0,
		dbx.Params{"ref": ref},
	)
	if err != nil {
		return models.Booking{}, false, fmt.Errorf("find booking by reference: %w", err)
	}
	if len(records) == 0 {
		return models.Booking{}, false, nil
	}
	return recordToBooking(records[0]), true, nil
}

// ListForUser returns the user's bookings, newest first.
func (s *BookingService) ListForUser(ctx context.Context, userID string) ([]models.Booking, error) {
	records, err := s.app.FindRecordsByFilter(
		collectionBookings,
		"user_id = {:userId}",
		"-created",
		0,
		0,
		dbx.Params{"userId": userID},
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings for user: %w", err)
	}
	return recordsToBookings(records), nil
}

// ListAll returns every booking, newest first. Admin path.
func (s *BookingService) ListAll(ctx context.Context) ([]models.Booking, error) {
	records, err := s.app.FindRecordsByFilter(
		collectionBookings,
		"id != ''",
		"-created",
		0,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return recordsToBookings(records), nil
}

// ListByStatus returns bookings in one status, newest first. Admin path.
func (s *BookingService) ListByStatus(ctx context.Context, st models.BookingStatus) ([]models.Booking, error) {
	records, err := s.app.FindRecordsByFilter(
		collectionBookings,
		"status = {:status}",
		"-created",
		0,
		0,
		dbx.Params{"status": string(st)},
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings by status: %w", err)
	}
	return recordsToBookings(records), nil
}

// Update merges the whitelisted patch fields into an existing record. There is
// no existence pre-check; a vanished record surfaces as ErrNotFound (last
// write observed wins).
func (s *BookingService) Update(ctx context.Context, id string, patch map[string]any) error {
	for field := range patch {
		if !updatableFields[field] {
			return status.Invalid(field, "field is not updatable")
		}
	}

	record, err := s.app.FindRecordById(collectionBookings, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update booking %s: %w", id, status.ErrNotFound)
		}
		return fmt.Errorf("update booking %s: %w", id, err)
	}

	for field, value := range patch {
		record.Set(field, value)
	}

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("update booking %s: %w", id, err)
	}
	return nil
}

// Delete removes the record. Repository primitive; only the admin surface
// calls it, the passenger flow cancels instead.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	record, err := s.app.FindRecordById(collectionBookings, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("delete booking %s: %w", id, status.ErrNotFound)
		}
		return fmt.Errorf("delete booking %s: %w", id, err)
	}
	if err := s.app.Delete(record); err != nil {
		return fmt.Errorf("delete booking %s: %w", id, err)
	}
	return nil
}

// Transition moves a booking to the next status. This is the only write path
// for the status field; illegal moves fail with ErrInvalidTransition.
func (s *BookingService) Transition(ctx context.Context, id string, next models.BookingStatus) (models.Booking, error) {
	record, err := s.app.FindRecordById(collectionBookings, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, fmt.Errorf("transition booking %s: %w", id, status.ErrNotFound)
		}
		return models.Booking{}, fmt.Errorf("transition booking %s: %w", id, err)
	}

	current := models.BookingStatus(record.GetString("status"))
	if err := checkTransition(current, next); err != nil {
		return models.Booking{}, err
	}

	record.Set("status", string(next))
	if err := s.app.Save(record); err != nil {
		return models.Booking{}, fmt.Errorf("transition booking %s: %w", id, err)
	}
	return recordToBooking(record), nil
}

// Cancel is the shared entry point for passenger and admin cancellation.
// Cancelling an already cancelled booking is a no-op.
func (s *BookingService) Cancel(ctx context.Context, id string) (models.Booking, error) {
	record, err := s.app.FindRecordById(collectionBookings, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, fmt.Errorf("cancel booking %s: %w", id, status.ErrNotFound)
		}
		return models.Booking{}, fmt.Errorf("cancel booking %s: %w", id, err)
	}

	if models.BookingStatus(record.GetString("status")) == models.BookingCancelled {
		return recordToBooking(record), nil
	}
	return s.Transition(ctx, id, models.BookingCancelled)
}

// CheckAvailability reports whether the half-open interval [start, end) is
// free of pending or confirmed bookings.
func (s *BookingService) CheckAvailability(ctx context.Context, start, end time.Time) (bool, error) {
	startDt, err := types.ParseDateTime(start)
	if err != nil {
		return false, fmt.Errorf("availability start: %w", err)
	}
	endDt, err := types.ParseDateTime(end)
	if err != nil {
		return false, fmt.Errorf("availability end: %w", err)
	}

	records, err := s.app.FindRecordsByFilter(
		collectionBookings,
		"(status = 'pending' || status = 'confirmed') && check_in < {:end} && check_out > {:start}",
		"",
		1,
		0,
		dbx.Params{"start": startDt.String(), "end": endDt.String()},
	)
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	return len(records) == 0, nil
}

func recordToBooking(r *core.Record) models.Booking {
	b := models.Booking{
		ID:              r.Id,
		Reference:       r.GetString("reference"),
		UserID:          r.GetString("user_id"),
		UserName:        r.GetString("user_name"),
		UserEmail:       r.GetString("user_email"),
		Kind:            models.BookingKind(r.GetString("kind")),
		Status:          models.BookingStatus(r.GetString("status")),
		TotalPrice:      r.GetFloat("total_price"),
		CheckIn:         r.GetDateTime("check_in").Time(),
		CheckOut:        r.GetDateTime("check_out").Time(),
		Nationality:     r.GetString("nationality"),
		Guests:          r.GetInt("guests"),
		SpecialRequests: r.GetString("special_requests"),
		CreatedAt:       r.GetDateTime("created").Time(),
		UpdatedAt:       r.GetDateTime("updated").Time(),
	}

	if b.Kind == models.KindFerry {
		var fd models.FerryDetails
		if err := r.UnmarshalJSONField("ferry_details", &fd); err == nil {
			b.Ferry = &fd
		}
	}

	return b
}

func recordsToBookings(records []*core.Record) []models.Booking {
	bookings := make([]models.Booking, 0, len(records))
	for _, r := range records {
		bookings = append(bookings, recordToBooking(r))
	}
	return bookings
}
