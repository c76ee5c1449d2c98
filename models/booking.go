package models

import (
	"strings"
	"time"

	"ferry-system/internal/status"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// Terminal reports whether the status has no outgoing transitions.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

type BookingKind string

const (
	KindFerry   BookingKind = "ferry"
	KindLodging BookingKind = "lodging"
)

const (
	MinPassengers = 1
	MaxPassengers = 10
)

type Passenger struct {
	Name         string `json:"name"`
	IdentityCard string `json:"identity_card"`
	BirthDate    string `json:"birth_date"`
	HomePlace    string `json:"home_place"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

// FerryDetails is the variant payload carried by ferry bookings.
// Passengers holds the additional passengers; the main passenger is separate,
// so len(Passengers)+1 must equal the booking's Guests count.
type FerryDetails struct {
	From          string      `json:"from"`
	To            string      `json:"to"`
	TravelDate    string      `json:"travel_date"`
	TravelTime    string      `json:"travel_time"`
	MainPassenger Passenger   `json:"main_passenger"`
	Passengers    []Passenger `json:"passengers"`
}

// Booking is one persisted reservation. The record is a tagged union over two
// kinds sharing a common envelope: ferry trips carry Ferry details, lodging
// bookings use the check-in/check-out fields.
type Booking struct {
	ID              string        `json:"id"`
	Reference       string        `json:"reference"`
	UserID          string        `json:"user_id"`
	UserName        string        `json:"user_name"`
	UserEmail       string        `json:"user_email"`
	Kind            BookingKind   `json:"kind"`
	Status          BookingStatus `json:"status"`
	TotalPrice      float64       `json:"total_price"`
	CheckIn         time.Time     `json:"check_in"`
	CheckOut        time.Time     `json:"check_out"`
	Nationality     string        `json:"nationality,omitempty"`
	Guests          int           `json:"guests"`
	SpecialRequests string        `json:"special_requests,omitempty"`
	Ferry           *FerryDetails `json:"ferry_details,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// BookingInput is the draft a passenger submits. Identity, price, status and
// timestamps are stamped by the repository, never by the caller.
type BookingInput struct {
	Kind            BookingKind   `json:"kind"`
	CheckIn         time.Time     `json:"check_in"`
	CheckOut        time.Time     `json:"check_out"`
	Nationality     string        `json:"nationality"`
	Guests          int           `json:"guests"`
	SpecialRequests string        `json:"special_requests"`
	Ferry           *FerryDetails `json:"ferry_details"`
}

func (in *BookingInput) Validate() error {
	if in.Kind != KindFerry && in.Kind != KindLodging {
		return status.Invalid("kind", "must be ferry or lodging")
	}
	if in.Guests < MinPassengers || in.Guests > MaxPassengers {
		return status.Invalid("guests", "number of passengers must be between 1 and 10")
	}

	switch in.Kind {
	case KindFerry:
		return in.validateFerry()
	default:
		return in.validateLodging()
	}
}

func (in *BookingInput) validateFerry() error {
	fd := in.Ferry
	if fd == nil {
		return status.Invalid("ferry_details", "required for ferry bookings")
	}
	if fd.From == "" || fd.To == "" {
		return status.Invalid("route", "departure and destination are required")
	}
	if strings.EqualFold(fd.From, fd.To) {
		return status.Invalid("route", "departure and destination must differ")
	}
	if fd.TravelDate == "" || fd.TravelTime == "" {
		return status.Invalid("travel", "travel date and time are required")
	}
	if err := fd.MainPassenger.validate("main_passenger"); err != nil {
		return err
	}
	if len(fd.Passengers)+1 != in.Guests {
		return status.Invalid("passengers", "passenger list does not match guest count")
	}
	for _, p := range fd.Passengers {
		if err := p.validate("passengers"); err != nil {
			return err
		}
	}
	return nil
}

func (in *BookingInput) validateLodging() error {
	if in.Ferry != nil {
		return status.Invalid("ferry_details", "not allowed for lodging bookings")
	}
	if in.CheckIn.IsZero() || in.CheckOut.IsZero() {
		return status.Invalid("dates", "check-in and check-out are required")
	}
	if !in.CheckIn.Before(in.CheckOut) {
		return status.Invalid("dates", "check-in must be before check-out")
	}
	if in.Nationality == "" {
		return status.Invalid("nationality", "required")
	}
	return nil
}

func (p *Passenger) validate(field string) error {
	if p.Name == "" {
		return status.Invalid(field, "name is required")
	}
	if p.IdentityCard == "" {
		return status.Invalid(field, "identity card is required")
	}
	if p.Phone == "" {
		return status.Invalid(field, "phone is required")
	}
	return nil
}

// Session identifies the caller for repository writes. It replaces the
// original app's ambient global session storage.
type Session struct {
	UserID    string
	UserName  string
	UserEmail string
}
