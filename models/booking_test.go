package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ferry-system/internal/status"
)

func validFerryInput() *BookingInput {
	return &BookingInput{
		Kind:   KindFerry,
		Guests: 2,
		Ferry: &FerryDetails{
			From:       "Serasa Port",
			To:         "Port Labuan",
			TravelDate: "2025-07-14",
			TravelTime: "09:30",
			MainPassenger: Passenger{
				Name:         "Aisyah Rahman",
				IdentityCard: "01-123456",
				Phone:        "+6731112222",
			},
			Passengers: []Passenger{
				{Name: "Noor Rahman", IdentityCard: "01-654321", Phone: "+6733334444"},
			},
		},
	}
}

func validLodgingInput() *BookingInput {
	return &BookingInput{
		Kind:        KindLodging,
		CheckIn:     time.Date(2025, 7, 14, 14, 0, 0, 0, time.UTC),
		CheckOut:    time.Date(2025, 7, 16, 11, 0, 0, 0, time.UTC),
		Nationality: "Bruneian",
		Guests:      2,
	}
}

func TestBookingInput_ValidFerry(t *testing.T) {
	assert.NoError(t, validFerryInput().Validate())
}

func TestBookingInput_ValidLodging(t *testing.T) {
	assert.NoError(t, validLodgingInput().Validate())
}

func TestBookingInput_UnknownKind(t *testing.T) {
	in := validFerryInput()
	in.Kind = "cruise"

	err := in.Validate()
	assert.True(t, status.IsValidation(err))
}

func TestBookingInput_GuestBounds(t *testing.T) {
	for _, guests := range []int{0, -1, 11, 100} {
		in := validLodgingInput()
		in.Guests = guests

		err := in.Validate()
		assert.True(t, status.IsValidation(err), "guests=%d must be rejected", guests)
	}
}

func TestBookingInput_FerryRequiresDetails(t *testing.T) {
	in := validFerryInput()
	in.Ferry = nil

	assert.True(t, status.IsValidation(in.Validate()))
}

func TestBookingInput_FerrySameRoute(t *testing.T) {
	in := validFerryInput()
	in.Ferry.To = "serasa port"

	err := in.Validate()
	assert.True(t, status.IsValidation(err))
	assert.Contains(t, err.Error(), "must differ")
}

func TestBookingInput_FerryMissingTravelSlot(t *testing.T) {
	in := validFerryInput()
	in.Ferry.TravelTime = ""

	assert.True(t, status.IsValidation(in.Validate()))
}

func TestBookingInput_FerryPassengerCountMismatch(t *testing.T) {
	in := validFerryInput()
	in.Guests = 3 // list carries only one additional passenger

	err := in.Validate()
	assert.True(t, status.IsValidation(err))
	assert.Contains(t, err.Error(), "passenger list")
}

func TestBookingInput_FerryPassengerMissingFields(t *testing.T) {
	in := validFerryInput()
	in.Ferry.Passengers[0].IdentityCard = ""

	assert.True(t, status.IsValidation(in.Validate()))

	in = validFerryInput()
	in.Ferry.MainPassenger.Phone = ""
	assert.True(t, status.IsValidation(in.Validate()))
}

func TestBookingInput_LodgingDateOrdering(t *testing.T) {
	in := validLodgingInput()
	in.CheckOut = in.CheckIn

	err := in.Validate()
	assert.True(t, status.IsValidation(err))

	in = validLodgingInput()
	in.CheckOut = in.CheckIn.Add(-24 * time.Hour)
	assert.True(t, status.IsValidation(in.Validate()))
}

func TestBookingInput_LodgingRejectsFerryDetails(t *testing.T) {
	in := validLodgingInput()
	in.Ferry = &FerryDetails{From: "Serasa Port", To: "Port Labuan"}

	assert.True(t, status.IsValidation(in.Validate()))
}

func TestBookingStatus_Valid(t *testing.T) {
	for _, s := range []BookingStatus{BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted} {
		assert.True(t, s.Valid())
	}
	assert.False(t, BookingStatus("shipped").Valid())
	assert.False(t, BookingStatus("").Valid())
}
