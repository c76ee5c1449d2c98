package services

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"ferry-system/internal/status"
	"ferry-system/models"
)

const passParts = 4

// BoardingPass is the decoded content of a scanned pass.
type BoardingPass struct {
	Reference  string `json:"reference"`
	Passenger  string `json:"passenger"`
	Route      string `json:"route"`
	TravelDate string `json:"travel_date"`
}

// EncodeBoardingPass renders the pass payload for a booking. Only confirmed
// ferry bookings board, so anything else is rejected up front.
func EncodeBoardingPass(b models.Booking) (string, error) {
	if b.Kind != models.KindFerry || b.Ferry == nil {
		return "", fmt.Errorf("%w: not a ferry booking", status.ErrInvalidPass)
	}
	if b.Status != models.BookingConfirmed {
		return "", fmt.Errorf("%w: booking is %s, not confirmed", status.ErrInvalidPass, b.Status)
	}
	if b.Reference == "" {
		return "", fmt.Errorf("%w: booking has no reference", status.ErrInvalidPass)
	}

	route := fmt.Sprintf("%s-%s", b.Ferry.From, b.Ferry.To)
	parts := []string{
		passField(b.Reference),
		passField(b.Ferry.MainPassenger.Name),
		passField(route),
		passField(b.Ferry.TravelDate),
	}
	return strings.Join(parts, "_"), nil
}

// passField keeps the underscore free for the payload separator.
func passField(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "_", "-")
}

// ParseBoardingPass decodes a scanned payload. The reference is the first
// segment; a malformed payload fails with ErrInvalidPass.
func ParseBoardingPass(payload string) (BoardingPass, error) {
	parts := strings.Split(payload, "_")
	if len(parts) != passParts {
		return BoardingPass{}, fmt.Errorf("%w: expected %d segments, got %d", status.ErrInvalidPass, passParts, len(parts))
	}
	for _, p := range parts {
		if p == "" {
			return BoardingPass{}, fmt.Errorf("%w: empty segment", status.ErrInvalidPass)
		}
	}

	return BoardingPass{
		Reference:  parts[0],
		Passenger:  parts[1],
		Route:      parts[2],
		TravelDate: parts[3],
	}, nil
}

// BoardingPassPNG renders the pass as a QR code image.
func BoardingPassPNG(b models.Booking, size int) ([]byte, error) {
	payload, err := EncodeBoardingPass(b)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 256
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode boarding pass qr: %w", err)
	}
	return png, nil
}
