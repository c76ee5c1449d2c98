package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ferry-system/config"
	"ferry-system/models"
)

func trackingConfig() *config.Config {
	return &config.Config{
		FerrySpeedKnots: 25,
		PositionUpdate:  time.Second,
	}
}

func TestTrackingService_SeedFleet(t *testing.T) {
	s := NewTrackingService(nil, nil, trackingConfig())

	fleet := s.Fleet()
	require.Len(t, fleet, 3)

	// Stable ordering by id.
	assert.Equal(t, "ferry1", fleet[0].ID)
	assert.Equal(t, "ferry2", fleet[1].ID)
	assert.Equal(t, "ferry3", fleet[2].ID)

	assert.Equal(t, models.FerryActive, fleet[0].Status)
	assert.Equal(t, models.FerryDocked, fleet[2].Status)

	// Active vessels carry an arrival estimate, docked ones do not.
	assert.NotEmpty(t, fleet[0].ETA)
	assert.Empty(t, fleet[2].ETA)
}

func TestTrackingService_StepMovesOnlyActiveFerries(t *testing.T) {
	s := NewTrackingService(nil, nil, trackingConfig())

	before := map[string]models.Ferry{}
	for _, f := range s.Fleet() {
		before[f.ID] = f
	}

	s.Step(context.Background())

	for _, f := range s.Fleet() {
		prev := before[f.ID]
		if f.Status == models.FerryActive {
			// Jitter is bounded to half the movement constant per axis.
			assert.InDelta(t, prev.Lat, f.Lat, 0.0001)
			assert.InDelta(t, prev.Lng, f.Lng, 0.0001)
			assert.GreaterOrEqual(t, f.Heading, 0.0)
			assert.Less(t, f.Heading, 360.0)
			assert.GreaterOrEqual(t, f.SpeedKnots, 0.0)
		} else {
			assert.Equal(t, prev.Lat, f.Lat)
			assert.Equal(t, prev.Lng, f.Lng)
			assert.Equal(t, prev.SpeedKnots, f.SpeedKnots)
		}
	}
}

func TestTrackingService_StorePosition(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewTrackingService(db, nil, trackingConfig())

	at := time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC)
	pos := models.FerryPosition{
		FerryID:    "ferry1",
		Lat:        5.1,
		Lng:        115.1,
		Heading:    45,
		SpeedKnots: 12,
		At:         at,
	}

	mock.ExpectHSet("ferry:ferry1",
		"lat", "5.1",
		"lng", "115.1",
		"heading", "45",
		"speed", "12",
		"updated_at", "2025-07-14T09:30:00Z",
	).SetVal(5)

	err := s.storePosition(context.Background(), pos)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackingService_LastPosition(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewTrackingService(db, nil, trackingConfig())

	mock.ExpectHGetAll("ferry:ferry2").SetVal(map[string]string{
		"lat":        "5.11",
		"lng":        "115.09",
		"heading":    "225",
		"speed":      "10",
		"updated_at": "2025-07-14T09:30:00Z",
	})

	pos, err := s.LastPosition(context.Background(), "ferry2")

	require.NoError(t, err)
	assert.Equal(t, "ferry2", pos.FerryID)
	assert.Equal(t, 5.11, pos.Lat)
	assert.Equal(t, 115.09, pos.Lng)
	assert.Equal(t, 225.0, pos.Heading)
	assert.Equal(t, 10.0, pos.SpeedKnots)
	assert.Equal(t, 2025, pos.At.Year())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackingService_LastPosition_Missing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewTrackingService(db, nil, trackingConfig())

	mock.ExpectHGetAll("ferry:ghost").SetVal(map[string]string{})

	_, err := s.LastPosition(context.Background(), "ghost")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no position stored")
}

func TestTrackingService_Estimate(t *testing.T) {
	s := NewTrackingService(nil, nil, trackingConfig())

	est := s.Estimate(SerasaPort, LabuanPort)

	assert.InDelta(t, 49.9, est.DistanceKm, 0.5)
	assert.Equal(t, "1h 5m", est.Formatted)
	assert.Equal(t, SerasaPort.Name, est.From.Name)
	assert.Equal(t, LabuanPort.Name, est.To.Name)
}

func TestTrackingService_RouteForBooking(t *testing.T) {
	s := NewTrackingService(nil, nil, trackingConfig())

	outbound := models.Booking{
		Kind:  models.KindFerry,
		Ferry: &models.FerryDetails{From: "Serasa Port", To: "Port Labuan"},
	}
	est, ok := s.RouteForBooking(outbound)
	require.True(t, ok)
	assert.Equal(t, SerasaPort.Name, est.From.Name)

	inbound := models.Booking{
		Kind:  models.KindFerry,
		Ferry: &models.FerryDetails{From: "Port Labuan", To: "Serasa Port"},
	}
	est, ok = s.RouteForBooking(inbound)
	require.True(t, ok)
	assert.Equal(t, LabuanPort.Name, est.From.Name)
}

func TestTrackingService_RouteForBooking_NoFerryDetails(t *testing.T) {
	s := NewTrackingService(nil, nil, trackingConfig())

	_, ok := s.RouteForBooking(models.Booking{Kind: models.KindLodging})
	assert.False(t, ok)
}

func TestTrackingService_FerryByID(t *testing.T) {
	s := NewTrackingService(nil, nil, trackingConfig())

	f, ok := s.FerryByID("ferry1")
	require.True(t, ok)
	assert.Equal(t, "SeaBird Express", f.Name)

	_, ok = s.FerryByID("ghost")
	assert.False(t, ok)
}

func TestTrackingService_Routes(t *testing.T) {
	s := NewTrackingService(nil, nil, trackingConfig())

	routes := s.Routes()
	require.Len(t, routes, 2)

	assert.Equal(t, "serasa-labuan", routes[0].ID)
	assert.Equal(t, "labuan-serasa", routes[1].ID)
	assert.Equal(t, "1h 5m", routes[0].Duration)
	require.Len(t, routes[0].Stops, 2)
	assert.Equal(t, SerasaPort.Name, routes[0].Stops[0].Name)
}

func TestTrackingService_ApplyPosition(t *testing.T) {
	s := NewTrackingService(nil, nil, trackingConfig())

	pos := models.FerryPosition{
		FerryID:    "ferry1",
		Lat:        5.2,
		Lng:        115.2,
		Heading:    400, // wraps to 40
		SpeedKnots: 18,
		At:         time.Now().UTC(),
	}

	require.NoError(t, s.ApplyPosition(context.Background(), pos))

	f, ok := s.FerryByID("ferry1")
	require.True(t, ok)
	assert.Equal(t, 5.2, f.Lat)
	assert.Equal(t, 115.2, f.Lng)
	assert.Equal(t, 40.0, f.Heading)
	assert.Equal(t, 18.0, f.SpeedKnots)
	assert.NotEmpty(t, f.ETA)
}

func TestTrackingService_ApplyPosition_UnknownVessel(t *testing.T) {
	s := NewTrackingService(nil, nil, trackingConfig())

	err := s.ApplyPosition(context.Background(), models.FerryPosition{FerryID: "ghost"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown vessel")
}

func TestNormalizeHeading(t *testing.T) {
	assert.Equal(t, 0.0, normalizeHeading(0))
	assert.Equal(t, 350.0, normalizeHeading(-10))
	assert.Equal(t, 5.0, normalizeHeading(365))
	assert.Equal(t, 0.0, normalizeHeading(360))
}
