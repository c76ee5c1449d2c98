package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"

	"ferry-system/config"
	"ferry-system/geo"
	"ferry-system/models"
	"ferry-system/utils"
)

// The Serasa-Labuan crossing. Terminal coordinates come from the port
// authorities' published positions.
var (
	SerasaPort = models.Port{
		Name:    "Serasa Port",
		Country: "Brunei Darussalam",
		Lat:     4.9456,
		Lng:     114.9378,
	}

	LabuanPort = models.Port{
		Name:    "Port Labuan",
		Country: "Malaysia",
		Lat:     5.2767,
		Lng:     115.2417,
	}
)

const ferryPositionsChannel = "ferry-positions"

// TrackingService owns the live ferry fleet: it advances positions on a
// ticker, persists them to Redis and mirrors them to PubNub for the map
// screens.
type TrackingService struct {
	Redis   *redis.Client
	pubnub  *pubnub.PubNub
	config  *config.Config
	breaker *utils.CircuitBreaker
	rnd     *rand.Rand

	mu    sync.RWMutex
	fleet map[string]*models.Ferry
}

func NewTrackingService(redisClient *redis.Client, pn *pubnub.PubNub, cfg *config.Config) *TrackingService {
	s := &TrackingService{
		Redis:   redisClient,
		pubnub:  pn,
		config:  cfg,
		breaker: utils.NewCircuitBreaker("pubnub-positions", utils.BreakerSettings{
			Timeout:      cfg.BreakerTimeout,
			FailureRatio: cfg.BreakerFailureRatio,
		}),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		fleet:   make(map[string]*models.Ferry),
	}
	s.seedFleet()
	return s
}

// seedFleet places the vessels on the crossing. Two active ferries mid-route
// in opposite directions, one docked at Labuan.
func (s *TrackingService) seedFleet() {
	ferries := []*models.Ferry{
		{
			ID:                "ferry1",
			Name:              "SeaBird Express",
			Lat:               SerasaPort.Lat,
			Lng:               SerasaPort.Lng,
			Heading:           45,
			SpeedKnots:        12,
			Capacity:          150,
			CurrentPassengers: 87,
			Route:             "Serasa - Labuan Express",
			Status:            models.FerryActive,
			NextStop:          LabuanPort.Name,
		},
		{
			ID:                "ferry2",
			Name:              "Ocean Wave",
			Lat:               (SerasaPort.Lat + LabuanPort.Lat) / 2,
			Lng:               (SerasaPort.Lng + LabuanPort.Lng) / 2,
			Heading:           225,
			SpeedKnots:        10,
			Capacity:          120,
			CurrentPassengers: 45,
			Route:             "Serasa - Labuan Express",
			Status:            models.FerryActive,
			NextStop:          SerasaPort.Name,
		},
		{
			ID:                "ferry3",
			Name:              "Blue Current",
			Lat:               LabuanPort.Lat,
			Lng:               LabuanPort.Lng,
			Heading:           0,
			SpeedKnots:        0,
			Capacity:          200,
			CurrentPassengers: 0,
			Route:             "Serasa - Labuan Express",
			Status:            models.FerryDocked,
			NextStop:          SerasaPort.Name,
		},
	}

	for _, f := range ferries {
		s.refreshETA(f)
		s.fleet[f.ID] = f
	}
}

// Run advances the simulation until the context is cancelled.
func (s *TrackingService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.PositionUpdate)
	defer ticker.Stop()

	log.Printf("Ferry tracking started, updating every %s", s.config.PositionUpdate)

	for {
		select {
		case <-ctx.Done():
			log.Println("Ferry tracking stopped")
			return
		case <-ticker.C:
			s.Step(ctx)
		}
	}
}

// Step perturbs every active ferry's position and publishes the result.
// Docked and maintenance vessels do not move.
func (s *TrackingService) Step(ctx context.Context) {
	s.mu.Lock()
	moved := make([]models.Ferry, 0, len(s.fleet))
	for _, f := range s.fleet {
		if f.Status != models.FerryActive {
			continue
		}

		const movement = 0.0001
		f.Lat += (s.rnd.Float64() - 0.5) * movement
		f.Lng += (s.rnd.Float64() - 0.5) * movement
		f.Heading = normalizeHeading(f.Heading + (s.rnd.Float64()-0.5)*10)
		f.SpeedKnots += (s.rnd.Float64() - 0.5) * 2
		if f.SpeedKnots < 0 {
			f.SpeedKnots = 0
		}
		s.refreshETA(f)

		moved = append(moved, *f)
	}
	s.mu.Unlock()

	for _, f := range moved {
		pos := models.FerryPosition{
			FerryID:    f.ID,
			Lat:        f.Lat,
			Lng:        f.Lng,
			Heading:    f.Heading,
			SpeedKnots: f.SpeedKnots,
			At:         time.Now().UTC(),
		}

		if err := s.storePosition(ctx, pos); err != nil {
			log.Printf("Store position for %s failed: %v", f.ID, err)
		}
		s.publishPosition(ctx, f, pos)
	}
}

// refreshETA recomputes the vessel's arrival estimate from its distance to
// the next stop. Holds no lock; callers do.
func (s *TrackingService) refreshETA(f *models.Ferry) {
	stop, ok := portByName(f.NextStop)
	if !ok || f.SpeedKnots <= 0 {
		f.ETA = ""
		return
	}

	d := geo.DistanceKm(
		geo.LatLng{Lat: f.Lat, Lng: f.Lng},
		geo.LatLng{Lat: stop.Lat, Lng: stop.Lng},
	)
	f.ETA = geo.FormatDuration(geo.TravelTime(d, f.SpeedKnots))
}

func normalizeHeading(h float64) float64 {
	for h < 0 {
		h += 360
	}
	for h >= 360 {
		h -= 360
	}
	return h
}

func portByName(name string) (models.Port, bool) {
	switch name {
	case SerasaPort.Name:
		return SerasaPort, true
	case LabuanPort.Name:
		return LabuanPort, true
	}
	return models.Port{}, false
}

// storePosition writes the latest position to the ferry's Redis hash.
func (s *TrackingService) storePosition(ctx context.Context, pos models.FerryPosition) error {
	if s.Redis == nil {
		return nil
	}

	key := fmt.Sprintf("ferry:%s", pos.FerryID)
	return s.Redis.HSet(ctx, key,
		"lat", strconv.FormatFloat(pos.Lat, 'f', -1, 64),
		"lng", strconv.FormatFloat(pos.Lng, 'f', -1, 64),
		"heading", strconv.FormatFloat(pos.Heading, 'f', -1, 64),
		"speed", strconv.FormatFloat(pos.SpeedKnots, 'f', -1, 64),
		"updated_at", pos.At.Format(time.RFC3339),
	).Err()
}

// LastPosition reads the ferry's last persisted position back from Redis.
func (s *TrackingService) LastPosition(ctx context.Context, ferryID string) (models.FerryPosition, error) {
	key := fmt.Sprintf("ferry:%s", ferryID)
	fields, err := s.Redis.HGetAll(ctx, key).Result()
	if err != nil {
		return models.FerryPosition{}, fmt.Errorf("load position for %s: %w", ferryID, err)
	}
	if len(fields) == 0 {
		return models.FerryPosition{}, fmt.Errorf("no position stored for %s", ferryID)
	}

	pos := models.FerryPosition{FerryID: ferryID}
	pos.Lat, _ = strconv.ParseFloat(fields["lat"], 64)
	pos.Lng, _ = strconv.ParseFloat(fields["lng"], 64)
	pos.Heading, _ = strconv.ParseFloat(fields["heading"], 64)
	pos.SpeedKnots, _ = strconv.ParseFloat(fields["speed"], 64)
	pos.At, _ = time.Parse(time.RFC3339, fields["updated_at"])
	return pos, nil
}

func (s *TrackingService) publishPosition(ctx context.Context, f models.Ferry, pos models.FerryPosition) {
	if s.pubnub == nil {
		return
	}

	_, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		_, _, err := s.pubnub.Publish().
			Channel(ferryPositionsChannel).
			Message(map[string]any{
				"type":     "ferry_position",
				"ferry_id": f.ID,
				"name":     f.Name,
				"status":   string(f.Status),
				"position": pos,
				"eta":      f.ETA,
			}).
			Execute()
		return nil, err
	})
	if err != nil {
		log.Printf("PubNub position publish failed: %v", err)
	}
}

// ApplyPosition overrides a vessel's simulated state with a telemetry sample
// from the external feed and persists it. Samples for unknown vessels are
// rejected so a misconfigured feed cannot grow the fleet.
func (s *TrackingService) ApplyPosition(ctx context.Context, pos models.FerryPosition) error {
	s.mu.Lock()
	f, ok := s.fleet[pos.FerryID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("unknown vessel %q", pos.FerryID)
	}

	f.Lat = pos.Lat
	f.Lng = pos.Lng
	f.Heading = normalizeHeading(pos.Heading)
	f.SpeedKnots = pos.SpeedKnots
	if f.SpeedKnots < 0 {
		f.SpeedKnots = 0
	}
	s.refreshETA(f)
	snapshot := *f
	s.mu.Unlock()

	if err := s.storePosition(ctx, pos); err != nil {
		return err
	}
	s.publishPosition(ctx, snapshot, pos)
	return nil
}

// Fleet returns a stable-ordered snapshot of every vessel.
func (s *TrackingService) Fleet() []models.Ferry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Ferry, 0, len(s.fleet))
	for _, f := range s.fleet {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FerryByID returns one vessel's current state.
func (s *TrackingService) FerryByID(id string) (models.Ferry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.fleet[id]
	if !ok {
		return models.Ferry{}, false
	}
	return *f, true
}

// RouteEstimate summarizes the crossing between two ports at the scheduled
// service speed.
type RouteEstimate struct {
	From       models.Port   `json:"from"`
	To         models.Port   `json:"to"`
	DistanceKm float64       `json:"distance_km"`
	Duration   time.Duration `json:"-"`
	Formatted  string        `json:"duration"`
}

// Estimate computes distance and crossing time between two ports at the
// configured cruise speed.
func (s *TrackingService) Estimate(from, to models.Port) RouteEstimate {
	d := geo.DistanceKm(
		geo.LatLng{Lat: from.Lat, Lng: from.Lng},
		geo.LatLng{Lat: to.Lat, Lng: to.Lng},
	)
	dur := geo.TravelTime(d, s.config.FerrySpeedKnots)

	return RouteEstimate{
		From:       from,
		To:         to,
		DistanceKm: d,
		Duration:   dur,
		Formatted:  geo.FormatDuration(dur),
	}
}

// RouteForBooking orients the crossing from the booking's ferry details:
// anything departing Serasa runs toward Labuan, everything else the reverse.
func (s *TrackingService) RouteForBooking(b models.Booking) (RouteEstimate, bool) {
	if b.Ferry == nil {
		return RouteEstimate{}, false
	}

	if strings.Contains(strings.ToLower(b.Ferry.From), "serasa") {
		return s.Estimate(SerasaPort, LabuanPort), true
	}
	return s.Estimate(LabuanPort, SerasaPort), true
}

// Routes lists the published crossings for the map overlay.
func (s *TrackingService) Routes() []models.FerryRoute {
	outbound := s.Estimate(SerasaPort, LabuanPort)

	return []models.FerryRoute{
		{
			ID:   "serasa-labuan",
			Name: "Serasa - Labuan Express",
			Coordinates: [][2]float64{
				{SerasaPort.Lat, SerasaPort.Lng},
				{LabuanPort.Lat, LabuanPort.Lng},
			},
			Stops:    []models.Port{SerasaPort, LabuanPort},
			Duration: outbound.Formatted,
			Color:    "#3498db",
		},
		{
			ID:   "labuan-serasa",
			Name: "Labuan - Serasa Express",
			Coordinates: [][2]float64{
				{LabuanPort.Lat, LabuanPort.Lng},
				{SerasaPort.Lat, SerasaPort.Lng},
			},
			Stops:    []models.Port{LabuanPort, SerasaPort},
			Duration: outbound.Formatted,
			Color:    "#e74c3c",
		},
	}
}
