package monitoring

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"ferry-system/models"
	"ferry-system/services"
)

var (
	bookingsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bookings_by_status_total",
			Help: "Current number of bookings per lifecycle status",
		},
		[]string{"status"},
	)

	confirmedRevenue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "booking_revenue_total",
			Help: "Total price of confirmed and completed bookings",
		},
	)

	bookingOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_operations_total",
			Help: "Total booking operations",
		},
		[]string{"operation", "outcome"},
	)

	boardingPassScans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boarding_pass_scans_total",
			Help: "Total boarding pass scans",
		},
		[]string{"result"},
	)

	positionUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ferry_position_updates_total",
			Help: "Total ferry position samples processed",
		},
	)

	positionAge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ferry_position_age_seconds",
			Help: "Age of the last stored position per ferry",
		},
		[]string{"ferry_id"},
	)

	activeSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "booking_subscriptions_active",
			Help: "Currently attached live booking subscriptions",
		},
	)
)

type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}

	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.collectPositionAges(context.Background())
	}
}

func (m *Monitor) collectPositionAges(ctx context.Context) {
	if m.redis == nil {
		return
	}

	keys, _ := m.redis.Keys(ctx, "ferry:*").Result()
	for _, key := range keys {
		ferryID := key[len("ferry:"):]
		raw, err := m.redis.HGet(ctx, key, "updated_at").Result()
		if err != nil {
			continue
		}
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			continue
		}
		positionAge.WithLabelValues(ferryID).Set(time.Since(at).Seconds())
	}
}

// WatchBookings drives the status gauges from a live subscription so the
// dashboards track the store without polling it. Blocks until the context
// ends or the broker closes.
func (m *Monitor) WatchBookings(ctx context.Context, broker *services.Broker) error {
	sub, err := broker.Subscribe(ctx, services.SnapshotFilter{})
	if err != nil {
		return err
	}
	defer sub.Cancel()

	activeSubscriptions.Inc()
	defer activeSubscriptions.Dec()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snapshot, ok := <-sub.C:
			if !ok {
				return nil
			}
			applySnapshot(snapshot)
		}
	}
}

func applySnapshot(bookings []models.Booking) {
	counts := map[models.BookingStatus]int{
		models.BookingPending:   0,
		models.BookingConfirmed: 0,
		models.BookingCancelled: 0,
		models.BookingCompleted: 0,
	}
	revenue := decimal.Zero

	for _, b := range bookings {
		counts[b.Status]++
		if b.Status == models.BookingConfirmed || b.Status == models.BookingCompleted {
			revenue = revenue.Add(decimal.NewFromFloat(b.TotalPrice))
		}
	}

	for st, n := range counts {
		bookingsByStatus.WithLabelValues(string(st)).Set(float64(n))
	}
	confirmedRevenue.Set(revenue.InexactFloat64())
}

// TrackBookingOperation counts one repository operation and its outcome.
func (m *Monitor) TrackBookingOperation(operation, outcome string) {
	bookingOperations.WithLabelValues(operation, outcome).Inc()
}

// TrackBoardingPassScan counts one gate scan result.
func (m *Monitor) TrackBoardingPassScan(result string) {
	boardingPassScans.WithLabelValues(result).Inc()
}

// TrackPositionUpdate counts one processed telemetry sample.
func (m *Monitor) TrackPositionUpdate() {
	positionUpdates.Inc()
}

// LogSubscriptionDrop is a hook point for alerting on broker shutdowns.
func (m *Monitor) LogSubscriptionDrop(reason string) {
	log.Printf("Booking subscription dropped: %s", reason)
}
