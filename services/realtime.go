package services

import (
	"context"
	"log"
	"sync"

	"github.com/pocketbase/pocketbase/core"
	pubnub "github.com/pubnub/go"

	"ferry-system/config"
	"ferry-system/internal/status"
	"ferry-system/models"
	"ferry-system/utils"
)

// SnapshotFilter narrows a live subscription. The zero value watches every
// booking; setting UserID or Status restricts the snapshot accordingly.
type SnapshotFilter struct {
	UserID string
	Status models.BookingStatus
}

func (f SnapshotFilter) matches(b models.Booking) bool {
	if f.UserID != "" && b.UserID != f.UserID {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	return true
}

// Subscription is a live view over booking records. C carries full snapshots:
// the current initial state immediately, then a fresh snapshot after every
// change. Cancel detaches the subscription and closes C; calling it more than
// once is harmless.
type Subscription struct {
	C <-chan []models.Booking

	once   sync.Once
	cancel func()
}

func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

type subscriber struct {
	filter SnapshotFilter
	ch     chan []models.Booking
}

// Broker fans booking changes out to in-process subscribers and mirrors them
// to PubNub for mobile clients. Delivery is latest-wins: a slow consumer
// skips intermediate snapshots but always converges on the newest one.
type Broker struct {
	load    func(ctx context.Context, f SnapshotFilter) ([]models.Booking, error)
	pn      *pubnub.PubNub
	breaker *utils.CircuitBreaker
	bufSize int

	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	closed bool
}

// NewBroker builds a broker reading snapshots through the booking service.
// pn may be nil; the broker then skips the PubNub mirror.
func NewBroker(svc *BookingService, pn *pubnub.PubNub, cfg *config.Config) *Broker {
	bufSize := cfg.SnapshotBufferSize
	if bufSize < 1 {
		bufSize = 1
	}

	return &Broker{
		load: func(ctx context.Context, f SnapshotFilter) ([]models.Booking, error) {
			if f.UserID != "" {
				bookings, err := svc.ListForUser(ctx, f.UserID)
				if err != nil {
					return nil, err
				}
				return filterBookings(bookings, f), nil
			}
			if f.Status != "" {
				return svc.ListByStatus(ctx, f.Status)
			}
			return svc.ListAll(ctx)
		},
		pn:      pn,
		breaker: utils.NewCircuitBreaker("pubnub-bookings", utils.BreakerSettings{
			Timeout:      cfg.BreakerTimeout,
			FailureRatio: cfg.BreakerFailureRatio,
		}),
		bufSize: bufSize,
		subs:    make(map[int]*subscriber),
	}
}

func filterBookings(bookings []models.Booking, f SnapshotFilter) []models.Booking {
	out := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if f.matches(b) {
			out = append(out, b)
		}
	}
	return out
}

// Subscribe registers a live view and pushes the initial snapshot before
// returning, so the caller never observes an empty channel on a non-empty
// store.
func (br *Broker) Subscribe(ctx context.Context, filter SnapshotFilter) (*Subscription, error) {
	initial, err := br.load(ctx, filter)
	if err != nil {
		return nil, err
	}

	sub := &subscriber{
		filter: filter,
		ch:     make(chan []models.Booking, br.bufSize),
	}
	// Buffer the initial snapshot before the subscriber is visible to Notify.
	// The send cannot block (bufSize >= 1, nobody else holds the channel yet)
	// and a change fan-out racing the registration replaces it with a fresher
	// snapshot instead of queueing behind it.
	sub.ch <- initial

	br.mu.Lock()
	if br.closed {
		br.mu.Unlock()
		return nil, status.ErrSubscriptionClosed
	}
	id := br.nextID
	br.nextID++
	br.subs[id] = sub
	br.mu.Unlock()

	return &Subscription{
		C:      sub.ch,
		cancel: func() { br.unsubscribe(id) },
	}, nil
}

func (br *Broker) unsubscribe(id int) {
	br.mu.Lock()
	defer br.mu.Unlock()

	sub, ok := br.subs[id]
	if !ok {
		return
	}
	delete(br.subs, id)
	close(sub.ch)
}

// Notify recomputes each subscriber's snapshot and delivers it. Called from
// the record hooks after every booking write.
func (br *Broker) Notify(ctx context.Context) {
	br.mu.Lock()
	if br.closed {
		br.mu.Unlock()
		return
	}
	targets := make([]*subscriber, 0, len(br.subs))
	for _, sub := range br.subs {
		targets = append(targets, sub)
	}
	br.mu.Unlock()

	for _, sub := range targets {
		snapshot, err := br.load(ctx, sub.filter)
		if err != nil {
			log.Printf("Snapshot reload failed: %v", err)
			continue
		}
		deliver(sub.ch, snapshot)
	}
}

// deliver pushes latest-wins: when the buffer is full the stale snapshot is
// dropped in favor of the new one. Recovers the send-on-closed race with a
// concurrent Cancel instead of locking around every send.
func deliver(ch chan []models.Booking, snapshot []models.Booking) {
	defer func() { recover() }()

	for {
		select {
		case ch <- snapshot:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Close cancels every subscription and rejects new ones.
func (br *Broker) Close() {
	br.mu.Lock()
	defer br.mu.Unlock()

	if br.closed {
		return
	}
	br.closed = true
	for id, sub := range br.subs {
		delete(br.subs, id)
		close(sub.ch)
	}
}

// Bind attaches the broker to the store's record hooks so every create,
// update and delete of a booking triggers a fan-out and a PubNub mirror.
func (br *Broker) Bind(app core.App) {
	app.OnRecordAfterCreateSuccess(collectionBookings).BindFunc(func(e *core.RecordEvent) error {
		br.onChange(e, "booking-created")
		return e.Next()
	})
	app.OnRecordAfterUpdateSuccess(collectionBookings).BindFunc(func(e *core.RecordEvent) error {
		br.onChange(e, "booking-updated")
		return e.Next()
	})
	app.OnRecordAfterDeleteSuccess(collectionBookings).BindFunc(func(e *core.RecordEvent) error {
		br.onChange(e, "booking-deleted")
		return e.Next()
	})
}

func (br *Broker) onChange(e *core.RecordEvent, event string) {
	ctx := context.Background()
	br.Notify(ctx)
	br.publish(ctx, event, recordToBooking(e.Record))
}

// publish mirrors the change to PubNub on the shared bookings channel and the
// owner's private channel. Failures are absorbed by the circuit breaker so a
// PubNub outage never fails a booking write.
func (br *Broker) publish(ctx context.Context, event string, b models.Booking) {
	if br.pn == nil {
		return
	}

	message := map[string]any{
		"event":   event,
		"booking": b,
	}

	channels := []string{"admin-bookings"}
	if b.UserID != "" {
		channels = append(channels, "user-"+b.UserID)
	}

	for _, channel := range channels {
		ch := channel
		_, err := br.breaker.Execute(ctx, func() (interface{}, error) {
			_, _, err := br.pn.Publish().
				Channel(ch).
				Message(message).
				Execute()
			return nil, err
		})
		if err != nil {
			log.Printf("PubNub publish to %s failed: %v", ch, err)
		}
	}
}

// NewPubNubClient builds the fan-out client, or nil when keys are not
// configured (tests, local development).
func NewPubNubClient(cfg *config.Config) *pubnub.PubNub {
	if cfg.PubNubPublishKey == "" || cfg.PubNubSubscribeKey == "" {
		return nil
	}

	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	if cfg.PubNubSecretKey != "" {
		pnConfig.SecretKey = cfg.PubNubSecretKey
	}
	pnConfig.UUID = "ferry-system-server"

	return pubnub.NewPubNub(pnConfig)
}
