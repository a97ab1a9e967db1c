// Package trip maintains the authoritative view of one booking by merging
// two independent update sources: realtime envelopes and a polling
// fallback. Realtime is applied on receipt; a poll result is applied only
// if it does not regress the status order. Either way the status moves
// through models.BookingStatus.CanAdvance, so the monotonicity invariant
// lives in exactly one place.
package trip

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/ride-agent/internal/models"
	"github.com/example/ride-agent/internal/observability"
)

// Fetcher re-fetches the booking by id.
type Fetcher interface {
	Get(ctx context.Context, id string) (*models.Booking, error)
}

// Config sets the polling cadence. The search interval applies while the
// booking is still looking for a driver; the track interval afterwards.
type Config struct {
	SearchInterval time.Duration
	TrackInterval  time.Duration
}

func (c Config) withDefaults() Config {
	if c.SearchInterval <= 0 {
		c.SearchInterval = 2 * time.Second
	}
	if c.TrackInterval <= 0 {
		c.TrackInterval = 15 * time.Second
	}
	return c
}

type Reconciler struct {
	fetcher   Fetcher
	logger    *slog.Logger
	cfg       Config
	bookingID string

	mu    sync.Mutex
	state models.Booking

	updates chan models.Booking
	refetch chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

// Start fetches the booking once (that failure is the only one surfaced to
// the caller) and begins polling. Polling ends at a terminal status or when
// Close is called.
func Start(ctx context.Context, fetcher Fetcher, bookingID string, cfg Config, logger *slog.Logger) (*Reconciler, error) {
	initial, err := fetcher.Get(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("initial booking fetch: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	r := &Reconciler{
		fetcher:   fetcher,
		logger:    logger,
		cfg:       cfg.withDefaults(),
		bookingID: bookingID,
		state:     normalize(*initial),
		updates:   make(chan models.Booking, 8),
		refetch:   make(chan struct{}, 1),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go r.run(ctx)
	return r, nil
}

// State returns the current merged view.
func (r *Reconciler) State() models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Updates emits the state after every applied change. The channel is never
// closed; watch Done to know when reconciliation has stopped.
func (r *Reconciler) Updates() <-chan models.Booking { return r.updates }

// Done is closed once polling has stopped, either because the booking
// reached a terminal status or because Close was called.
func (r *Reconciler) Done() <-chan struct{} { return r.done }

func (r *Reconciler) Close() {
	r.cancel()
	<-r.done
}

// ApplyEnvelope merges a realtime status event. Events for other bookings
// are ignored; a regressing status drops the whole event as stale. A status
// change additionally schedules a full re-fetch, because the envelope does
// not carry every booking field.
func (r *Reconciler) ApplyEnvelope(ev models.BookingStatusEvent) {
	if ev.BookingID != r.bookingID {
		return
	}
	next := models.ParseBookingStatus(ev.Status)

	r.mu.Lock()
	if next != "" && !r.state.Status.CanAdvance(next) {
		r.mu.Unlock()
		observability.ReconcileRejected.Inc()
		return
	}
	statusChanged := next != "" && next != r.state.Status
	if statusChanged {
		r.state.Status = next
	}
	if ev.DriverID != "" {
		r.state.DriverID = ev.DriverID
	}
	if ev.DriverLocation != nil {
		loc := *ev.DriverLocation
		r.state.DriverLocation = &loc
	}
	if ev.Price > 0 {
		r.state.Price = ev.Price
	}
	snap := r.state
	r.mu.Unlock()

	observability.ReconcileApplied.WithLabelValues("realtime").Inc()
	r.notify(snap)
	if statusChanged {
		select {
		case r.refetch <- struct{}{}:
		default:
		}
	}
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.done)
	for {
		if r.State().Status.Terminal() {
			return
		}
		timer := time.NewTimer(r.interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-r.refetch:
			timer.Stop()
		case <-timer.C:
		}
		if r.State().Status.Terminal() {
			return
		}

		observability.PollsTotal.Inc()
		b, err := r.fetcher.Get(ctx, r.bookingID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// keep the previous state; the next cycle retries
			r.logger.Warn("booking poll failed", "booking_id", r.bookingID, "error", err)
			continue
		}
		if snap, applied := r.applyPoll(*b); applied {
			r.notify(snap)
		}
	}
}

func (r *Reconciler) applyPoll(b models.Booking) (models.Booking, bool) {
	b = normalize(b)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.Status.CanAdvance(b.Status) {
		// a stale poll resolved late; drop it
		observability.ReconcileRejected.Inc()
		return models.Booking{}, false
	}
	changed := b.Status != r.state.Status ||
		(b.DriverID != "" && b.DriverID != r.state.DriverID) ||
		(b.Price != 0 && b.Price != r.state.Price) ||
		driverLocationChanged(r.state.DriverLocation, b.DriverLocation)

	prevLoc := r.state.DriverLocation
	r.state = b
	if b.DriverLocation == nil {
		// a poll without a position is not evidence the driver vanished
		r.state.DriverLocation = prevLoc
	}
	if !changed {
		return models.Booking{}, false
	}
	observability.ReconcileApplied.WithLabelValues("poll").Inc()
	return r.state, true
}

func (r *Reconciler) interval() time.Duration {
	if r.State().Status == models.StatusPending {
		return r.cfg.SearchInterval
	}
	return r.cfg.TrackInterval
}

func (r *Reconciler) notify(b models.Booking) {
	select {
	case r.updates <- b:
		return
	default:
	}
	// full buffer: shed the oldest update, the latest state wins
	select {
	case <-r.updates:
	default:
	}
	select {
	case r.updates <- b:
	default:
	}
}

func normalize(b models.Booking) models.Booking {
	b.Status = models.ParseBookingStatus(string(b.Status))
	return b
}

func driverLocationChanged(a, b *models.Coord) bool {
	if b == nil {
		return false
	}
	if a == nil {
		return true
	}
	return *a != *b
}
