// Package offers buffers incoming trip offers and presents them to the
// driver one at a time with a countdown.
package offers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/example/ride-agent/internal/models"
	"github.com/example/ride-agent/internal/observability"
	"github.com/example/ride-agent/internal/transport"
)

type Outcome string

const (
	// OutcomeAccepted: the accept call returned our own driver identity.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeTaken: another driver claimed the booking first. A normal
	// result of the server-side race, not an error.
	OutcomeTaken    Outcome = "taken_by_another"
	OutcomeDeclined Outcome = "declined"
	OutcomeExpired  Outcome = "expired"
)

type Decision struct {
	Offer   models.TripOffer
	Outcome Outcome
	// Booking is set when the outcome is OutcomeAccepted.
	Booking *models.Booking
}

var ErrNoActiveOffer = errors.New("no active offer")

// BookingAcceptor claims a booking for this driver.
type BookingAcceptor interface {
	Accept(ctx context.Context, bookingID string) (*models.Booking, error)
}

// OfferRejecter tells the backend an offer was declined. Best-effort.
type OfferRejecter interface {
	RejectOffer(ctx context.Context, bookingID string) error
}

// Queue is a FIFO of trip offers with at most one active (displayed) offer.
// An offer whose bookingId is already queued, active or locally declined is
// dropped on arrival. The active offer ticks down from its timeLeftSeconds;
// reaching zero is an implicit decline. The countdown is owned here, not by
// whatever renders the offer.
type Queue struct {
	bookings BookingAcceptor
	drivers  OfferRejecter
	driverID string
	logger   *slog.Logger

	tick       time.Duration
	defaultSec int

	mu        sync.Mutex
	pending   []models.TripOffer
	queued    map[string]struct{}
	declined  map[string]struct{}
	active    *models.TripOffer
	remaining int
	stop      chan struct{}

	promoted    chan models.TripOffer
	expirations chan Decision
}

type QueueOption func(*Queue)

// WithTick shrinks the countdown tick for tests.
func WithTick(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.tick = d
		}
	}
}

func WithDefaultCountdown(seconds int) QueueOption {
	return func(q *Queue) {
		if seconds > 0 {
			q.defaultSec = seconds
		}
	}
}

func NewQueue(bookings BookingAcceptor, drivers OfferRejecter, driverID string, logger *slog.Logger, opts ...QueueOption) *Queue {
	q := &Queue{
		bookings:    bookings,
		drivers:     drivers,
		driverID:    driverID,
		logger:      logger,
		tick:        time.Second,
		defaultSec:  30,
		queued:      make(map[string]struct{}),
		declined:    make(map[string]struct{}),
		promoted:    make(chan models.TripOffer, 16),
		expirations: make(chan Decision, 16),
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Promoted emits each offer at the moment it becomes the active one.
func (q *Queue) Promoted() <-chan models.TripOffer { return q.promoted }

// Expirations emits decisions made by the countdown rather than the driver.
func (q *Queue) Expirations() <-chan Decision { return q.expirations }

// Enqueue appends the offer unless its bookingId is already queued, active
// or declined this session. Reports whether the offer was admitted.
func (q *Queue) Enqueue(offer models.TripOffer) bool {
	if offer.BookingID == "" {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, dup := q.queued[offer.BookingID]; dup {
		observability.OffersDuplicate.Inc()
		return false
	}
	if _, was := q.declined[offer.BookingID]; was {
		observability.OffersDuplicate.Inc()
		return false
	}
	q.queued[offer.BookingID] = struct{}{}
	q.pending = append(q.pending, offer)
	observability.OffersEnqueued.Inc()
	q.promoteLocked()
	return true
}

// Active returns the displayed offer and its remaining seconds.
func (q *Queue) Active() (models.TripOffer, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.active == nil {
		return models.TripOffer{}, 0, false
	}
	return *q.active, q.remaining, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) Declined(bookingID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.declined[bookingID]
	return ok
}

// Accept claims the active offer. A conflict, or a response naming another
// driver, resolves to OutcomeTaken. On any result the offer leaves the
// queue and the next one is promoted.
func (q *Queue) Accept(ctx context.Context) (Decision, error) {
	q.mu.Lock()
	if q.active == nil {
		q.mu.Unlock()
		return Decision{}, ErrNoActiveOffer
	}
	offer := *q.active
	q.stopCountdownLocked()
	q.mu.Unlock()

	booking, err := q.bookings.Accept(ctx, offer.BookingID)

	q.mu.Lock()
	q.clearActiveLocked()
	q.promoteLocked()
	q.mu.Unlock()

	switch {
	case transport.IsConflict(err):
		d := Decision{Offer: offer, Outcome: OutcomeTaken}
		observability.OfferOutcomes.WithLabelValues(string(OutcomeTaken)).Inc()
		return d, nil
	case err != nil:
		return Decision{Offer: offer}, err
	case booking.DriverID != q.driverID:
		d := Decision{Offer: offer, Outcome: OutcomeTaken}
		observability.OfferOutcomes.WithLabelValues(string(OutcomeTaken)).Inc()
		return d, nil
	}
	d := Decision{Offer: offer, Outcome: OutcomeAccepted, Booking: booking}
	observability.OfferOutcomes.WithLabelValues(string(OutcomeAccepted)).Inc()
	return d, nil
}

// Decline drops the active offer and remembers it for the session so a
// late duplicate envelope cannot resurface it.
func (q *Queue) Decline(ctx context.Context) (Decision, error) {
	q.mu.Lock()
	if q.active == nil {
		q.mu.Unlock()
		return Decision{}, ErrNoActiveOffer
	}
	offer := *q.active
	q.stopCountdownLocked()
	q.declined[offer.BookingID] = struct{}{}
	q.clearActiveLocked()
	q.promoteLocked()
	q.mu.Unlock()

	q.rejectBestEffort(ctx, offer.BookingID)
	observability.OfferOutcomes.WithLabelValues(string(OutcomeDeclined)).Inc()
	return Decision{Offer: offer, Outcome: OutcomeDeclined}, nil
}

// Close stops the active countdown. Pending offers are abandoned.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopCountdownLocked()
	q.active = nil
}

func (q *Queue) promoteLocked() {
	if q.active != nil || len(q.pending) == 0 {
		return
	}
	offer := q.pending[0]
	q.pending = q.pending[1:]
	q.active = &offer
	q.remaining = offer.TimeLeftSeconds
	if q.remaining <= 0 {
		q.remaining = q.defaultSec
	}
	stop := make(chan struct{})
	q.stop = stop
	go q.countdown(offer.BookingID, stop)
	select {
	case q.promoted <- offer:
	default:
		q.logger.Warn("promotion notification dropped", "booking_id", offer.BookingID)
	}
}

func (q *Queue) countdown(bookingID string, stop chan struct{}) {
	ticker := time.NewTicker(q.tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			q.mu.Lock()
			if q.active == nil || q.active.BookingID != bookingID {
				q.mu.Unlock()
				return
			}
			q.remaining--
			if q.remaining > 0 {
				q.mu.Unlock()
				continue
			}
			offer := *q.active
			q.stop = nil
			q.declined[bookingID] = struct{}{}
			q.clearActiveLocked()
			q.promoteLocked()
			q.mu.Unlock()

			q.rejectBestEffort(context.Background(), bookingID)
			observability.OfferOutcomes.WithLabelValues(string(OutcomeExpired)).Inc()
			d := Decision{Offer: offer, Outcome: OutcomeExpired}
			select {
			case q.expirations <- d:
			default:
				q.logger.Warn("expiration notification dropped", "booking_id", bookingID)
			}
			return
		}
	}
}

func (q *Queue) stopCountdownLocked() {
	if q.stop != nil {
		close(q.stop)
		q.stop = nil
	}
}

func (q *Queue) clearActiveLocked() {
	if q.active == nil {
		return
	}
	delete(q.queued, q.active.BookingID)
	q.active = nil
	q.remaining = 0
}

func (q *Queue) rejectBestEffort(ctx context.Context, bookingID string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := q.drivers.RejectOffer(ctx, bookingID); err != nil {
		// the local decline stands regardless
		q.logger.Warn("offer reject failed", "booking_id", bookingID, "error", err)
	}
}
