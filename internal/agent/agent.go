// Package agent runs a headless driver: it keeps a realtime channel open,
// queues incoming trip offers, accepts the ones its policy likes and then
// drives the trip to completion against the booking API.
package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/example/ride-agent/internal/api"
	"github.com/example/ride-agent/internal/config"
	"github.com/example/ride-agent/internal/journal"
	"github.com/example/ride-agent/internal/models"
	"github.com/example/ride-agent/internal/observability"
	"github.com/example/ride-agent/internal/offers"
	"github.com/example/ride-agent/internal/realtime"
	"github.com/example/ride-agent/internal/route"
	"github.com/example/ride-agent/internal/transport"
	"github.com/example/ride-agent/internal/trip"
)

type Agent struct {
	cfg    config.AgentConfig
	logger *slog.Logger
	userID string

	bookings *api.Bookings
	drivers  *api.Drivers
	tracking *api.Tracking
	maps     *api.Maps
	journal  *journal.Recorder

	policy AcceptPolicy
	mover  *Mover

	driverID string

	mu    sync.Mutex
	queue *offers.Queue
	ch    *realtime.Channel
	trip  *tripRun
}

// New wires an agent from one authenticated transport. journal may be nil
// when no broker is configured.
func New(cfg config.AgentConfig, userID string, t *transport.Client, rec *journal.Recorder, logger *slog.Logger) *Agent {
	return &Agent{
		cfg:      cfg,
		logger:   logger,
		userID:   userID,
		bookings: api.NewBookings(t),
		drivers:  api.NewDrivers(t),
		tracking: api.NewTracking(t),
		maps:     api.NewMaps(t),
		journal:  rec,
		policy: AcceptPolicy{
			VehicleType: cfg.VehicleType,
			MaxPickupKm: cfg.MaxPickupKm,
			MinFare:     cfg.MinFare,
		},
		mover: NewMover(models.Coord{Lat: cfg.StartLat, Lng: cfg.StartLng}, cfg.SpeedMps),
	}
}

// Run blocks until ctx is canceled. The driver is marked online for the
// duration and offline again on the way out.
func (a *Agent) Run(ctx context.Context) error {
	prof, err := a.drivers.Me(ctx)
	if err != nil {
		return err
	}
	a.driverID = prof.ID
	a.logger.Info("driver profile loaded",
		"driver_id", prof.ID, "vehicle_type", prof.VehicleType, "rating", prof.Rating)

	queue := offers.NewQueue(a.bookings, a.drivers, a.driverID, a.logger,
		offers.WithDefaultCountdown(a.cfg.OfferCountdownSec))
	defer queue.Close()

	if err := a.drivers.SetOnline(ctx, true); err != nil {
		return err
	}
	defer func() {
		// the run context is usually already canceled here
		offCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.drivers.SetOnline(offCtx, false); err != nil {
			a.logger.Warn("failed to go offline", "error", err)
		}
	}()

	ch, err := realtime.Dial(ctx, a.cfg.WSURL, a.userID, a.logger,
		realtime.WithBackoff(a.cfg.ReconnectBackoff))
	if err != nil {
		return err
	}
	defer ch.Close()

	a.mu.Lock()
	a.queue = queue
	a.ch = ch
	a.mu.Unlock()

	// offers issued while we were offline are still pending server-side
	if pending, err := a.drivers.PendingOffers(ctx); err != nil {
		a.logger.Warn("could not list pending offers", "error", err)
	} else {
		for _, offer := range pending {
			queue.Enqueue(offer)
		}
	}

	go a.heartbeat(ctx)

	drive := time.NewTicker(time.Second)
	defer drive.Stop()

	for {
		select {
		case <-ctx.Done():
			a.closeTrip()
			return ctx.Err()
		case env, ok := <-ch.Envelopes():
			if !ok {
				a.closeTrip()
				return ctx.Err()
			}
			a.handleEnvelope(ctx, env)
		case offer := <-queue.Promoted():
			a.decide(ctx, offer)
		case d := <-queue.Expirations():
			a.logger.Info("offer expired unanswered", "booking_id", d.Offer.BookingID)
		case <-drive.C:
			a.tick(ctx)
		}
	}
}

func (a *Agent) handleEnvelope(ctx context.Context, env models.Envelope) {
	if a.journal != nil {
		a.journal.Envelope(a.userID, env)
	}
	switch env.Type {
	case models.EnvelopeDriverOffer:
		offer, err := env.DriverOffer()
		if err != nil {
			a.logger.Warn("bad offer payload", "error", err)
			return
		}
		a.mu.Lock()
		queue := a.queue
		a.mu.Unlock()
		if queue.Enqueue(offer) {
			a.logger.Info("offer queued",
				"booking_id", offer.BookingID, "fare", offer.EstimatedFare)
		}
	case models.EnvelopeBookingStatus:
		ev, err := env.BookingStatus()
		if err != nil {
			a.logger.Warn("bad status payload", "error", err)
			return
		}
		a.mu.Lock()
		t := a.trip
		a.mu.Unlock()
		if t != nil {
			t.rec.ApplyEnvelope(ev)
		}
	default:
		a.logger.Debug("unhandled envelope", "type", env.Type)
	}
}

// decide answers the newly promoted offer. With a trip already underway the
// offer is declined outright.
func (a *Agent) decide(ctx context.Context, offer models.TripOffer) {
	a.mu.Lock()
	queue, busy := a.queue, a.trip != nil
	a.mu.Unlock()

	if active, _, ok := queue.Active(); !ok || active.BookingID != offer.BookingID {
		// the countdown already resolved it
		return
	}

	ok, reason := a.policy.Evaluate(offer, a.mover.Position())
	if busy {
		ok, reason = false, "trip in progress"
	}
	if !ok {
		a.logger.Info("offer declined", "booking_id", offer.BookingID, "reason", reason)
		if _, err := queue.Decline(ctx); err != nil {
			a.logger.Warn("decline failed", "booking_id", offer.BookingID, "error", err)
		}
		return
	}

	d, err := queue.Accept(ctx)
	if err != nil {
		a.logger.Warn("accept failed", "booking_id", offer.BookingID, "error", err)
		return
	}
	switch d.Outcome {
	case offers.OutcomeAccepted:
		a.logger.Info("offer accepted", "booking_id", d.Offer.BookingID, "price", d.Booking.Price)
		a.startTrip(ctx, d.Offer, *d.Booking)
	case offers.OutcomeTaken:
		a.logger.Info("booking taken by another driver", "booking_id", d.Offer.BookingID)
	}
}

func (a *Agent) startTrip(ctx context.Context, offer models.TripOffer, b models.Booking) {
	rec, err := trip.Start(ctx, a.bookings, b.ID, trip.Config{
		SearchInterval: a.cfg.SearchPollInterval,
		TrackInterval:  a.cfg.TrackPollInterval,
	}, a.logger)
	if err != nil {
		a.logger.Error("could not start trip tracking", "booking_id", b.ID, "error", err)
		return
	}
	planner := route.NewPlanner(a.maps, a.cfg.RouteThresholdMeters, a.logger, nil)

	a.mu.Lock()
	a.trip = &tripRun{
		offer:      offer,
		rec:        rec,
		planner:    planner,
		started:    time.Now(),
		lastStatus: rec.State().Status,
	}
	a.mu.Unlock()
}

// tick advances the simulated vehicle and pushes the trip through its
// lifecycle calls. Runs once per second from the main loop.
func (a *Agent) tick(ctx context.Context) {
	a.mu.Lock()
	t := a.trip
	a.mu.Unlock()
	if t == nil {
		return
	}

	select {
	case <-t.rec.Done():
		a.finishTrip(t)
		return
	default:
	}

	for {
		select {
		case b := <-t.rec.Updates():
			if b.Status != t.lastStatus {
				a.logger.Info("trip status", "booking_id", b.ID,
					"from", t.lastStatus, "to", b.Status)
				if a.journal != nil {
					a.journal.Transition(b.ID, t.lastStatus, b.Status)
				}
				t.lastStatus = b.Status
			}
			continue
		default:
		}
		break
	}

	st := t.rec.State()
	pos := a.mover.Position()
	t.planner.Observe(ctx, st.Status, st.Pickup.Coord(), st.Dropoff.Coord(), &pos)

	switch st.Status {
	case models.StatusMatched:
		if arrived := a.mover.Advance(st.Pickup.Coord(), time.Second); arrived && !t.arrivedSent {
			if b, err := a.bookings.Arrived(ctx, st.ID); err != nil {
				a.logger.Warn("arrived call failed", "booking_id", st.ID, "error", err)
			} else {
				t.arrivedSent = true
				t.rec.ApplyEnvelope(statusEvent(b))
			}
		}
	case models.StatusDriverArrived:
		if !t.startSent {
			if b, err := a.bookings.Start(ctx, st.ID); err != nil {
				a.logger.Warn("start call failed", "booking_id", st.ID, "error", err)
			} else {
				t.startSent = true
				t.rec.ApplyEnvelope(statusEvent(b))
			}
		}
	case models.StatusInProgress:
		if arrived := a.mover.Advance(st.Dropoff.Coord(), time.Second); arrived && !t.completeSent {
			req := api.CompleteBookingRequest{
				ActualDistanceKm:      t.offer.EstimatedDistanceKm,
				ActualDurationMinutes: time.Since(t.started).Minutes(),
			}
			if r := t.planner.Current(); r != nil && r.DistanceKm > 0 {
				req.ActualDistanceKm = r.DistanceKm
			}
			if b, err := a.bookings.Complete(ctx, st.ID, req); err != nil {
				a.logger.Warn("complete call failed", "booking_id", st.ID, "error", err)
			} else {
				t.completeSent = true
				t.rec.ApplyEnvelope(statusEvent(b))
			}
		}
	}
}

func (a *Agent) finishTrip(t *tripRun) {
	st := t.rec.State()
	if st.Status != t.lastStatus {
		if a.journal != nil {
			a.journal.Transition(st.ID, t.lastStatus, st.Status)
		}
		t.lastStatus = st.Status
	}
	a.logger.Info("trip finished", "booking_id", st.ID, "status", st.Status, "price", st.Price)
	a.mu.Lock()
	a.trip = nil
	a.mu.Unlock()
}

func (a *Agent) closeTrip() {
	a.mu.Lock()
	t := a.trip
	a.trip = nil
	a.mu.Unlock()
	if t != nil {
		t.rec.Close()
	}
}

func (a *Agent) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.LocationPushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pos := a.mover.Position()
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := a.tracking.PushLocation(pctx, models.DriverPosition{
				DriverID: a.driverID,
				Lat:      pos.Lat,
				Lng:      pos.Lng,
				At:       time.Now().UTC(),
			})
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				a.logger.Warn("location push failed", "error", err)
				continue
			}
			observability.LocationPushes.Inc()
		}
	}
}

// Status is the payload for the debug server's /status endpoint.
type Status struct {
	DriverID       string            `json:"driverId"`
	Position       models.Coord      `json:"position"`
	Connected      bool              `json:"realtimeConnected"`
	ActiveOffer    *models.TripOffer `json:"activeOffer,omitempty"`
	OfferRemaining int               `json:"offerRemainingSeconds,omitempty"`
	QueuedOffers   int               `json:"queuedOffers"`
	Trip           *models.Booking   `json:"trip,omitempty"`
}

func (a *Agent) Status() any {
	a.mu.Lock()
	queue, ch, t := a.queue, a.ch, a.trip
	a.mu.Unlock()

	s := Status{DriverID: a.driverID, Position: a.mover.Position()}
	if ch != nil {
		s.Connected = ch.Connected()
	}
	if queue != nil {
		s.QueuedOffers = queue.Len()
		if offer, remaining, ok := queue.Active(); ok {
			s.ActiveOffer = &offer
			s.OfferRemaining = remaining
		}
	}
	if t != nil {
		b := t.rec.State()
		s.Trip = &b
	}
	return s
}

// tripRun bundles everything owned for the lifetime of one accepted trip.
type tripRun struct {
	offer      models.TripOffer
	rec        *trip.Reconciler
	planner    *route.Planner
	started    time.Time
	lastStatus models.BookingStatus

	arrivedSent  bool
	startSent    bool
	completeSent bool
}

func statusEvent(b *models.Booking) models.BookingStatusEvent {
	return models.BookingStatusEvent{
		BookingID: b.ID,
		Status:    string(b.Status),
		DriverID:  b.DriverID,
		Price:     b.Price,
	}
}
