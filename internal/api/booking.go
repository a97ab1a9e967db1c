package api

import (
	"context"

	"github.com/example/ride-agent/internal/models"
	"github.com/example/ride-agent/internal/transport"
)

type Bookings struct {
	t *transport.Client
}

func NewBookings(t *transport.Client) *Bookings { return &Bookings{t: t} }

type CreateBookingRequest struct {
	Pickup      models.Place `json:"pickup"`
	Dropoff     models.Place `json:"dropoff"`
	VehicleType string       `json:"vehicleType"`
	Region      string       `json:"region,omitempty"`
}

type CompleteBookingRequest struct {
	ActualDistanceKm      float64 `json:"actualDistanceKm"`
	ActualDurationMinutes float64 `json:"actualDurationMinutes"`
}

func (b *Bookings) Create(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	var out models.Booking
	if err := b.t.Post(ctx, "/api/booking", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Bookings) Get(ctx context.Context, id string) (*models.Booking, error) {
	var out models.Booking
	if err := b.t.Get(ctx, "/api/booking/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Bookings) Mine(ctx context.Context) ([]models.Booking, error) {
	var out []models.Booking
	if err := b.t.Get(ctx, "/api/booking/me", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Bookings) DriverMine(ctx context.Context) ([]models.Booking, error) {
	var out []models.Booking
	if err := b.t.Get(ctx, "/api/booking/driver/me", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DriverPending lists bookings still waiting for this driver's decision.
func (b *Bookings) DriverPending(ctx context.Context) ([]models.Booking, error) {
	var out []models.Booking
	if err := b.t.Get(ctx, "/api/booking/driver/pending", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Accept claims the booking for the calling driver. Acceptance races other
// drivers server-side; the returned booking's driverId says who won.
func (b *Bookings) Accept(ctx context.Context, id string) (*models.Booking, error) {
	var out models.Booking
	if err := b.t.Patch(ctx, "/api/booking/"+id+"/accept", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Bookings) Arrived(ctx context.Context, id string) (*models.Booking, error) {
	var out models.Booking
	if err := b.t.Patch(ctx, "/api/booking/"+id+"/arrived", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Bookings) Start(ctx context.Context, id string) (*models.Booking, error) {
	var out models.Booking
	if err := b.t.Patch(ctx, "/api/booking/"+id+"/start", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Bookings) Complete(ctx context.Context, id string, req CompleteBookingRequest) (*models.Booking, error) {
	var out models.Booking
	if err := b.t.Post(ctx, "/api/booking/"+id+"/complete", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Bookings) Cancel(ctx context.Context, id, reason string) (*models.Booking, error) {
	var out models.Booking
	body := map[string]string{"reason": reason}
	if err := b.t.Post(ctx, "/api/booking/"+id+"/cancel", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
