package api

import (
	"context"

	"github.com/example/ride-agent/internal/models"
	"github.com/example/ride-agent/internal/transport"
)

type Drivers struct {
	t *transport.Client
}

func NewDrivers(t *transport.Client) *Drivers { return &Drivers{t: t} }

type DriverApplication struct {
	FullName      string         `json:"fullName"`
	LicenseNumber string         `json:"licenseNumber"`
	Vehicle       models.Vehicle `json:"vehicle"`
	Region        string         `json:"region,omitempty"`
}

func (d *Drivers) Apply(ctx context.Context, req DriverApplication) (*models.DriverProfile, error) {
	var out models.DriverProfile
	if err := d.t.Post(ctx, "/api/drivers/apply", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *Drivers) Me(ctx context.Context) (*models.DriverProfile, error) {
	var out models.DriverProfile
	if err := d.t.Get(ctx, "/api/drivers/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *Drivers) UpdateMe(ctx context.Context, p models.DriverProfile) (*models.DriverProfile, error) {
	var out models.DriverProfile
	if err := d.t.Put(ctx, "/api/drivers/me", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *Drivers) Vehicle(ctx context.Context) (*models.Vehicle, error) {
	var out models.Vehicle
	if err := d.t.Get(ctx, "/api/drivers/me/vehicle", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *Drivers) UpdateVehicle(ctx context.Context, v models.Vehicle) (*models.Vehicle, error) {
	var out models.Vehicle
	if err := d.t.Put(ctx, "/api/drivers/me/vehicle", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetOnline toggles driver availability.
func (d *Drivers) SetOnline(ctx context.Context, online bool) error {
	path := "/api/drivers/me/status/offline"
	if online {
		path = "/api/drivers/me/status/online"
	}
	return d.t.Patch(ctx, path, nil, nil)
}

func (d *Drivers) Rating(ctx context.Context, driverID string) (float64, error) {
	var out struct {
		Rating float64 `json:"rating"`
	}
	if err := d.t.Get(ctx, "/api/drivers/"+driverID+"/rating", &out); err != nil {
		return 0, err
	}
	return out.Rating, nil
}

func (d *Drivers) Get(ctx context.Context, driverID string) (*models.DriverProfile, error) {
	var out models.DriverProfile
	if err := d.t.Get(ctx, "/api/drivers/"+driverID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *Drivers) ByUser(ctx context.Context, userID string) (*models.DriverProfile, error) {
	var out models.DriverProfile
	if err := d.t.Get(ctx, "/api/drivers/user/"+userID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PendingOffers returns offers pushed while the client was away, so a
// restart does not lose them.
func (d *Drivers) PendingOffers(ctx context.Context) ([]models.TripOffer, error) {
	var out []models.TripOffer
	if err := d.t.Get(ctx, "/api/drivers/me/booking-offers", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RejectOffer is best-effort: the local decline stands even if this fails.
func (d *Drivers) RejectOffer(ctx context.Context, bookingID string) error {
	return d.t.Patch(ctx, "/api/drivers/me/booking-offers/"+bookingID+"/reject", nil, nil)
}
