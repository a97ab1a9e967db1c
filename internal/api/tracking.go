package api

import (
	"context"

	"github.com/example/ride-agent/internal/models"
	"github.com/example/ride-agent/internal/transport"
)

type Tracking struct {
	t *transport.Client
}

func NewTracking(t *transport.Client) *Tracking { return &Tracking{t: t} }

// PushLocation reports the driver's position. Best-effort from the caller's
// point of view; a dropped update is overwritten by the next one.
func (tr *Tracking) PushLocation(ctx context.Context, pos models.DriverPosition) error {
	return tr.t.Post(ctx, "/api/tracking/location", pos, nil)
}

type NearbyRequest struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	RadiusKm float64 `json:"radiusKm,omitempty"`
}

func (tr *Tracking) Nearby(ctx context.Context, req NearbyRequest) ([]models.DriverPosition, error) {
	var out []models.DriverPosition
	if err := tr.t.Post(ctx, "/api/tracking/nearby", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (tr *Tracking) Driver(ctx context.Context, driverID string) (*models.DriverPosition, error) {
	var out models.DriverPosition
	if err := tr.t.Get(ctx, "/api/tracking/drivers/"+driverID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
