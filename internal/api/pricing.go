package api

import (
	"context"
	"time"

	"github.com/example/ride-agent/internal/transport"
)

// pricingTimeout caps fare-estimate calls independently of the transport
// default; a slow estimate should not stall the booking form for long.
const pricingTimeout = 10 * time.Second

type Pricing struct {
	t *transport.Client
}

func NewPricing(t *transport.Client) *Pricing { return &Pricing{t: t} }

type EstimateRequest struct {
	VehicleType    string  `json:"vehicleType"`
	DistanceKm     float64 `json:"distanceKm"`
	DurationMinute float64 `json:"durationMinute"`
	Region         string  `json:"region"`
}

type EstimateResponse struct {
	EstimatedFare float64 `json:"estimatedFare"`
}

func (p *Pricing) Estimate(ctx context.Context, req EstimateRequest) (*EstimateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, pricingTimeout)
	defer cancel()
	var out EstimateResponse
	if err := p.t.Post(ctx, "/api/pricing/estimate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
