package agent

import (
	"fmt"
	"strings"

	"github.com/example/ride-agent/internal/models"
	"github.com/example/ride-agent/internal/route"
)

// AcceptPolicy decides whether the agent takes an offer. Zero values
// disable each cap, so the default policy accepts everything with a
// matching vehicle type.
type AcceptPolicy struct {
	VehicleType string
	MaxPickupKm float64
	MinFare     float64
}

// Evaluate returns the decision and, when declining, the reason.
func (p AcceptPolicy) Evaluate(offer models.TripOffer, from models.Coord) (bool, string) {
	if p.VehicleType != "" && offer.VehicleType != "" && !strings.EqualFold(p.VehicleType, offer.VehicleType) {
		return false, fmt.Sprintf("vehicle type %s, we run %s", offer.VehicleType, p.VehicleType)
	}
	if p.MinFare > 0 && offer.EstimatedFare < p.MinFare {
		return false, fmt.Sprintf("fare %.0f below minimum %.0f", offer.EstimatedFare, p.MinFare)
	}
	if p.MaxPickupKm > 0 {
		km := route.Haversine(from, offer.Pickup.Coord()) / 1000
		if km > p.MaxPickupKm {
			return false, fmt.Sprintf("pickup %.1fkm away, cap %.1fkm", km, p.MaxPickupKm)
		}
	}
	return true, ""
}
