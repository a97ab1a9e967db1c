package agent

import (
	"strings"
	"testing"

	"github.com/example/ride-agent/internal/models"
)

func TestAcceptPolicyEvaluate(t *testing.T) {
	here := models.Coord{Lat: 10.7769, Lng: 106.7009}
	near := models.Place{Lat: 10.7800, Lng: 106.7009}  // ~350m north
	far := models.Place{Lat: 10.8700, Lng: 106.7009}   // ~10km north

	tests := []struct {
		name   string
		policy AcceptPolicy
		offer  models.TripOffer
		want   bool
		reason string
	}{
		{
			name:   "zero policy accepts everything",
			policy: AcceptPolicy{},
			offer:  models.TripOffer{VehicleType: "BIKE", EstimatedFare: 1, Pickup: far},
			want:   true,
		},
		{
			name:   "vehicle type mismatch",
			policy: AcceptPolicy{VehicleType: "CAR"},
			offer:  models.TripOffer{VehicleType: "BIKE", Pickup: near},
			want:   false,
			reason: "vehicle type",
		},
		{
			name:   "vehicle type case insensitive",
			policy: AcceptPolicy{VehicleType: "CAR"},
			offer:  models.TripOffer{VehicleType: "car", Pickup: near},
			want:   true,
		},
		{
			name:   "offer without vehicle type passes the type check",
			policy: AcceptPolicy{VehicleType: "CAR"},
			offer:  models.TripOffer{Pickup: near},
			want:   true,
		},
		{
			name:   "fare below minimum",
			policy: AcceptPolicy{MinFare: 50000},
			offer:  models.TripOffer{EstimatedFare: 30000, Pickup: near},
			want:   false,
			reason: "below minimum",
		},
		{
			name:   "pickup beyond cap",
			policy: AcceptPolicy{MaxPickupKm: 5},
			offer:  models.TripOffer{Pickup: far},
			want:   false,
			reason: "pickup",
		},
		{
			name:   "pickup within cap",
			policy: AcceptPolicy{MaxPickupKm: 5},
			offer:  models.TripOffer{Pickup: near},
			want:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := tt.policy.Evaluate(tt.offer, here)
			if got != tt.want {
				t.Fatalf("Evaluate() = %v (%q), want %v", got, reason, tt.want)
			}
			if !tt.want && !strings.Contains(reason, tt.reason) {
				t.Errorf("reason %q does not mention %q", reason, tt.reason)
			}
			if tt.want && reason != "" {
				t.Errorf("accepting decision carries reason %q", reason)
			}
		})
	}
}
