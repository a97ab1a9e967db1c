package route

import (
	"github.com/example/ride-agent/internal/models"
)

// DefaultThresholdMeters is how far the live position must move before a
// route is recomputed. Small jitters from the GPS should not trigger
// redundant directions calls.
const DefaultThresholdMeters = 10

const ProfileDriving = "driving"

// Request is the derived input for one directions call.
type Request struct {
	Origin      models.Coord
	Destination models.Coord
	Profile     string
}

// Route is a normalized polyline plus the backend's distance/duration.
type Route struct {
	// Points are [lng, lat] pairs, always in that order.
	Points          [][2]float64
	DistanceKm      float64
	DurationMinutes float64
}

// Derive decides which route the screen needs, as a pure function of the
// trip state and the live driver position:
//
//	PENDING       pickup -> dropoff (static, fetched once)
//	MATCHED       live -> pickup (nil until a live position exists)
//	IN_PROGRESS   live -> dropoff, falling back to pickup -> dropoff
//	anything else nil: keep the last route, or none
func Derive(status models.BookingStatus, pickup, dropoff models.Coord, live *models.Coord) *Request {
	switch status {
	case models.StatusPending:
		return &Request{Origin: pickup, Destination: dropoff, Profile: ProfileDriving}
	case models.StatusMatched, models.StatusDriverArrived:
		if live == nil {
			return nil
		}
		return &Request{Origin: *live, Destination: pickup, Profile: ProfileDriving}
	case models.StatusInProgress:
		if live == nil {
			return &Request{Origin: pickup, Destination: dropoff, Profile: ProfileDriving}
		}
		return &Request{Origin: *live, Destination: dropoff, Profile: ProfileDriving}
	}
	return nil
}

// Supersedes reports whether next is different enough from prev to justify
// a new directions call. A changed destination or profile always does; an
// origin move below threshold meters does not.
func Supersedes(prev *Request, next Request, threshold float64) bool {
	if prev == nil {
		return true
	}
	if prev.Destination != next.Destination || prev.Profile != next.Profile {
		return true
	}
	return Haversine(prev.Origin, next.Origin) >= threshold
}
