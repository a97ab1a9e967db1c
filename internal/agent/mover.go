package agent

import (
	"sync"
	"time"

	"github.com/example/ride-agent/internal/models"
	"github.com/example/ride-agent/internal/route"
)

// arriveRadiusMeters is how close counts as "there" for pickup/dropoff.
const arriveRadiusMeters = 25

// Mover is the headless agent's stand-in for a GPS: a position that moves
// toward a target at a fixed speed when told to advance.
type Mover struct {
	mu       sync.Mutex
	pos      models.Coord
	speedMps float64
}

func NewMover(start models.Coord, speedMps float64) *Mover {
	if speedMps <= 0 {
		speedMps = 10 // ~36 km/h city speed
	}
	return &Mover{pos: start, speedMps: speedMps}
}

func (m *Mover) Position() models.Coord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

// Advance moves toward target for the elapsed duration and reports whether
// the mover is now within the arrival radius. Straight-line interpolation
// is plenty for a simulated drive.
func (m *Mover) Advance(target models.Coord, elapsed time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	dist := route.Haversine(m.pos, target)
	if dist <= arriveRadiusMeters {
		m.pos = target
		return true
	}
	step := m.speedMps * elapsed.Seconds()
	if step >= dist {
		m.pos = target
		return true
	}
	frac := step / dist
	m.pos.Lat += (target.Lat - m.pos.Lat) * frac
	m.pos.Lng += (target.Lng - m.pos.Lng) * frac
	return route.Haversine(m.pos, target) <= arriveRadiusMeters
}
