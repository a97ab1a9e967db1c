package route

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/ride-agent/internal/models"
	"github.com/example/ride-agent/internal/observability"
)

// Directions issues one route lookup against the map service.
type Directions interface {
	Directions(ctx context.Context, req Request) (*Route, error)
}

// Planner owns route fetching for one trip screen. Every observed trip
// state is derived into a Request; requests that do not supersede the last
// issued one (origin moved less than the threshold, same endpoints) are
// skipped. Each issued fetch carries a monotonic generation; a response
// whose generation is no longer current is discarded, so a slow early
// request can never overwrite a faster later one.
type Planner struct {
	mu         sync.Mutex
	directions Directions
	logger     *slog.Logger
	threshold  float64

	gen     uint64
	issued  *Request
	current *Route
	onRoute func(Route)
}

func NewPlanner(d Directions, threshold float64, logger *slog.Logger, onRoute func(Route)) *Planner {
	if threshold <= 0 {
		threshold = DefaultThresholdMeters
	}
	return &Planner{directions: d, logger: logger, threshold: threshold, onRoute: onRoute}
}

// Observe feeds the planner the current trip state. It returns true when a
// fetch was issued.
func (p *Planner) Observe(ctx context.Context, status models.BookingStatus, pickup, dropoff models.Coord, live *models.Coord) bool {
	req := Derive(status, pickup, dropoff, live)
	if req == nil {
		return false
	}

	p.mu.Lock()
	if !Supersedes(p.issued, *req, p.threshold) {
		p.mu.Unlock()
		return false
	}
	p.gen++
	gen := p.gen
	p.issued = req
	p.mu.Unlock()

	observability.RouteFetches.Inc()
	go p.fetch(ctx, gen, *req)
	return true
}

func (p *Planner) fetch(ctx context.Context, gen uint64, req Request) {
	r, err := p.directions.Directions(ctx, req)
	if err != nil {
		// keep the previous polyline; route refresh failures never
		// interrupt the trip
		observability.RouteFetchErrors.Inc()
		p.logger.Warn("route fetch failed", "error", err)
		return
	}

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		observability.RouteStaleDrops.Inc()
		return
	}
	p.current = r
	cb := p.onRoute
	p.mu.Unlock()

	if cb != nil {
		cb(*r)
	}
}

// Current returns the last applied route, or nil before the first fetch
// completes.
func (p *Planner) Current() *Route {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}
