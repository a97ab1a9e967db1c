package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/example/ride-agent/internal/models"
	"github.com/example/ride-agent/internal/route"
	"github.com/example/ride-agent/internal/transport"
)

type Maps struct {
	t *transport.Client
}

func NewMaps(t *transport.Client) *Maps { return &Maps{t: t} }

func (m *Maps) Geocode(ctx context.Context, address string) (*models.Place, error) {
	var out models.Place
	path := "/api/map/geocode?address=" + url.QueryEscape(address)
	if err := m.t.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Maps) ReverseGeocode(ctx context.Context, c models.Coord) (*models.Place, error) {
	var out models.Place
	path := fmt.Sprintf("/api/map/reverse-geocode?lat=%f&lng=%f", c.Lat, c.Lng)
	if err := m.t.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Maps) SearchPlaces(ctx context.Context, query string) ([]models.Place, error) {
	var out []models.Place
	path := "/api/map/places/search?q=" + url.QueryEscape(query)
	if err := m.t.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type directionsRequest struct {
	Origin      models.Coord `json:"origin"`
	Destination models.Coord `json:"destination"`
	Profile     string       `json:"profile"`
}

type directionsResponse struct {
	DistanceKm      float64           `json:"distanceKm"`
	DurationMinutes float64           `json:"durationMinutes"`
	Geometry        []json.RawMessage `json:"geometry"`
}

// Directions fetches a polyline and normalizes its geometry, whatever point
// encoding the map service chose to answer with. Satisfies route.Directions.
func (m *Maps) Directions(ctx context.Context, req route.Request) (*route.Route, error) {
	body := directionsRequest{Origin: req.Origin, Destination: req.Destination, Profile: req.Profile}
	var out directionsResponse
	if err := m.t.Post(ctx, "/api/map/directions", body, &out); err != nil {
		return nil, err
	}
	points, err := route.NormalizePolyline(out.Geometry)
	if err != nil {
		return nil, fmt.Errorf("directions geometry: %w", err)
	}
	return &route.Route{
		Points:          points,
		DistanceKm:      out.DistanceKm,
		DurationMinutes: out.DurationMinutes,
	}, nil
}
