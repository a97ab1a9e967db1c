package route

import (
	"testing"

	"github.com/example/ride-agent/internal/models"
)

var (
	pickup  = models.Coord{Lat: 10.776, Lng: 106.7}
	dropoff = models.Coord{Lat: 10.8, Lng: 106.72}
)

func TestDerive(t *testing.T) {
	live := &models.Coord{Lat: 10.77, Lng: 106.69}

	tests := []struct {
		name     string
		status   models.BookingStatus
		live     *models.Coord
		wantFrom *models.Coord
		wantTo   *models.Coord
	}{
		{"pending is static pickup->dropoff", models.StatusPending, live, &pickup, &dropoff},
		{"matched routes live->pickup", models.StatusMatched, live, live, &pickup},
		{"matched without live yields nothing", models.StatusMatched, nil, nil, nil},
		{"arrived keeps live->pickup", models.StatusDriverArrived, live, live, &pickup},
		{"in progress routes live->dropoff", models.StatusInProgress, live, live, &dropoff},
		{"in progress without live falls back", models.StatusInProgress, nil, &pickup, &dropoff},
		{"completed derives nothing", models.StatusCompleted, live, nil, nil},
		{"canceled derives nothing", models.StatusCanceled, live, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Derive(tt.status, pickup, dropoff, tt.live)
			if tt.wantFrom == nil {
				if req != nil {
					t.Fatalf("got %+v, want nil", req)
				}
				return
			}
			if req == nil {
				t.Fatal("got nil request")
			}
			if req.Origin != *tt.wantFrom || req.Destination != *tt.wantTo {
				t.Fatalf("got %+v -> %+v, want %+v -> %+v", req.Origin, req.Destination, *tt.wantFrom, *tt.wantTo)
			}
		})
	}
}

func TestSupersedesThreshold(t *testing.T) {
	base := Request{Origin: models.Coord{Lat: 10.776, Lng: 106.7}, Destination: dropoff, Profile: ProfileDriving}

	// ~5m north: one degree of latitude is ~111km
	near := base
	near.Origin.Lat += 5.0 / 111000
	if Supersedes(&base, near, 10) {
		t.Error("a <10m move should not supersede")
	}

	// ~20m north
	far := base
	far.Origin.Lat += 20.0 / 111000
	if !Supersedes(&base, far, 10) {
		t.Error("a >=10m move should supersede")
	}

	// destination change always supersedes, regardless of origin
	swapped := base
	swapped.Destination = pickup
	if !Supersedes(&base, swapped, 10) {
		t.Error("a destination change should supersede")
	}

	if !Supersedes(nil, base, 10) {
		t.Error("the first request always supersedes")
	}
}

func TestHaversine(t *testing.T) {
	if d := Haversine(pickup, pickup); d != 0 {
		t.Fatalf("zero distance expected, got %f", d)
	}
	// one degree of latitude is ~111.19 km
	a := models.Coord{Lat: 0, Lng: 0}
	b := models.Coord{Lat: 1, Lng: 0}
	if d := Haversine(a, b); d < 110000 || d > 112000 {
		t.Fatalf("unexpected distance %f", d)
	}
}
