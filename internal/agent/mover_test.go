package agent

import (
	"testing"
	"time"

	"github.com/example/ride-agent/internal/models"
	"github.com/example/ride-agent/internal/route"
)

func TestMoverAdvancesTowardTarget(t *testing.T) {
	start := models.Coord{Lat: 10.7769, Lng: 106.7009}
	target := models.Coord{Lat: 10.7859, Lng: 106.7009} // ~1km north
	m := NewMover(start, 10)

	before := route.Haversine(m.Position(), target)
	if m.Advance(target, time.Second) {
		t.Fatal("arrived after a single 10m step on a 1km leg")
	}
	after := route.Haversine(m.Position(), target)
	if after >= before {
		t.Fatalf("distance did not shrink: %.1f -> %.1f", before, after)
	}
	if moved := before - after; moved < 5 || moved > 15 {
		t.Errorf("one second at 10m/s moved %.1fm", moved)
	}
}

func TestMoverArrives(t *testing.T) {
	start := models.Coord{Lat: 10.7769, Lng: 106.7009}
	target := models.Coord{Lat: 10.7770, Lng: 106.7009} // ~11m
	m := NewMover(start, 10)

	if !m.Advance(target, 2*time.Second) {
		t.Fatal("a 20m step should cover an 11m leg")
	}
	if got := m.Position(); got != target {
		t.Errorf("position = %+v, want snapped to %+v", got, target)
	}
	// already there, stays there
	if !m.Advance(target, time.Second) {
		t.Error("advance from the target is still an arrival")
	}
}

func TestMoverDefaultSpeed(t *testing.T) {
	m := NewMover(models.Coord{}, 0)
	target := models.Coord{Lat: 0.001, Lng: 0} // ~111m
	m.Advance(target, time.Second)
	if moved := route.Haversine(models.Coord{}, m.Position()); moved < 5 || moved > 15 {
		t.Errorf("default speed moved %.1fm in one second", moved)
	}
}
