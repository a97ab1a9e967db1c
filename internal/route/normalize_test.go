package route

import (
	"encoding/json"
	"testing"
)

func TestNormalizePoint(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want [2]float64
	}{
		{"object form", `{"lat":10.776,"lng":106.7}`, [2]float64{106.7, 10.776}},
		{"already lng,lat", `[106.7,10.776]`, [2]float64{106.7, 10.776}},
		{"lat,lng swapped", `[10.776,106.7]`, [2]float64{106.7, 10.776}},
		{"ambiguous kept as lng,lat", `[45.0,50.0]`, [2]float64{45.0, 50.0}},
		{"western hemisphere", `[-73.98,40.75]`, [2]float64{-73.98, 40.75}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePoint(json.RawMessage(tt.in))
			if err != nil {
				t.Fatalf("normalize %s: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizePointIdempotent(t *testing.T) {
	once, err := NormalizePoint(json.RawMessage(`[10.776,106.7]`))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := json.Marshal([]float64{once[0], once[1]})
	twice, err := NormalizePoint(b)
	if err != nil {
		t.Fatal(err)
	}
	if once != twice {
		t.Fatalf("not idempotent: %v then %v", once, twice)
	}
}

func TestNormalizePointRejectsGarbage(t *testing.T) {
	for _, in := range []string{`"x"`, `[1,2,3]`, `[120.0,130.0]`, `{}`} {
		if _, err := NormalizePoint(json.RawMessage(in)); err == nil {
			t.Errorf("expected error for %s", in)
		}
	}
}

func TestNormalizePolyline(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"lat":10.776,"lng":106.7}`),
		json.RawMessage(`[106.71,10.78]`),
		json.RawMessage(`[10.79,106.72]`),
	}
	got, err := NormalizePolyline(raw)
	if err != nil {
		t.Fatal(err)
	}
	want := [][2]float64{{106.7, 10.776}, {106.71, 10.78}, {106.72, 10.79}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("point %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
