package route

import (
	"encoding/json"
	"fmt"
)

// The map service is not consistent about polyline geometry: points arrive
// either as {"lat":..,"lng":..} objects or as 2-element arrays in either
// axis order. NormalizePoint disambiguates by value range (|v| <= 90 can be
// a latitude, anything larger must be a longitude) and always returns
// [lng, lat]. Already-normalized input passes through unchanged.
func NormalizePoint(raw json.RawMessage) ([2]float64, error) {
	var obj struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Lat != nil && obj.Lng != nil {
		return [2]float64{*obj.Lng, *obj.Lat}, nil
	}

	var pair []float64
	if err := json.Unmarshal(raw, &pair); err != nil {
		return [2]float64{}, fmt.Errorf("unrecognized point %s", raw)
	}
	if len(pair) != 2 {
		return [2]float64{}, fmt.Errorf("point has %d elements, want 2", len(pair))
	}
	a, b := pair[0], pair[1]
	if abs(a) > 90 && abs(b) > 90 {
		return [2]float64{}, fmt.Errorf("point [%v, %v] has no latitude candidate", a, b)
	}
	// [lat, lng] only when the first element cannot be a longitude swap
	// candidate and the second cannot be a latitude
	if abs(a) <= 90 && abs(b) > 90 {
		return [2]float64{b, a}, nil
	}
	// ambiguous or already [lng, lat]: trust the [lng, lat] convention
	return [2]float64{a, b}, nil
}

// NormalizePolyline converts a raw geometry array into [lng, lat] pairs.
func NormalizePolyline(raw []json.RawMessage) ([][2]float64, error) {
	out := make([][2]float64, 0, len(raw))
	for i, p := range raw {
		pt, err := NormalizePoint(p)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out = append(out, pt)
	}
	return out, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
