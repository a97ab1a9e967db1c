package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is a coordinate plus the human-readable address the backend
// geocoded it from.
type Place struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

func (p Place) Coord() Coord { return Coord{Lat: p.Lat, Lng: p.Lng} }

// TripOffer is a candidate trip pushed to one driver with a time-boxed
// accept window. Immutable once enqueued.
type TripOffer struct {
	BookingID                string  `json:"bookingId"`
	Pickup                   Place   `json:"pickup"`
	Dropoff                  Place   `json:"dropoff"`
	VehicleType              string  `json:"vehicleType"`
	EstimatedFare            float64 `json:"estimatedFare"`
	EstimatedDistanceKm      float64 `json:"estimatedDistanceKm"`
	EstimatedDurationMinutes float64 `json:"estimatedDurationMinutes"`
	TimeLeftSeconds          int     `json:"timeLeftSeconds"`
}

// Booking is the authoritative view of one trip as the backend reports it.
type Booking struct {
	ID             string        `json:"id"`
	CustomerID     string        `json:"customerId"`
	DriverID       string        `json:"driverId,omitempty"`
	Status         BookingStatus `json:"status"`
	VehicleType    string        `json:"vehicleType"`
	Pickup         Place         `json:"pickup"`
	Dropoff        Place         `json:"dropoff"`
	Price          float64       `json:"price"`
	DriverLocation *Coord        `json:"driverLocation,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

type DriverProfile struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	FullName    string  `json:"fullName"`
	Phone       string  `json:"phone,omitempty"`
	VehicleType string  `json:"vehicleType"`
	Rating      float64 `json:"rating"`
	Online      bool    `json:"online"`
}

type Vehicle struct {
	Type         string `json:"type"`
	PlateNumber  string `json:"plateNumber"`
	Brand        string `json:"brand,omitempty"`
	Model        string `json:"model,omitempty"`
	Color        string `json:"color,omitempty"`
	SeatCapacity int    `json:"seatCapacity,omitempty"`
}

type DriverPosition struct {
	DriverID string    `json:"driverId"`
	Lat      float64   `json:"lat"`
	Lng      float64   `json:"lng"`
	Heading  float64   `json:"heading,omitempty"`
	At       time.Time `json:"timestamp"`
}
