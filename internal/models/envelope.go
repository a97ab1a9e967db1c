package models

import "encoding/json"

// Envelope wraps every realtime message delivered on the per-user queue.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const (
	EnvelopeBookingStatus = "BOOKING_STATUS"
	EnvelopeDriverOffer   = "DRIVER_OFFER"
)

// BookingStatusEvent is the payload of a BOOKING_STATUS envelope. Only a
// subset of booking fields travels over the push channel; a reconciling
// re-fetch fills in the rest.
type BookingStatusEvent struct {
	BookingID      string  `json:"bookingId"`
	Status         string  `json:"status"`
	DriverID       string  `json:"driverId,omitempty"`
	DriverLocation *Coord  `json:"driverLocation,omitempty"`
	Price          float64 `json:"price,omitempty"`
}

func (e Envelope) BookingStatus() (BookingStatusEvent, error) {
	var ev BookingStatusEvent
	err := json.Unmarshal(e.Payload, &ev)
	return ev, err
}

func (e Envelope) DriverOffer() (TripOffer, error) {
	var offer TripOffer
	err := json.Unmarshal(e.Payload, &offer)
	return offer, err
}
