package models

import "strings"

// BookingStatus is the lifecycle state of a booking. Transitions are
// monotonic: forward along the main chain, terminal states never exited.
type BookingStatus string

const (
	StatusPending       BookingStatus = "PENDING"
	StatusMatched       BookingStatus = "MATCHED"
	StatusDriverArrived BookingStatus = "DRIVER_ARRIVED"
	StatusInProgress    BookingStatus = "IN_PROGRESS"
	StatusCompleted     BookingStatus = "COMPLETED"
	StatusCanceled      BookingStatus = "CANCELED"
	StatusNoDriverFound BookingStatus = "NO_DRIVER_FOUND"
	StatusExpired       BookingStatus = "EXPIRED"
)

// ParseBookingStatus normalizes a wire status string. The backend emits
// both "CANCELED" and "CANCELLED" depending on the service.
func ParseBookingStatus(s string) BookingStatus {
	v := BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
	if v == "CANCELLED" {
		return StatusCanceled
	}
	return v
}

func (s BookingStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCanceled, StatusNoDriverFound, StatusExpired:
		return true
	}
	return false
}

// rank orders the main chain; terminal drop-out states carry no rank.
func (s BookingStatus) rank() (int, bool) {
	switch s {
	case StatusPending:
		return 0, true
	case StatusMatched:
		return 1, true
	case StatusDriverArrived:
		return 2, true
	case StatusInProgress:
		return 3, true
	case StatusCompleted:
		return 4, true
	}
	return 0, false
}

// CanAdvance reports whether moving from s to next is a legal transition.
// Same-status "moves" are allowed so a refresh can update non-status fields.
func (s BookingStatus) CanAdvance(next BookingStatus) bool {
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	from, okFrom := s.rank()
	to, okTo := next.rank()
	if okFrom && okTo {
		return to > from
	}
	// CANCELED / NO_DRIVER_FOUND / EXPIRED are reachable only before the
	// trip starts.
	if next.Terminal() {
		inProg, _ := StatusInProgress.rank()
		return okFrom && from < inProg
	}
	return false
}
