package models

import "testing"

func TestParseBookingStatus(t *testing.T) {
	cases := map[string]BookingStatus{
		"MATCHED":   StatusMatched,
		"cancelled": StatusCanceled,
		"CANCELED":  StatusCanceled,
		" pending ": StatusPending,
	}
	for in, want := range cases {
		if got := ParseBookingStatus(in); got != want {
			t.Errorf("ParseBookingStatus(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestCanAdvanceForwardChain(t *testing.T) {
	chain := []BookingStatus{StatusPending, StatusMatched, StatusDriverArrived, StatusInProgress, StatusCompleted}
	for i := 0; i < len(chain)-1; i++ {
		if !chain[i].CanAdvance(chain[i+1]) {
			t.Errorf("%s -> %s should be legal", chain[i], chain[i+1])
		}
		if chain[i+1].CanAdvance(chain[i]) {
			t.Errorf("%s -> %s should be rejected (regression)", chain[i+1], chain[i])
		}
	}
	// skipping intermediate states is still forward
	if !StatusPending.CanAdvance(StatusInProgress) {
		t.Error("PENDING -> IN_PROGRESS should be legal")
	}
}

func TestCanAdvanceTerminal(t *testing.T) {
	for _, term := range []BookingStatus{StatusCanceled, StatusNoDriverFound, StatusExpired} {
		for _, from := range []BookingStatus{StatusPending, StatusMatched, StatusDriverArrived} {
			if !from.CanAdvance(term) {
				t.Errorf("%s -> %s should be legal", from, term)
			}
		}
		if StatusInProgress.CanAdvance(term) {
			t.Errorf("IN_PROGRESS -> %s should be rejected (trip already started)", term)
		}
		if term.CanAdvance(StatusMatched) {
			t.Errorf("%s -> MATCHED should be rejected (terminal never exited)", term)
		}
	}
	if StatusCompleted.CanAdvance(StatusInProgress) {
		t.Error("COMPLETED is terminal")
	}
	// same-status refresh is always allowed
	if !StatusMatched.CanAdvance(StatusMatched) {
		t.Error("MATCHED -> MATCHED refresh should be allowed")
	}
}
