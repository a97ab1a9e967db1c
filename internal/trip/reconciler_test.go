package trip

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/ride-agent/internal/logging"
	"github.com/example/ride-agent/internal/models"
)

// scriptedFetcher replays a fixed sequence of poll responses, repeating the
// last one forever.
type scriptedFetcher struct {
	mu        sync.Mutex
	responses []models.Booking
	errs      []error
	calls     int
}

func (f *scriptedFetcher) Get(ctx context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	b := f.responses[i]
	return &b, nil
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func booking(status models.BookingStatus) models.Booking {
	return models.Booking{
		ID:      "b1",
		Status:  status,
		Pickup:  models.Place{Lat: 10.776, Lng: 106.7},
		Dropoff: models.Place{Lat: 10.8, Lng: 106.72},
	}
}

func fastCfg() Config {
	return Config{SearchInterval: 10 * time.Millisecond, TrackInterval: 10 * time.Millisecond}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestStalePollDoesNotRegress(t *testing.T) {
	// a poll issued before the match resolved late and still says PENDING
	f := &scriptedFetcher{responses: []models.Booking{
		booking(models.StatusPending),
		booking(models.StatusMatched),
		booking(models.StatusPending),
	}}
	r, err := Start(context.Background(), f, "b1", fastCfg(), logging.NewLogger("error"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	waitFor(t, func() bool { return r.State().Status == models.StatusMatched })
	waitFor(t, func() bool { return f.callCount() >= 4 })
	if got := r.State().Status; got != models.StatusMatched {
		t.Fatalf("status regressed to %s", got)
	}
}

func TestPollingStopsAtTerminal(t *testing.T) {
	f := &scriptedFetcher{responses: []models.Booking{
		booking(models.StatusInProgress),
		booking(models.StatusCompleted),
	}}
	r, err := Start(context.Background(), f, "b1", fastCfg(), logging.NewLogger("error"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not stop at terminal status")
	}
	calls := f.callCount()
	time.Sleep(50 * time.Millisecond)
	if f.callCount() != calls {
		t.Fatalf("polls continued after terminal status: %d -> %d", calls, f.callCount())
	}
	if r.State().Status != models.StatusCompleted {
		t.Fatalf("status = %s", r.State().Status)
	}
}

func TestRealtimeStatusChangeTriggersRefetch(t *testing.T) {
	matched := booking(models.StatusMatched)
	matched.DriverID = "d9"
	f := &scriptedFetcher{responses: []models.Booking{
		booking(models.StatusPending),
		matched,
	}}
	// hour-long intervals: only the envelope can wake the poll loop
	cfg := Config{SearchInterval: time.Hour, TrackInterval: time.Hour}
	r, err := Start(context.Background(), f, "b1", cfg, logging.NewLogger("error"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	r.ApplyEnvelope(models.BookingStatusEvent{BookingID: "b1", Status: "MATCHED"})
	if r.State().Status != models.StatusMatched {
		t.Fatal("envelope not applied immediately")
	}
	// the re-fetch reconciles fields the envelope did not carry
	waitFor(t, func() bool { return r.State().DriverID == "d9" })
	if f.callCount() < 2 {
		t.Fatalf("no re-fetch issued, calls = %d", f.callCount())
	}
}

func TestRealtimeRegressionRejected(t *testing.T) {
	f := &scriptedFetcher{responses: []models.Booking{booking(models.StatusMatched)}}
	cfg := Config{SearchInterval: time.Hour, TrackInterval: time.Hour}
	r, err := Start(context.Background(), f, "b1", cfg, logging.NewLogger("error"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	r.ApplyEnvelope(models.BookingStatusEvent{BookingID: "b1", Status: "PENDING"})
	if r.State().Status != models.StatusMatched {
		t.Fatalf("status regressed to %s", r.State().Status)
	}
}

func TestEnvelopeForOtherBookingIgnored(t *testing.T) {
	f := &scriptedFetcher{responses: []models.Booking{booking(models.StatusPending)}}
	cfg := Config{SearchInterval: time.Hour, TrackInterval: time.Hour}
	r, err := Start(context.Background(), f, "b1", cfg, logging.NewLogger("error"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	r.ApplyEnvelope(models.BookingStatusEvent{BookingID: "other", Status: "MATCHED"})
	if r.State().Status != models.StatusPending {
		t.Fatalf("status = %s", r.State().Status)
	}
}

func TestPollFailureKeepsPreviousState(t *testing.T) {
	f := &scriptedFetcher{
		responses: []models.Booking{
			booking(models.StatusMatched),
			booking(models.StatusMatched), // unused, slot for the error
			booking(models.StatusDriverArrived),
		},
		errs: []error{nil, errors.New("gateway timeout")},
	}
	r, err := Start(context.Background(), f, "b1", fastCfg(), logging.NewLogger("error"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	waitFor(t, func() bool { return r.State().Status == models.StatusDriverArrived })
}

func TestInitialFetchFailureSurfaced(t *testing.T) {
	f := &scriptedFetcher{errs: []error{errors.New("boom")}, responses: []models.Booking{booking(models.StatusPending)}}
	if _, err := Start(context.Background(), f, "b1", fastCfg(), logging.NewLogger("error")); err == nil {
		t.Fatal("initial fetch failure not surfaced")
	}
}

func TestUpdatesEmitted(t *testing.T) {
	f := &scriptedFetcher{responses: []models.Booking{
		booking(models.StatusPending),
		booking(models.StatusMatched),
	}}
	r, err := Start(context.Background(), f, "b1", fastCfg(), logging.NewLogger("error"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	select {
	case b := <-r.Updates():
		if b.Status != models.StatusMatched {
			t.Fatalf("update status = %s", b.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update emitted")
	}
}
