package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/example/ride-agent/internal/logging"
	"github.com/example/ride-agent/internal/session"
)

func newTestStore(t *testing.T) session.Store {
	t.Helper()
	s := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	if err := s.Save(session.Credentials{AccessToken: "tok-123", UserID: "u1", Role: "DRIVER"}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestBearerAndRequestIDInjected(t *testing.T) {
	var gotAuth, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, newTestStore(t), logging.NewLogger("error"))
	var out struct{}
	if err := c.Get(context.Background(), "/api/booking/me", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
	if gotReqID == "" {
		t.Error("X-Request-ID not set")
	}
}

func TestUnauthorizedClearsSessionAndFailsFast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := newTestStore(t)
	fired := 0
	c := NewClient(srv.URL, store, logging.NewLogger("error"), OnAuthExpired(func() { fired++ }))

	if err := c.Get(context.Background(), "/api/booking/me", nil); !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("err = %v, want ErrAuthExpired", err)
	}
	creds, _ := store.Load()
	if !creds.Empty() {
		t.Errorf("credentials not cleared: %+v", creds)
	}
	if fired != 1 {
		t.Errorf("callback fired %d times, want 1", fired)
	}

	// second request must not reach the network
	if err := c.Get(context.Background(), "/api/booking/me", nil); !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("second err = %v, want ErrAuthExpired", err)
	}
	if fired != 1 {
		t.Errorf("callback fired %d times after second call, want 1", fired)
	}
}

func TestValidationErrorCarriesFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"validation failed","fields":{"email":"required"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, newTestStore(t), logging.NewLogger("error"))
	err := c.Post(context.Background(), "/api/auth/register", map[string]string{}, nil)
	if !IsValidation(err) {
		t.Fatalf("IsValidation = false for %v", err)
	}
	var ae *APIError
	if !errors.As(err, &ae) || ae.Fields["email"] != "required" {
		t.Fatalf("field errors not decoded: %v", err)
	}
}

func TestConflictDetected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"booking already taken"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, newTestStore(t), logging.NewLogger("error"))
	err := c.Patch(context.Background(), "/api/booking/b1/accept", nil, nil)
	if !IsConflict(err) {
		t.Fatalf("IsConflict = false for %v", err)
	}
}
