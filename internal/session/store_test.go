package session

import (
	"path/filepath"
	"testing"
)

func TestFileStoreRoundtrip(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "session.json"))

	c, err := s.Load()
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if !c.Empty() {
		t.Fatalf("expected empty credentials, got %+v", c)
	}

	want := Credentials{AccessToken: "tok", UserID: "u1", Role: "DRIVER"}
	if err := s.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestFileStoreClear(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	if err := s.Save(Credentials{AccessToken: "tok", UserID: "u1", Role: "CUSTOMER"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	c, err := s.Load()
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if !c.Empty() {
		t.Fatalf("credentials survived clear: %+v", c)
	}
	// clearing twice is fine
	if err := s.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}
