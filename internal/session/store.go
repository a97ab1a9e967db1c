package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
)

// Credentials is the persisted client state. The three fields are always
// written and cleared together.
type Credentials struct {
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
	Role        string `json:"role"`
}

func (c Credentials) Empty() bool { return c.AccessToken == "" }

// Store persists credentials across agent restarts. Load returns zero
// Credentials when nothing is stored.
type Store interface {
	Load() (Credentials, error)
	Save(Credentials) error
	Clear() error
}

// FileStore keeps credentials in a JSON file, mode 0600.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, nil
		}
		return Credentials{}, err
	}
	var c Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return Credentials{}, err
	}
	return c, nil
}

func (s *FileStore) Save(c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
