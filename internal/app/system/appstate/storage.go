// internal/app/system/appstate/storage.go
package appstate

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dalemusser/bhangaar/internal/domain/models"
)

// Fixed keys of the two durable entries.
const (
	KeyAccessToken = "access_token"
	KeyUser        = "user"
)

// Entries is the durable record of a session: the bearer token and the
// identity record serialized as JSON.
type Entries struct {
	AccessToken string
	User        string
}

// Storage is durable client storage. Load reports ok only when both
// entries are present.
type Storage interface {
	Load() (Entries, bool)
	Save(Entries) error
	Clear() error
}

// EncodeSession serializes s for storage.
func EncodeSession(s models.Session) (Entries, error) {
	raw, err := json.Marshal(s.User)
	if err != nil {
		return Entries{}, fmt.Errorf("encode user: %w", err)
	}
	return Entries{AccessToken: s.Token, User: string(raw)}, nil
}

// DecodeSession rebuilds a session from storage. A malformed identity
// record, or one with an unknown role, is treated as absent.
func DecodeSession(e Entries) (models.Session, bool) {
	if e.AccessToken == "" || e.User == "" {
		return models.Session{}, false
	}
	var u models.User
	if err := json.Unmarshal([]byte(e.User), &u); err != nil {
		return models.Session{}, false
	}
	s := models.Session{Token: e.AccessToken, User: u}
	if !s.Valid() {
		return models.Session{}, false
	}
	return s, true
}

// MemoryStorage keeps entries in a map. Safe for concurrent use.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStorage returns empty storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: map[string]string{}}
}

func (m *MemoryStorage) Load() (Entries, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, okTok := m.values[KeyAccessToken]
	user, okUser := m.values[KeyUser]
	if !okTok || !okUser {
		return Entries{}, false
	}
	return Entries{AccessToken: tok, User: user}, true
}

func (m *MemoryStorage) Save(e Entries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[KeyAccessToken] = e.AccessToken
	m.values[KeyUser] = e.User
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, KeyAccessToken)
	delete(m.values, KeyUser)
	return nil
}

// Get returns a raw entry by key.
func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// Set writes a raw entry. Tests use it to plant malformed records.
func (m *MemoryStorage) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}
