package web

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"ftpbrowser/config"
)

type storedCredentials struct {
	creds   config.Credentials
	expires time.Time
}

// CredentialStore keeps login credentials in memory, keyed by a random
// session id.
type CredentialStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]storedCredentials
}

// NewCredentialStore creates a store whose entries live for ttl
func NewCredentialStore(ttl time.Duration) *CredentialStore {
	return &CredentialStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]storedCredentials),
	}
}

// Put stores creds and returns the new session id
func (s *CredentialStore) Put(creds config.Credentials) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.sessions[id] = storedCredentials{creds: creds, expires: s.now().Add(s.ttl)}
	return id
}

// Get returns the credentials for id if it exists and has not expired
func (s *CredentialStore) Get(id string) (config.Credentials, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return config.Credentials{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[id]
	if !ok {
		return config.Credentials{}, false
	}
	if !s.now().Before(stored.expires) {
		delete(s.sessions, id)
		return config.Credentials{}, false
	}
	return stored.creds, true
}

// Delete forgets id
func (s *CredentialStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions
func (s *CredentialStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.sessions)
}

func (s *CredentialStore) pruneLocked() {
	now := s.now()
	for id, stored := range s.sessions {
		if !now.Before(stored.expires) {
			delete(s.sessions, id)
		}
	}
}
