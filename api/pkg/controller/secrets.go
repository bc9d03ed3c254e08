package controller

import (
	"sync"
	"time"

	"github.com/visgate/visgate/api/pkg/types"
)

// secretCache holds request-scoped credentials (provider key, HF token,
// private S3 creds) in memory while a deployment's lifecycle runs. Nothing
// in here ever reaches the store; entries expire on a TTL and are cleared
// eagerly on terminal states.
type secretCache struct {
	mu  sync.Mutex
	ttl time.Duration

	entries map[string]secretEntry
}

type secretEntry struct {
	secrets   types.LaunchSecrets
	expiresAt time.Time
}

func newSecretCache(ttl time.Duration) *secretCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &secretCache{
		ttl:     ttl,
		entries: map[string]secretEntry{},
	}
}

func (s *secretCache) put(deploymentID string, secrets types.LaunchSecrets) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[deploymentID] = secretEntry{
		secrets:   secrets,
		expiresAt: time.Now().Add(s.ttl),
	}
}

func (s *secretCache) get(deploymentID string) (types.LaunchSecrets, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[deploymentID]
	if !ok {
		return types.LaunchSecrets{}, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, deploymentID)
		return types.LaunchSecrets{}, false
	}
	return entry.secrets, true
}

func (s *secretCache) clear(deploymentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, deploymentID)
}
