package secrets

import (
	"context"
	"encoding/base64"
	"sync"

	"github.com/tilvane/accountd/pkg/errors"
)

// MemoryStore is an in-process Store used in development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[name]
	if !ok {
		return "", errors.ErrSecretNotFound
	}
	return value, nil
}

func (s *MemoryStore) Put(_ context.Context, name string, plaintext string, _ bool) (string, error) {
	value := base64.StdEncoding.EncodeToString([]byte(plaintext))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return value, nil
}
