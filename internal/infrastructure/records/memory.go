package records

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tilvane/accountd/pkg/errors"
)

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, id, sk string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[id][sk]
	if !ok {
		return nil, errors.ErrRecordNotFound
	}
	return &Record{ID: id, SK: sk, Data: append([]byte(nil), data...)}, nil
}

func (s *MemoryStore) Create(_ context.Context, rec *Record, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	part, ok := s.data[rec.ID]
	if !ok {
		part = make(map[string][]byte)
		s.data[rec.ID] = part
	}
	if _, exists := part[rec.SK]; exists && !overwrite {
		return errors.ErrConflict
	}
	part[rec.SK] = append([]byte(nil), rec.Data...)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	part, ok := s.data[rec.ID]
	if !ok {
		return errors.ErrRecordNotFound
	}
	if _, exists := part[rec.SK]; !exists {
		return errors.ErrRecordNotFound
	}
	part[rec.SK] = append([]byte(nil), rec.Data...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id, sk string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	part, ok := s.data[id]
	if !ok {
		return errors.ErrRecordNotFound
	}
	if _, exists := part[sk]; !exists {
		return errors.ErrRecordNotFound
	}
	delete(part, sk)
	return nil
}

func (s *MemoryStore) QueryPrefix(_ context.Context, id, prefix string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for sk, data := range s.data[id] {
		if strings.HasPrefix(sk, prefix) {
			out = append(out, &Record{ID: id, SK: sk, Data: append([]byte(nil), data...)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SK < out[j].SK })
	return out, nil
}
