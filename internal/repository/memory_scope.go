package repository

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value     string
	expiresAt time.Time
}

// MemoryScope guarda en memoria con una cuota en bytes (0 = sin limite) y TTL opcional.
type MemoryScope struct {
	mu    sync.Mutex
	items map[string]memoryItem
	quota int
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryScope(quotaBytes int, ttl time.Duration) *MemoryScope {
	return &MemoryScope{
		items: make(map[string]memoryItem),
		quota: quotaBytes,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryScope) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[key]
	if !ok {
		return "", false, nil
	}
	if !item.expiresAt.IsZero() && s.now().After(item.expiresAt) {
		delete(s.items, key)
		return "", false, nil
	}
	return item.value, true, nil
}

func (s *MemoryScope) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quota > 0 {
		used := len(key) + len(value)
		for k, item := range s.items {
			if k != key {
				used += len(k) + len(item.value)
			}
		}
		if used > s.quota {
			return ErrQuotaExceeded
		}
	}
	item := memoryItem{value: value}
	if s.ttl > 0 {
		item.expiresAt = s.now().Add(s.ttl)
	}
	s.items[key] = item
	return nil
}

func (s *MemoryScope) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}
