package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ContextTokenStore guarda los jti vigentes de los tokens de contexto y permite revocarlos.
type ContextTokenStore interface {
	Store(jti, contextID string, ttl time.Duration) error
	Exists(jti string) (bool, error)
	Revoke(jti string) error
}

type memoryContextTokenStore struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func NewMemoryContextTokenStore() ContextTokenStore {
	return &memoryContextTokenStore{
		items: make(map[string]time.Time),
	}
}

func (s *memoryContextTokenStore) Store(jti, _ string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	s.items[jti] = time.Now().UTC().Add(ttl)
	return nil
}

func (s *memoryContextTokenStore) Exists(jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.items[jti]
	if !ok {
		return false, nil
	}
	if time.Now().UTC().After(exp) {
		delete(s.items, jti)
		return false, nil
	}
	return true, nil
}

func (s *memoryContextTokenStore) Revoke(jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, jti)
	return nil
}

type redisKVClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisContextTokenStore struct {
	client redisKVClient
	prefix string
}

func NewRedisContextTokenStore(client *redis.Client) ContextTokenStore {
	if client == nil {
		return nil
	}
	return &redisContextTokenStore{
		client: client,
		prefix: "widget:ctx-token:",
	}
}

func (s *redisContextTokenStore) Store(jti, contextID string, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+jti, contextID, ttl).Err()
}

func (s *redisContextTokenStore) Exists(jti string) (bool, error) {
	jti = strings.TrimSpace(jti)
	if strings.TrimSpace(jti) == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	n, err := s.client.Exists(ctx, s.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisContextTokenStore) Revoke(jti string) error {
	jti = strings.TrimSpace(jti)
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return s.client.Del(ctx, s.prefix+jti).Err()
}
