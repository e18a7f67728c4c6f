package prefs

import (
	"sync"

	"github.com/redis/go-redis/v9"
)

// Provider hands out the Store for a visitor. An empty visitor is
// anonymous and gets a private in-memory store.
type Provider interface {
	For(visitor string) Store
	Close() error
}

type MemoryProvider struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{stores: map[string]*MemoryStore{}}
}

func (p *MemoryProvider) For(visitor string) Store {
	if visitor == "" {
		return NewMemoryStore()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stores[visitor]
	if !ok {
		s = NewMemoryStore()
		p.stores[visitor] = s
	}
	return s
}

func (p *MemoryProvider) Close() error { return nil }

type RedisProvider struct {
	client *redis.Client
	prefix string
}

func NewRedisProvider(client *redis.Client, prefix string) *RedisProvider {
	return &RedisProvider{client: client, prefix: prefix}
}

func (p *RedisProvider) For(visitor string) Store {
	if visitor == "" {
		return NewMemoryStore()
	}
	return NewRedisStore(p.client, p.prefix, visitor)
}

func (p *RedisProvider) Close() error { return p.client.Close() }
