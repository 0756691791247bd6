package testhelpers

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryRedis is an in-process stand-in for the go-redis commands the cache
// uses. Expiry is evaluated lazily on access.
type MemoryRedis struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	now  func() time.Time
}

func NewMemoryRedis() *MemoryRedis {
	return &MemoryRedis{data: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryRedis) lookup(key string) (memoryEntry, bool) {
	entry, ok := m.data[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.data, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *MemoryRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.lookup(key)
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(entry.value, nil)
}

func (m *MemoryRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return redis.NewStatusResult("", fmt.Errorf("unsupported value type %T", value))
	}

	entry := memoryEntry{value: s}
	if expiration > 0 {
		entry.expiresAt = m.now().Add(expiration)
	}
	m.data[key] = entry
	return redis.NewStatusResult("OK", nil)
}

func (m *MemoryRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := m.lookup(key); ok {
			delete(m.data, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *MemoryRedis) Keys(ctx context.Context, pattern string) *redis.StringSliceCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for key := range m.data {
		if _, ok := m.lookup(key); !ok {
			continue
		}
		if matched, _ := path.Match(pattern, key); matched {
			keys = append(keys, key)
		}
	}
	return redis.NewStringSliceResult(keys, nil)
}

func (m *MemoryRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, _ := m.lookup(key)
	n, _ := strconv.ParseInt(entry.value, 10, 64)
	n++
	entry.value = strconv.FormatInt(n, 10)
	m.data[key] = entry
	return redis.NewIntResult(n, nil)
}

func (m *MemoryRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.lookup(key)
	if !ok {
		return redis.NewBoolResult(false, nil)
	}
	entry.expiresAt = m.now().Add(expiration)
	m.data[key] = entry
	return redis.NewBoolResult(true, nil)
}

func (m *MemoryRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := m.lookup(key); ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *MemoryRedis) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}
