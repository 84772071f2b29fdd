package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryConn is an in-process Conn with real expiry. It backs tests and
// mock-mode runs where no Redis is available.
type MemoryConn struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time

	// Down simulates a backing-store outage: every operation fails.
	Down bool
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryConn creates an empty in-memory connection.
func NewMemoryConn() *MemoryConn {
	return &MemoryConn{entries: make(map[string]memoryEntry), now: time.Now}
}

// SetClock overrides the time source, for expiry tests.
func (m *MemoryConn) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// TTL returns the remaining lifetime of key, or false if absent.
func (m *MemoryConn) TTL(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || m.now().After(e.expiresAt) {
		return 0, false
	}
	return e.expiresAt.Sub(m.now()), true
}

func (m *MemoryConn) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Down {
		return nil, errDown
	}
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, nil
	}
	return e.value, nil
}

func (m *MemoryConn) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Down {
		return errDown
	}
	m.entries[key] = memoryEntry{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryConn) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Down {
		return errDown
	}
	delete(m.entries, key)
	return nil
}

func (m *MemoryConn) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Down {
		return errDown
	}
	return nil
}

type connError string

func (e connError) Error() string { return string(e) }

const errDown = connError("cache backend unavailable")
