// Package cache holds rendered responses keyed by request. It is optional:
// callers must behave the same with Noop as with Memory.
package cache

import (
	"time"

	"github.com/siahsang/yatube/internal/utils/collectionutils"
)

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	// Clear drops every entry.
	Clear()
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process cache whose entries expire after a fixed TTL.
type Memory struct {
	ttl     time.Duration
	entries *collectionutils.SafeMap[string, entry]
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: collectionutils.New[string, entry](),
		now:     time.Now,
	}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	e, ok := m.entries.Get(key)
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expiresAt) {
		m.entries.Delete(key)
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Set(key string, value []byte) {
	m.entries.Store(key, entry{value: value, expiresAt: m.now().Add(m.ttl)})
}

func (m *Memory) Clear() {
	m.entries.Clear()
}

// Sweep removes expired entries and returns how many are left.
func (m *Memory) Sweep() int {
	now := m.now()
	m.entries.DeleteFunc(func(_ string, e entry) bool {
		return !now.Before(e.expiresAt)
	})
	return m.entries.Len()
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(string) ([]byte, bool) { return nil, false }
func (Noop) Set(string, []byte) {}
func (Noop) Clear() {}
