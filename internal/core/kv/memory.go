package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/pkg/kv"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time
	createdAt time.Time
	updatedAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && e.expiresAt.Before(now)
}

// Memory is an in-process KV. Values are stored JSON-encoded so it behaves
// like the SQLite store (callers never share memory with the store).
type Memory struct {
	data *kv.Store[string, memEntry]
	now  func() time.Time
}

var _ KV = (*Memory)(nil)

// NewMemory creates an empty in-memory KV.
func NewMemory() *Memory {
	return &Memory{
		data: kv.New[string, memEntry](),
		now:  time.Now,
	}
}

func (m *Memory) lookup(key string) (memEntry, bool) {
	e, ok := m.data.Get(key)
	if !ok {
		return memEntry{}, false
	}
	if e.expired(m.now()) {
		m.data.Delete(key)
		return memEntry{}, false
	}
	return e, true
}

// Get retrieves and deserializes a value by key.
func (m *Memory) Get(_ context.Context, key string, dest any) error {
	e, ok := m.lookup(key)
	if !ok {
		return fmt.Errorf("kv get %q: %w", key, ErrNotFound)
	}
	if err := json.Unmarshal(e.value, dest); err != nil {
		return &DecodeError{Key: key, Err: err}
	}
	return nil
}

// Set stores a value with no expiry.
func (m *Memory) Set(_ context.Context, key string, value any) error {
	return m.set(key, value, time.Time{})
}

// SetTTL stores a value that expires after the given duration.
func (m *Memory) SetTTL(_ context.Context, key string, value any, ttl time.Duration) error {
	return m.set(key, value, m.now().Add(ttl))
}

// SetRaw stores pre-encoded bytes, bypassing JSON marshaling. It exists so
// tests can plant corrupt values.
func (m *Memory) SetRaw(key string, raw []byte) {
	now := m.now()
	m.data.Set(key, memEntry{value: raw, createdAt: now, updatedAt: now})
}

func (m *Memory) set(key string, value any, expiresAt time.Time) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv set %q marshal: %w", key, err)
	}

	now := m.now()
	m.data.Update(key, func(cur memEntry, ok bool) memEntry {
		created := now
		if ok {
			created = cur.createdAt
		}
		return memEntry{value: data, expiresAt: expiresAt, createdAt: created, updatedAt: now}
	})
	return nil
}

// Delete removes a key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

// Has returns whether a key exists and is not expired.
func (m *Memory) Has(_ context.Context, key string) (bool, error) {
	_, ok := m.lookup(key)
	return ok, nil
}

// ListKeys returns all non-expired keys in sorted order.
func (m *Memory) ListKeys(_ context.Context) ([]string, error) {
	now := m.now()
	var keys []string
	for _, k := range m.data.Keys() {
		if e, ok := m.data.Get(k); ok && !e.expired(now) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// GetRaw retrieves a raw entry with metadata.
func (m *Memory) GetRaw(_ context.Context, key string) (Entry, error) {
	e, ok := m.lookup(key)
	if !ok {
		return Entry{}, fmt.Errorf("kv get raw %q: %w", key, ErrNotFound)
	}

	entry := Entry{
		Key:       key,
		Value:     json.RawMessage(e.value),
		CreatedAt: e.createdAt,
		UpdatedAt: e.updatedAt,
	}
	if !e.expiresAt.IsZero() {
		t := e.expiresAt
		entry.ExpiresAt = &t
	}
	return entry, nil
}

// SweepExpired deletes all entries whose TTL has passed.
func (m *Memory) SweepExpired(_ context.Context) error {
	now := m.now()
	m.data.DeleteFunc(func(_ string, e memEntry) bool { return e.expired(now) })
	return nil
}
