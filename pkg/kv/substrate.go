package kv

import (
	"errors"
	"sync"
)

// Substrate is a synchronous string-keyed, string-valued store.
type Substrate interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Delete is a no-op for missing keys.
	Delete(key string) error
	// Usage reports the bytes held by keys and values together.
	Usage() (int64, error)
	Close() error
}

var ErrClosed = errors.New("kv: substrate closed")

// Memory is an in-process Substrate.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.values == nil {
		return "", false, ErrClosed
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		return ErrClosed
	}
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		return ErrClosed
	}
	delete(m.values, key)
	return nil
}

func (m *Memory) Usage() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.values == nil {
		return 0, ErrClosed
	}
	var n int64
	for k, v := range m.values {
		n += int64(len(k) + len(v))
	}
	return n, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = nil
	return nil
}
