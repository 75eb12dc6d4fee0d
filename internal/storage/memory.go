package storage

import (
	"context"
	"sync"
)

// MemoryBackend keeps every key in process memory. Used by tests and the "memory" driver.
type MemoryBackend struct {
	data   map[string][]byte
	closed bool
	mutex  sync.RWMutex
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Load(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.closed {
		return nil, ErrBackendClosed
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return cloneBytes(v), nil
}

func (m *MemoryBackend) Store(ctx context.Context, key string, value []byte) error {
	_, err := m.Update(ctx, key, overwrite(value))
	return err
}

func (m *MemoryBackend) Update(ctx context.Context, key string, fn UpdateFunc) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return false, ErrBackendClosed
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	current, found := m.data[key]
	next, err := fn(cloneBytes(current), found)
	if err != nil {
		return false, err
	}
	if next == nil {
		return false, nil
	}
	m.data[key] = cloneBytes(next)
	return true, nil
}

func (m *MemoryBackend) Ping(ctx context.Context) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.closed {
		return ErrBackendClosed
	}
	return nil
}

func (m *MemoryBackend) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closed = true
	return nil
}
