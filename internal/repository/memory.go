package repository

import (
	"context"
	"fmt"
	"sync"

	"discounter/internal/keylock"
)

// Memory is an in-process repository. It is not durable beyond the lifetime
// of the process and never evicts.
type Memory[E any] struct {
	mu     sync.Mutex
	items  map[string]E
	locks  keylock.Mutex
	newKey func() string
}

// NewMemory creates an empty in-memory repository.
func NewMemory[E any](opts ...Option) *Memory[E] {
	o := buildOptions(opts)
	return &Memory[E]{
		items:  make(map[string]E),
		newKey: o.newKey,
	}
}

// Persist stores value under key, or under a fresh key when key is empty.
// A fresh key that is already taken is a broken invariant and panics.
func (m *Memory[E]) Persist(ctx context.Context, value E, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if key == "" {
		key = m.newKey()
		if _, taken := m.items[key]; taken {
			panic(fmt.Sprintf("repository: generated key %q already present", key))
		}
	}

	m.items[key] = value
	return key, nil
}

// Get returns the value stored under key.
func (m *Memory[E]) Get(ctx context.Context, key string) (E, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.items[key]
	if !ok {
		var zero E
		return zero, ErrNotFound
	}
	return value, nil
}

// Update holds the lock for key while fn runs. Other keys stay available.
func (m *Memory[E]) Update(ctx context.Context, key string, fn func(context.Context, E) (E, error)) (E, error) {
	var zero E

	unlock, err := m.locks.Lock(ctx, key)
	if err != nil {
		return zero, err
	}
	defer unlock()

	current, err := m.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	updated, err := fn(ctx, current)
	if err != nil {
		return zero, err
	}

	m.mu.Lock()
	m.items[key] = updated
	m.mu.Unlock()

	return updated, nil
}

// Len returns the number of stored values.
func (m *Memory[E]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
