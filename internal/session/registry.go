package session

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value    T
	lastUsed time.Time
}

// Registry holds one value per shopper session, created on first use.
type Registry[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	create  func(session string) (T, error)
	now     func() time.Time
}

func NewRegistry[T any](create func(session string) (T, error)) *Registry[T] {
	return &Registry[T]{
		entries: make(map[string]*entry[T]),
		create:  create,
		now:     time.Now,
	}
}

// Get returns the session's value, creating it when absent.
func (r *Registry[T]) Get(session string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[session]; ok {
		e.lastUsed = r.now()
		return e.value, nil
	}

	v, err := r.create(session)
	if err != nil {
		var zero T
		return zero, err
	}
	r.entries[session] = &entry[T]{value: v, lastUsed: r.now()}
	return v, nil
}

// Peek returns the session's value without creating one.
func (r *Registry[T]) Peek(session string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[session]
	if !ok {
		var zero T
		return zero, false
	}
	e.lastUsed = r.now()
	return e.value, true
}

// Put replaces the session's value.
func (r *Registry[T]) Put(session string, v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[session] = &entry[T]{value: v, lastUsed: r.now()}
}

// Release tears down the session's value.
func (r *Registry[T]) Release(session string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, session)
}

// EvictIdle drops values unused for longer than maxIdle and reports how many
// were dropped.
func (r *Registry[T]) EvictIdle(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	evicted := 0
	for id, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			delete(r.entries, id)
			evicted++
		}
	}
	return evicted
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
