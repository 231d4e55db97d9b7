package structs

import "sync"

// SyncPool is a typed [sync.Pool].
type SyncPool[T any] struct {
	pool sync.Pool
}

// NewSyncPool returns a pool allocating new objects with f when empty.
func NewSyncPool[T any](f func() T) *SyncPool[T] {
	return &SyncPool[T]{pool: sync.Pool{New: func() any { return f() }}}
}

// Get takes an object from the pool.
func (p *SyncPool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put gives x back to the pool.
func (p *SyncPool[T]) Put(x T) {
	p.pool.Put(x)
}
