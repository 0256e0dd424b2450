package cache

import (
	"sync"
)

// Entity is anything the cache can key by identity.
type Entity interface {
	EntityID() string
}

// LockKind names the kind of in-flight mutation a lock guards.
type LockKind string

const (
	LockLike   LockKind = "like"
	LockDelete LockKind = "delete"
)

type lockKey struct {
	id   string
	kind LockKind
}

// Cache is an ordered, in-memory collection of entities owned by exactly one view.
// Every method runs under the cache mutex, so each call is atomic with respect to the
// others. Nothing here performs I/O.
type Cache[T Entity] struct {
	mu     sync.RWMutex
	items  []T
	index  map[string]int
	locks  map[lockKey]struct{}
	closed bool
}

func New[T Entity]() *Cache[T] {
	return &Cache[T]{
		index: make(map[string]int),
		locks: make(map[lockKey]struct{}),
	}
}

// Load replaces the collection wholesale, keeping the given order. Duplicate ids keep
// the first occurrence.
func (c *Cache[T]) Load(entities []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	items := make([]T, 0, len(entities))
	index := make(map[string]int, len(entities))
	for _, e := range entities {
		id := e.EntityID()
		if _, dup := index[id]; dup {
			continue
		}
		index[id] = len(items)
		items = append(items, e)
	}
	c.items = items
	c.index = index
}

// Upsert replaces the entity with the same id in place, or appends it.
func (c *Cache[T]) Upsert(e T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	id := e.EntityID()
	if i, ok := c.index[id]; ok {
		c.items[i] = e
		return
	}
	c.index[id] = len(c.items)
	c.items = append(c.items, e)
}

// Prepend is Upsert for newest-first feeds: a new entity goes to the front.
func (c *Cache[T]) Prepend(e T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	id := e.EntityID()
	if i, ok := c.index[id]; ok {
		c.items[i] = e
		return
	}
	c.items = append([]T{e}, c.items...)
	c.reindex()
}

// Remove deletes the entity with the given id. It reports whether anything was removed;
// an absent id is not an error.
func (c *Cache[T]) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}

	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.reindex()
	return true
}

// Take removes the entity with the given id and returns it with its former position,
// so a caller can put it back with InsertAt.
func (c *Cache[T]) Take(id string) (T, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if c.closed {
		return zero, -1, false
	}
	i, ok := c.index[id]
	if !ok {
		return zero, -1, false
	}
	e := c.items[i]
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.reindex()
	return e, i, true
}

// InsertAt puts e at position i, clamped to the collection bounds. An entity with the
// same id is replaced in place instead.
func (c *Cache[T]) InsertAt(i int, e T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	id := e.EntityID()
	if j, ok := c.index[id]; ok {
		c.items[j] = e
		return
	}
	if i < 0 {
		i = 0
	}
	if i > len(c.items) {
		i = len(c.items)
	}
	c.items = append(c.items, e)
	copy(c.items[i+1:], c.items[i:])
	c.items[i] = e
	c.reindex()
}

// Patch applies a shallow merge to the entity with the given id. An absent id is a
// no-op so patches can be issued speculatively. It reports whether apply ran.
func (c *Cache[T]) Patch(id string, apply func(*T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || apply == nil {
		return false
	}

	i, ok := c.index[id]
	if !ok {
		return false
	}
	e := c.items[i]
	apply(&e)
	// identity is not patchable
	if e.EntityID() != id {
		return false
	}
	c.items[i] = e
	return true
}

// Get returns a copy of the entity with the given id.
func (c *Cache[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero T
	i, ok := c.index[id]
	if !ok {
		return zero, false
	}
	return c.items[i], true
}

// List returns a copy of the collection in order.
func (c *Cache[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Acquire takes the mutation lock for id+kind. The check and the set happen in one
// critical section, so of two concurrent callers exactly one gets true.
func (c *Cache[T]) Acquire(id string, kind LockKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}

	k := lockKey{id: id, kind: kind}
	if _, held := c.locks[k]; held {
		return false
	}
	c.locks[k] = struct{}{}
	return true
}

// Release drops the mutation lock for id+kind; releasing a free lock is a no-op.
func (c *Cache[T]) Release(id string, kind LockKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, lockKey{id: id, kind: kind})
}

// Held reports whether a mutation of the given kind is in flight for id.
func (c *Cache[T]) Held(id string, kind LockKind) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, held := c.locks[lockKey{id: id, kind: kind}]
	return held
}

// Close tears the cache down. Reads keep returning the last state; writes and lock
// acquisition become no-ops.
func (c *Cache[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.locks = make(map[lockKey]struct{})
}

func (c *Cache[T]) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// reindex rebuilds the id index; caller holds the write lock.
func (c *Cache[T]) reindex() {
	index := make(map[string]int, len(c.items))
	for i, e := range c.items {
		index[e.EntityID()] = i
	}
	c.index = index
}
