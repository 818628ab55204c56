package resultcache

import (
	"container/list"
	"sync"
)

// Store caches the most recent parse result per key (usually a SQL file path)
type Store[V any] interface {
	Get(key string) (V, bool)
	Put(key string, value V)
	Delete(key string)
	Len() int
}

type entry[V any] struct {
	key   string
	value V
}

// FIFO is a bounded Store that evicts the oldest inserted key once it
// holds more than capacity entries. Updating an existing key keeps its
// position.
type FIFO[V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[string]*list.Element
	onEvict  func(key string)
}

// NewFIFO creates a FIFO store holding at most capacity entries
func NewFIFO[V any](capacity int) *FIFO[V] {
	return &FIFO[V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// OnEvict registers a callback run for each evicted key
func (c *FIFO[V]) OnEvict(fn func(key string)) *FIFO[V] {
	c.onEvict = fn
	return c
}

func (c *FIFO[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		return elem.Value.(*entry[V]).value, true
	}
	var zero V
	return zero, false
}

func (c *FIFO[V]) Put(key string, value V) {
	c.mu.Lock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*entry[V]).value = value
		c.mu.Unlock()
		return
	}

	c.items[key] = c.order.PushBack(&entry[V]{key: key, value: value})

	var evicted []string
	for c.capacity >= 0 && c.order.Len() > c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		k := oldest.Value.(*entry[V]).key
		delete(c.items, k)
		evicted = append(evicted, k)
	}
	c.mu.Unlock()

	if c.onEvict != nil {
		for _, k := range evicted {
			c.onEvict(k)
		}
	}
}

func (c *FIFO[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.Remove(elem)
		delete(c.items, key)
	}
}

func (c *FIFO[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Keys returns the cached keys from oldest to newest
func (c *FIFO[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.order.Len())
	for e := c.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*entry[V]).key)
	}
	return keys
}

// Nop is a Store that never retains anything
type Nop[V any] struct{}

func (Nop[V]) Get(string) (V, bool) {
	var zero V
	return zero, false
}

func (Nop[V]) Put(string, V) {}
func (Nop[V]) Delete(string) {}
func (Nop[V]) Len() int { return 0 }

// New returns a FIFO store for a positive capacity and a Nop store
// otherwise. onEvict may be nil.
func New[V any](capacity int, onEvict func(key string)) Store[V] {
	if capacity <= 0 {
		return Nop[V]{}
	}
	return NewFIFO[V](capacity).OnEvict(onEvict)
}
