package embedding

import (
	"container/list"
	"strings"
	"sync"
)

// EvictionPolicy decides which key leaves a full Cache. Implementations are
// only called with the cache lock held.
type EvictionPolicy interface {
	Added(key string)
	Touched(key string)
	Removed(key string)
	Victim() (string, bool)
}

// listPolicy orders keys oldest-first. With promote set a read moves the key
// to the back, which turns insertion order into recency order.
type listPolicy struct {
	order    *list.List
	elements map[string]*list.Element
	promote  bool
}

// NewFIFOPolicy evicts the key inserted first.
func NewFIFOPolicy() EvictionPolicy {
	return &listPolicy{order: list.New(), elements: make(map[string]*list.Element)}
}

// NewLRUPolicy evicts the key read or written least recently.
func NewLRUPolicy() EvictionPolicy {
	return &listPolicy{order: list.New(), elements: make(map[string]*list.Element), promote: true}
}

// PolicyByName maps "lru" to LRU and anything else to FIFO.
func PolicyByName(name string) EvictionPolicy {
	if strings.EqualFold(name, "lru") {
		return NewLRUPolicy()
	}
	return NewFIFOPolicy()
}

func (p *listPolicy) Added(key string) {
	if el, ok := p.elements[key]; ok {
		if p.promote {
			p.order.MoveToBack(el)
		}
		return
	}
	p.elements[key] = p.order.PushBack(key)
}

func (p *listPolicy) Touched(key string) {
	if !p.promote {
		return
	}
	if el, ok := p.elements[key]; ok {
		p.order.MoveToBack(el)
	}
}

func (p *listPolicy) Removed(key string) {
	if el, ok := p.elements[key]; ok {
		p.order.Remove(el)
		delete(p.elements, key)
	}
}

func (p *listPolicy) Victim() (string, bool) {
	front := p.order.Front()
	if front == nil {
		return "", false
	}
	return front.Value.(string), true
}

// Cache is a bounded, mutex-guarded map from text to embedding vector. It
// has no TTL; capacity and policy alone bound it. A capacity of zero or
// less disables caching.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string][]float32
	policy   EvictionPolicy
}

func NewCache(capacity int, policy EvictionPolicy) *Cache {
	if policy == nil {
		policy = NewFIFOPolicy()
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string][]float32),
		policy:   policy,
	}
}

func (c *Cache) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	values, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.policy.Touched(key)
	return append([]float32(nil), values...), true
}

func (c *Cache) Put(key string, values []float32) {
	if c.capacity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.capacity {
			victim, ok := c.policy.Victim()
			if !ok {
				break
			}
			delete(c.entries, victim)
			c.policy.Removed(victim)
		}
	}

	c.entries[key] = append([]float32(nil), values...)
	c.policy.Added(key)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
