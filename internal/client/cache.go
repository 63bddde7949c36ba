package client

import (
	"container/list"
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// CacheStats reports CachingResolver activity.
type CacheStats struct {
	Hits         int
	Misses       int
	NegativeHits int
	Entries      int
}

type cacheEntry struct {
	name      string
	txt       []string
	negative  bool
	expiresAt time.Time
	elem      *list.Element
}

// CachingResolver keeps TXT answers for a fixed TTL in front of another
// resolver, evicting the least recently used name when full. ErrNotFound
// answers are kept for NegativeTTL; other errors are never cached.
type CachingResolver struct {
	Resolver    Resolver
	TTL         time.Duration
	NegativeTTL time.Duration

	mu         sync.Mutex
	maxEntries int
	lru        *list.List // front = oldest
	data       map[string]*cacheEntry
	stats      CacheStats
	now        func() time.Time
}

// NewCachingResolver wraps r. Published records carry a short TTL, so ttl is
// normally the records TTL.
func NewCachingResolver(r Resolver, maxEntries int, ttl time.Duration) *CachingResolver {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &CachingResolver{
		Resolver:    r,
		TTL:         ttl,
		NegativeTTL: ttl / 2,
		maxEntries:  maxEntries,
		lru:         list.New(),
		data:        map[string]*cacheEntry{},
		now:         time.Now,
	}
}

// LookupTXT answers from the cache when it can.
func (c *CachingResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	if txt, negative, ok := c.get(name); ok {
		if negative {
			return nil, ErrNotFound
		}
		return txt, nil
	}

	txt, err := c.Resolver.LookupTXT(ctx, name)
	switch {
	case err == nil:
		c.set(name, txt, false, c.TTL)
	case errors.Is(err, ErrNotFound):
		c.set(name, nil, true, c.NegativeTTL)
	}
	return txt, err
}

// Stats returns a snapshot of the cache counters.
func (c *CachingResolver) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.data)
	return s
}

func (c *CachingResolver) get(name string) ([]string, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.data[name]
	if e == nil {
		c.stats.Misses++
		return nil, false, false
	}
	if !e.expiresAt.After(c.now()) {
		c.lru.Remove(e.elem)
		delete(c.data, name)
		c.stats.Misses++
		return nil, false, false
	}
	c.lru.MoveToBack(e.elem)
	c.stats.Hits++
	if e.negative {
		c.stats.NegativeHits++
	}
	return slices.Clone(e.txt), e.negative, true
}

func (c *CachingResolver) set(name string, txt []string, negative bool, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	txt = slices.Clone(txt)
	expires := c.now().Add(ttl)
	if e := c.data[name]; e != nil {
		e.txt, e.negative, e.expiresAt = txt, negative, expires
		c.lru.MoveToBack(e.elem)
		return
	}
	e := &cacheEntry{name: name, txt: txt, negative: negative, expiresAt: expires}
	e.elem = c.lru.PushBack(e)
	c.data[name] = e

	for len(c.data) > c.maxEntries {
		front := c.lru.Front()
		if front == nil {
			break
		}
		old := front.Value.(*cacheEntry)
		c.lru.Remove(front)
		delete(c.data, old.name)
	}
}
