package local

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("cache: key not found")

// Config holds LocalCache settings.
type Config struct {
	GCInterval time.Duration
}

// ScoredMember is one sorted-set entry.
type ScoredMember struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// entry holds a cached string value with an optional expiry.
type entry struct {
	data     string
	expireAt time.Time
}

func newEntry(data string, ttl time.Duration) *entry {
	e := &entry{data: data}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	return e
}

func (e *entry) expired() bool {
	return !e.expireAt.IsZero() && time.Now().After(e.expireAt)
}

// LocalCache is an in-process cache implementing the Cache interface.
type LocalCache struct {
	kv         sync.Map // key → *entry
	sets       sync.Map // key → *lockedSet
	zsets      sync.Map // key → *zset
	lists      sync.Map // key → *lockedList
	gcInterval time.Duration
	stopGC     chan struct{}
	closeOnce  sync.Once
}

// NewCache creates a LocalCache and starts the background GC goroutine.
func NewCache(cfg Config) (*LocalCache, error) {
	interval := cfg.GCInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c := &LocalCache{
		gcInterval: interval,
		stopGC:     make(chan struct{}),
	}
	go c.runGC()
	return c, nil
}

// Close stops the background GC goroutine.
func (c *LocalCache) Close() {
	c.closeOnce.Do(func() { close(c.stopGC) })
}

func (c *LocalCache) runGC() {
	ticker := time.NewTicker(c.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.kv.Range(func(k, v any) bool {
				if v.(*entry).expired() {
					c.kv.Delete(k)
				}
				return true
			})
		case <-c.stopGC:
			return
		}
	}
}

// load returns the live entry for key, evicting it if expired.
func (c *LocalCache) load(key string) (*entry, bool) {
	v, ok := c.kv.Load(key)
	if !ok {
		return nil, false
	}
	e := v.(*entry)
	if e.expired() {
		c.kv.CompareAndDelete(key, v)
		return nil, false
	}
	return e, true
}

// ---- KV ----

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	e, ok := c.load(key)
	if !ok {
		return "", ErrNotFound
	}
	return e.data, nil
}

func (c *LocalCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.kv.Store(key, newEntry(value, ttl))
	return nil
}

func (c *LocalCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.kv.Delete(k)
		c.sets.Delete(k)
		c.zsets.Delete(k)
		c.lists.Delete(k)
	}
	return nil
}

func (c *LocalCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := c.load(key)
	return ok, nil
}

func (c *LocalCache) Expire(_ context.Context, key string, ttl time.Duration) error {
	e, ok := c.load(key)
	if !ok {
		return ErrNotFound
	}
	c.kv.Store(key, newEntry(e.data, ttl))
	return nil
}

// ---- Set ----

type lockedSet struct {
	mu      sync.RWMutex
	members map[string]struct{}
}

func (c *LocalCache) set(key string) *lockedSet {
	v, _ := c.sets.LoadOrStore(key, &lockedSet{members: make(map[string]struct{})})
	return v.(*lockedSet)
}

func (c *LocalCache) SAdd(_ context.Context, key string, members ...string) error {
	s := c.set(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range members {
		s.members[m] = struct{}{}
	}
	return nil
}

func (c *LocalCache) SRem(_ context.Context, key string, members ...string) error {
	s := c.set(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range members {
		delete(s.members, m)
	}
	return nil
}

func (c *LocalCache) SMembers(_ context.Context, key string) ([]string, error) {
	s := c.set(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.members))
	for m := range s.members {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (c *LocalCache) SIsMember(_ context.Context, key, member string) (bool, error) {
	s := c.set(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[member]
	return ok, nil
}

// ---- ZSet ----

type zset struct {
	mu     sync.Mutex
	scores map[string]float64
}

func (c *LocalCache) zset(key string) *zset {
	v, _ := c.zsets.LoadOrStore(key, &zset{scores: make(map[string]float64)})
	return v.(*zset)
}

func (c *LocalCache) ZIncrBy(_ context.Context, key string, delta float64, member string) (float64, error) {
	z := c.zset(key)
	z.mu.Lock()
	defer z.mu.Unlock()
	z.scores[member] += delta
	return z.scores[member], nil
}

// ZRevRangeWithScores returns members ordered by score descending, ties by
// member descending to match Redis.
func (c *LocalCache) ZRevRangeWithScores(_ context.Context, key string, start, stop int64) ([]ScoredMember, error) {
	z := c.zset(key)
	z.mu.Lock()
	all := make([]ScoredMember, 0, len(z.scores))
	for m, s := range z.scores {
		all = append(all, ScoredMember{Member: m, Score: s})
	}
	z.mu.Unlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].Member > all[j].Member
	})
	lo, hi, ok := span(int64(len(all)), start, stop)
	if !ok {
		return nil, nil
	}
	return all[lo : hi+1], nil
}

func (c *LocalCache) ZScore(_ context.Context, key, member string) (float64, error) {
	z := c.zset(key)
	z.mu.Lock()
	defer z.mu.Unlock()
	s, ok := z.scores[member]
	if !ok {
		return 0, ErrNotFound
	}
	return s, nil
}

// ---- List ----

type lockedList struct {
	mu   sync.Mutex
	data []string
}

func (c *LocalCache) list(key string) *lockedList {
	v, _ := c.lists.LoadOrStore(key, &lockedList{})
	return v.(*lockedList)
}

// LPush prepends values in order, so the last value ends up at index 0.
func (c *LocalCache) LPush(_ context.Context, key string, values ...string) error {
	l := c.list(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	head := make([]string, 0, len(values)+len(l.data))
	for i := len(values) - 1; i >= 0; i-- {
		head = append(head, values[i])
	}
	l.data = append(head, l.data...)
	return nil
}

func (c *LocalCache) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	l := c.list(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	lo, hi, ok := span(int64(len(l.data)), start, stop)
	if !ok {
		return nil, nil
	}
	out := make([]string, hi-lo+1)
	copy(out, l.data[lo:hi+1])
	return out, nil
}

func (c *LocalCache) LTrim(_ context.Context, key string, start, stop int64) error {
	l := c.list(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	lo, hi, ok := span(int64(len(l.data)), start, stop)
	if !ok {
		l.data = nil
		return nil
	}
	l.data = append([]string(nil), l.data[lo:hi+1]...)
	return nil
}

// span resolves Redis-style inclusive indexes (negative counts from the end)
// against a collection of length n.
func span(n, start, stop int64) (int64, int64, bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}
