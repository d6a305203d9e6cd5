package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/prodsearch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// DefaultMaxEntries is used when Config.MaxEntries is not positive.
const DefaultMaxEntries = 10_000

// Config holds in-process store settings.
type Config struct {
	MaxEntries int
}

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store is a size-bounded LRU implementing db.Store for single-instance
// deployments and tests. Expired entries are dropped lazily on access.
type Store struct {
	mu    sync.Mutex // guards every write, including lazy expiry removal
	cache *lru.Cache[string, entry]
	now   func() time.Time
}

// NewStore creates an in-process store.
func NewStore(cfg Config) (*Store, error) {
	size := cfg.MaxEntries
	if size <= 0 {
		size = DefaultMaxEntries
	}
	c, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Store{cache: c, now: time.Now}, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close purges all entries.
func (s *Store) Close() { s.cache.Purge() }

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Get retrieves a live value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	e, ok := s.live(key)
	s.mu.Unlock()
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a value without expiry.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(key, entry{value: clone(value)})
	return nil
}

// SetWithTTL stores a value that expires after ttl.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return &db.Error{Op: db.OpSet, Err: fmt.Errorf("invalid ttl %v", ttl)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(key, entry{value: clone(value), expiresAt: s.now().Add(ttl)})
	return nil
}

// IncrBy increments an integer value, creating it at 0 when absent.
func (s *Store) IncrBy(_ context.Context, key string, val int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	var cur int64
	if ok {
		n, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return &db.Error{Op: db.OpIncrBy, Err: db.ErrNotInteger}
		}
		cur = n
	}
	e.value = []byte(strconv.FormatInt(cur+val, 10))
	s.cache.Add(key, e)
	return nil
}

// Expire sets TTL on a live key. With nx, keys that already expire are left alone.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	if !ok {
		return nil
	}
	if nx && !e.expiresAt.IsZero() {
		return nil
	}
	e.expiresAt = s.now().Add(ttl)
	s.cache.Add(key, e)
	return nil
}

// ScanPrefix returns live keys with the given literal prefix.
func (s *Store) ScanPrefix(_ context.Context, prefix string) ([]string, error) {
	now := s.now()
	var keys []string
	for _, k := range s.cache.Keys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if e, ok := s.cache.Peek(k); ok && !e.expired(now) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Del removes keys and returns how many were live.
func (s *Store) Del(_ context.Context, keys ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int
	for _, k := range keys {
		e, ok := s.cache.Peek(k)
		if !ok {
			continue
		}
		s.cache.Remove(k)
		if !e.expired(now) {
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, including not yet evicted expired ones.
func (s *Store) Len() int { return s.cache.Len() }

// live returns a non-expired entry, removing it when expired. Callers hold s.mu.
func (s *Store) live(key string) (entry, bool) {
	e, ok := s.cache.Get(key)
	if !ok {
		return entry{}, false
	}
	if e.expired(s.now()) {
		s.cache.Remove(key)
		return entry{}, false
	}
	return e, true
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
