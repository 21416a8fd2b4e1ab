package cache

import (
	"sync"
	"time"
)

// Namespace partitions the store; each namespace has its own TTL.
type Namespace string

const (
	Realtime   Namespace = "realtime"
	Historical Namespace = "historical"
	Search     Namespace = "search"
	Market     Namespace = "market"
)

// Namespaces lists every namespace in a stable order.
var Namespaces = []Namespace{Realtime, Historical, Search, Market}

// TTL returns the default time-to-live for the namespace.
func (n Namespace) TTL() time.Duration {
	switch n {
	case Realtime:
		return 30 * time.Second
	case Market:
		return 60 * time.Second
	case Search, Historical:
		return time.Hour
	default:
		return 0
	}
}

// Entry is one cached payload.
type Entry struct {
	Key      string
	Value    []byte
	StoredAt time.Time
}

// Store is a namespaced in-memory byte cache. A single mutex guards all namespaces,
// so a sweep never interleaves with reads or writes.
type Store struct {
	mu   sync.Mutex
	now  func() time.Time
	ttl  map[Namespace]time.Duration
	data map[Namespace]map[string]Entry
}

// StoreOption configures Store.
type StoreOption func(*Store)

// WithClock overrides the store clock.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithTTL overrides the TTL for one namespace. Non-positive values are ignored.
func WithTTL(ns Namespace, ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl[ns] = ttl
		}
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		now:  time.Now,
		ttl:  make(map[Namespace]time.Duration, len(Namespaces)),
		data: make(map[Namespace]map[string]Entry, len(Namespaces)),
	}
	for _, ns := range Namespaces {
		s.ttl[ns] = ns.TTL()
		s.data[ns] = make(map[string]Entry)
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the stored value and whether it is past its TTL.
// Expired entries are still returned so callers can serve them as a last resort.
func (s *Store) Get(ns Namespace, key string) (value []byte, found bool, expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[ns][key]
	if !ok {
		return nil, false, false
	}
	return e.Value, true, !s.fresh(ns, e)
}

// Put overwrites the entry, stamping it with the store clock.
func (s *Store) Put(ns Namespace, key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.data[ns]
	if !ok {
		bucket = make(map[string]Entry)
		s.data[ns] = bucket
	}
	bucket[key] = Entry{Key: key, Value: value, StoredAt: s.now()}
}

// Sweep deletes every expired entry and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for ns, bucket := range s.data {
		for key, e := range bucket {
			if !s.fresh(ns, e) {
				delete(bucket, key)
				removed++
			}
		}
	}
	return removed
}

// Len returns the number of entries held for ns, fresh or not.
func (s *Store) Len(ns Namespace) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data[ns])
}

// TTL returns the effective TTL of ns.
func (s *Store) TTL(ns Namespace) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttl[ns]
}

func (s *Store) fresh(ns Namespace, e Entry) bool {
	return s.now().Sub(e.StoredAt) < s.ttl[ns]
}
