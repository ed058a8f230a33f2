package pending

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooLarge is returned when a single value exceeds the store capacity
var ErrTooLarge = errors.New("pending entry exceeds store capacity")

// MemoryStore implements Store in process memory. It is suitable for a single
// server instance; use RedisStore when several instances share staged results.
type MemoryStore struct {
	mu          sync.Mutex
	items       map[string]*entry
	maxBytes    int64
	currentSize int64
	now         func() time.Time
	stopCh      chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

type entry struct {
	value  []byte
	expiry time.Time
	size   int64
}

// NewMemoryStore creates a store capped at maxSizeMB (0 means unbounded) and starts its janitor
func NewMemoryStore(maxSizeMB int64) *MemoryStore {
	return newMemoryStore(maxSizeMB, time.Minute, time.Now)
}

func newMemoryStore(maxSizeMB int64, sweep time.Duration, now func() time.Time) *MemoryStore {
	s := &MemoryStore{
		items:    make(map[string]*entry),
		maxBytes: maxSizeMB * 1024 * 1024,
		now:      now,
		stopCh:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.janitor(sweep)
	return s
}

// Put stores value under token
func (s *MemoryStore) Put(ctx context.Context, token string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	size := int64(len(token) + len(value))
	if s.maxBytes > 0 && size > s.maxBytes {
		return ErrTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.items[token]; ok {
		s.currentSize -= old.size
		delete(s.items, token)
	}
	s.makeRoomLocked(size)

	buf := make([]byte, len(value))
	copy(buf, value)
	s.items[token] = &entry{value: buf, expiry: s.now().Add(ttl), size: size}
	s.currentSize += size
	return nil
}

// Get returns a copy of the value
func (s *MemoryStore) Get(ctx context.Context, token string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.liveLocked(token)
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Take returns and removes the value under a single lock
func (s *MemoryStore) Take(ctx context.Context, token string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.liveLocked(token)
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.items, token)
	s.currentSize -= e.size
	return e.value, nil
}

// Delete removes the value
func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.items[token]; ok {
		delete(s.items, token)
		s.currentSize -= e.size
	}
	return nil
}

// Len returns the number of unexpired entries
func (s *MemoryStore) Len(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int64
	for _, e := range s.items {
		if now.Before(e.expiry) {
			n++
		}
	}
	return n, nil
}

// Size returns the bytes currently held
func (s *MemoryStore) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSize
}

// Close stops the janitor
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
	})
	return nil
}

// liveLocked returns the entry if present and unexpired, evicting it when expired
func (s *MemoryStore) liveLocked(token string) (*entry, bool) {
	e, ok := s.items[token]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expiry) {
		delete(s.items, token)
		s.currentSize -= e.size
		return nil, false
	}
	return e, true
}

func (s *MemoryStore) janitor(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			s.removeExpiredLocked()
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) removeExpiredLocked() {
	now := s.now()
	for token, e := range s.items {
		if !now.Before(e.expiry) {
			delete(s.items, token)
			s.currentSize -= e.size
		}
	}
}

// makeRoomLocked evicts expired entries, then the entries closest to expiry
func (s *MemoryStore) makeRoomLocked(needed int64) {
	if s.maxBytes <= 0 || s.currentSize+needed <= s.maxBytes {
		return
	}
	s.removeExpiredLocked()
	for s.currentSize+needed > s.maxBytes && len(s.items) > 0 {
		var victim string
		var soonest time.Time
		for token, e := range s.items {
			if victim == "" || e.expiry.Before(soonest) {
				victim, soonest = token, e.expiry
			}
		}
		s.currentSize -= s.items[victim].size
		delete(s.items, victim)
	}
}
