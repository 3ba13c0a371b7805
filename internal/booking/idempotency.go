package booking

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/lodgeline/booking-engine/internal/domain"
)

// idempotencyStore remembers successful submission results per Idempotency-Key
// so a replayed request (double-click, network retry) returns the original
// confirmation instead of creating a second reservation upstream. In-process
// only; the engine has no datastore of its own.
type idempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]idempotencyEntry
}

type idempotencyEntry struct {
	result   *domain.ReservationResult
	storedAt time.Time
}

func newIdempotencyStore(ttl time.Duration) *idempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &idempotencyStore{
		ttl:     ttl,
		entries: make(map[string]idempotencyEntry),
	}
}

// Keys are hashed for consistent length, matching how they would be stored at rest.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", sum)
}

func (s *idempotencyStore) get(key string) (*domain.ReservationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[hashKey(key)]
	if !ok {
		return nil, false
	}
	if time.Since(entry.storedAt) > s.ttl {
		delete(s.entries, hashKey(key))
		return nil, false
	}
	return entry.result, true
}

func (s *idempotencyStore) put(key string, result *domain.ReservationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[hashKey(key)] = idempotencyEntry{result: result, storedAt: time.Now()}
}
