package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/kaczcards/card-show-finder-sub014/internal/models"
)

// Store persists fixed-window counters. Implementations must tolerate
// concurrent callers; read-then-write races may over-admit slightly.
type Store interface {
	// Live returns the non-expired record for (key, endpoint), or nil.
	Live(ctx context.Context, key, endpoint string, now time.Time) (*models.RateLimitRecord, error)
	// Create starts a new window, replacing any expired record.
	Create(ctx context.Context, rec *models.RateLimitRecord) error
	// Increment adds one to the record's count and returns the new count.
	Increment(ctx context.Context, rec *models.RateLimitRecord, now time.Time) (int, error)
	// DeleteExpired removes records whose window ended before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// MemoryStore keeps counters in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]models.RateLimitRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.RateLimitRecord)}
}

func memoryKey(key, endpoint string) string {
	return key + "\x00" + endpoint
}

// Live implements Store.
func (s *MemoryStore) Live(_ context.Context, key, endpoint string, now time.Time) (*models.RateLimitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[memoryKey(key, endpoint)]
	if !ok || rec.Expired(now) {
		return nil, nil
	}
	return &rec, nil
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, rec *models.RateLimitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[memoryKey(rec.Key, rec.Endpoint)] = *rec
	return nil
}

// Increment implements Store.
func (s *MemoryStore) Increment(_ context.Context, rec *models.RateLimitRecord, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memoryKey(rec.Key, rec.Endpoint)
	cur, ok := s.records[k]
	if !ok {
		cur = *rec
	}
	cur.Count++
	cur.LastRequestAt = now
	s.records[k] = cur
	rec.Count = cur.Count
	rec.LastRequestAt = now
	return cur.Count, nil
}

// DeleteExpired implements Store.
func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, k)
			n++
		}
	}
	return n, nil
}
