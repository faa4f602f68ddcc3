// Package memory is a process-local snapshot store with change
// notifications. It backs single-process deployments and tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"tablestakes/internal/core/domain"
)

type entry struct {
	data      []byte
	expiresAt time.Time
	updatedAt time.Time
}

// Store keeps snapshots in a map guarded by a mutex
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	subs    map[string]map[chan struct{}]struct{}
	now     func() time.Time
}

// NewStore creates a new in-memory store
func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock creates a new in-memory store that reads time from now
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		entries: make(map[string]entry),
		subs:    make(map[string]map[chan struct{}]struct{}),
		now:     now,
	}
}

// Get returns the snapshot stored under key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, domain.ErrSnapshotNotFound
	}
	return slices.Clone(e.data), nil
}

// Put overwrites key and notifies subscribers
func (s *Store) Put(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = domain.DefaultSnapshotTTL
	}
	now := s.now()
	s.mu.Lock()
	s.entries[key] = entry{data: slices.Clone(data), expiresAt: now.Add(ttl), updatedAt: now}
	for ch := range s.subs[key] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	s.mu.Unlock()
	return nil
}

// Subscribe returns a channel that fires after every Put to key
func (s *Store) Subscribe(ctx context.Context, key string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	if s.subs[key] == nil {
		s.subs[key] = make(map[chan struct{}]struct{})
	}
	s.subs[key][ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs[key], ch)
		if len(s.subs[key]) == 0 {
			delete(s.subs, key)
		}
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}

// List returns live snapshots ordered by most recent write
func (s *Store) List(ctx context.Context, offset, limit int) ([]domain.SnapshotInfo, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	now := s.now()
	s.mu.RLock()
	infos := make([]domain.SnapshotInfo, 0, len(s.entries))
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			continue
		}
		code, _ := domain.CodeFromKey(key)
		infos = append(infos, domain.SnapshotInfo{
			Key:        key,
			Code:       code,
			LastUpdate: domain.PeekLastUpdate(e.data),
			ExpiresAt:  e.expiresAt,
			UpdatedAt:  e.updatedAt,
		})
	}
	s.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].UpdatedAt.Equal(infos[j].UpdatedAt) {
			return infos[i].Key < infos[j].Key
		}
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})

	total := int64(len(infos))
	if offset >= len(infos) {
		return []domain.SnapshotInfo{}, total, nil
	}
	end := len(infos)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return infos[offset:end], total, nil
}

// DeleteExpired drops every snapshot whose expiry is not after now
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
			n++
		}
	}
	return n, nil
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
