package services

import (
	"context"
	"time"

	"tablestakes/internal/core/domain"
)

// SnapshotStore is the shared key-value store every client syncs through.
// Get returns domain.ErrSnapshotNotFound when the key holds no snapshot.
// Put overwrites the whole value and refreshes its expiry.
type SnapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// Subscriber is implemented by stores that can push change notifications.
// The channel closes when ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, key string) (<-chan struct{}, error)
}

// SnapshotCatalog is the server-side view of a store backend
type SnapshotCatalog interface {
	SnapshotStore
	List(ctx context.Context, offset, limit int) ([]domain.SnapshotInfo, int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Ping(ctx context.Context) error
}
