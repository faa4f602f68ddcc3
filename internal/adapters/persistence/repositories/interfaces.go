package repositories

import (
	"context"
	"time"

	"tablestakes/internal/core/domain"
)

// SnapshotRepository defines snapshot repository interface
type SnapshotRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, ttl time.Duration) error
	List(ctx context.Context, offset, limit int) ([]domain.SnapshotInfo, int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Ping(ctx context.Context) error
}
