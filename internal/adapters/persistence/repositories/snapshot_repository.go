package repositories

import (
	"context"
	"errors"
	"time"

	"tablestakes/internal/adapters/persistence/models"
	"tablestakes/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// snapshotRepository implements SnapshotRepository interface
type snapshotRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db, now: time.Now}
}

// Get gets a live snapshot by key
func (r *snapshotRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var row models.SessionSnapshot
	err := r.db.WithContext(ctx).
		Where("`key` = ? AND expires_at > ?", key, r.now()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, err
	}
	return row.Payload, nil
}

// Put upserts the snapshot and slides its expiry
func (r *snapshotRepository) Put(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = domain.DefaultSnapshotTTL
	}
	row := models.SessionSnapshot{
		Key:       key,
		Payload:   data,
		ExpiresAt: r.now().Add(ttl),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "expires_at", "updated_at"}),
	}).Create(&row).Error
}

// List lists live snapshots, most recently written first
func (r *snapshotRepository) List(ctx context.Context, offset, limit int) ([]domain.SnapshotInfo, int64, error) {
	var rows []models.SessionSnapshot
	var total int64

	query := r.db.WithContext(ctx).Model(&models.SessionSnapshot{}).Where("expires_at > ?", r.now())
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	infos := make([]domain.SnapshotInfo, 0, len(rows))
	for _, row := range rows {
		code, _ := domain.CodeFromKey(row.Key)
		infos = append(infos, domain.SnapshotInfo{
			Key:        row.Key,
			Code:       code,
			LastUpdate: domain.PeekLastUpdate(row.Payload),
			ExpiresAt:  row.ExpiresAt,
			UpdatedAt:  row.UpdatedAt,
		})
	}
	return infos, total, nil
}

// DeleteExpired deletes snapshots whose expiry has passed
func (r *snapshotRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.SessionSnapshot{})
	return result.RowsAffected, result.Error
}

// Ping checks the database connection
func (r *snapshotRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
