package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Session snapshots
// ============================================================

// SessionSnapshot represents session_snapshots table. One row per session
// key; every write replaces the payload in full.
type SessionSnapshot struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Payload   []byte    `gorm:"type:longblob;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SessionSnapshot) TableName() string {
	return "session_snapshots"
}

// AutoMigrate runs auto migration for the snapshot tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&SessionSnapshot{},
	)
}
