package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultSnapshotTTL is the sliding expiry applied when a writer passes none
const DefaultSnapshotTTL = 24 * time.Hour

// EncodeSnapshot serializes the whole session for the store
func EncodeSnapshot(s Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return data, nil
}

// DecodeSnapshot parses a stored snapshot. A payload that decodes but does
// not describe a session is rejected the same way as malformed JSON.
func DecodeSnapshot(data []byte) (Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if !ValidCode(s.Code) {
		return Session{}, fmt.Errorf("%w: invalid session code %q", ErrSerialization, s.Code)
	}
	if s.LastUpdate.IsZero() {
		return Session{}, fmt.Errorf("%w: missing lastUpdate", ErrSerialization)
	}
	return s, nil
}

// SnapshotInfo describes one stored snapshot without its payload
type SnapshotInfo struct {
	Key        string     `json:"key"`
	Code       string     `json:"code"`
	LastUpdate *time.Time `json:"lastUpdate,omitempty"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// PeekLastUpdate extracts lastUpdate from a payload without decoding the
// whole session. It returns nil when the payload carries none.
func PeekLastUpdate(data []byte) *time.Time {
	var head struct {
		LastUpdate time.Time `json:"lastUpdate"`
	}
	if err := json.Unmarshal(data, &head); err != nil || head.LastUpdate.IsZero() {
		return nil
	}
	return &head.LastUpdate
}
