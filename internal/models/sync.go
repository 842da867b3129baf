package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a record does not exist for an owner.
var ErrNotFound = errors.New("record not found")

// SyncState is the lifecycle state of a SyncableRecord.
type SyncState int

const (
	// LocalUnsynced marks a record created or mutated locally.
	LocalUnsynced SyncState = iota
	// SyncPending marks a record queued for a remote write.
	SyncPending
	// Synced marks a record acknowledged by the remote store.
	Synced
)

// String returns the string representation of the state.
func (s SyncState) String() string {
	switch s {
	case LocalUnsynced:
		return "local_unsynced"
	case SyncPending:
		return "sync_pending"
	case Synced:
		return "synced"
	default:
		return "unknown"
	}
}

// RecordKind tags what a SyncableRecord payload holds.
type RecordKind string

const (
	// KindSettings holds UserGridSettings.
	KindSettings RecordKind = "settings"
	// KindFavorite holds a favorite card label.
	KindFavorite RecordKind = "favorite"
	// KindCategory holds category metadata.
	KindCategory RecordKind = "category"
	// KindCategoryImage holds the raw category icon.
	KindCategoryImage RecordKind = "category_image"
	// KindCustomWord holds a CustomWord.
	KindCustomWord RecordKind = "custom_word"
)

// Known reports whether k is one of the defined kinds.
func (k RecordKind) Known() bool {
	switch k {
	case KindSettings, KindFavorite, KindCategory, KindCategoryImage, KindCustomWord:
		return true
	}
	return false
}

// KindFromKey returns the kind prefix of a record key built by RecordKey.
func KindFromKey(key string) RecordKind {
	kind, _, _ := strings.Cut(key, "/")
	return RecordKind(kind)
}

// SyncableRecord is a locally persisted payload together with its sync state.
type SyncableRecord struct {
	// OwnerID scopes the record to a user.
	OwnerID string `json:"owner_id"`
	// Key identifies the record within the owner's namespace.
	Key string `json:"key"`
	// Kind tags the payload.
	Kind RecordKind `json:"kind"`
	// Payload is the encoded value.
	Payload []byte `json:"payload"`
	// State is the sync lifecycle state.
	State SyncState `json:"state"`
	// UpdatedAt is the last local mutation in unix milliseconds.
	UpdatedAt int64 `json:"updated_at"`
	// Deleted marks a local removal that still has to reach the remote store.
	Deleted bool `json:"deleted,omitempty"`
}

// Synced reports whether the remote store acknowledged the current payload.
func (r SyncableRecord) Synced() bool {
	return r.State == Synced
}

// Record is a typed view of a SyncableRecord.
type Record[T any] struct {
	OwnerID string
	Key     string
	Payload T
	State   SyncState
}

// DecodeRecord decodes the payload of rec into a typed Record.
func DecodeRecord[T any](rec SyncableRecord) (Record[T], error) {
	var v T
	if err := json.Unmarshal(rec.Payload, &v); err != nil {
		return Record[T]{}, fmt.Errorf("decode %s record %q: %w", rec.Kind, rec.Key, err)
	}
	return Record[T]{OwnerID: rec.OwnerID, Key: rec.Key, Payload: v, State: rec.State}, nil
}

// RecordKey builds the storage key of a record of the given kind.
func RecordKey(kind RecordKind, id string) string {
	if id == "" {
		return string(kind)
	}
	return string(kind) + "/" + id
}

// RemoteRecord is a record as held by the remote store.
type RemoteRecord struct {
	Key       string `json:"key"`
	Payload   []byte `json:"payload"`
	UpdatedAt int64  `json:"updated_at"`
}

// Favorite is the payload of a favorite record.
type Favorite struct {
	Label string `json:"label"`
}

// CategoryMeta is the payload of a user-edited category record.
type CategoryMeta struct {
	Key   string `json:"key" validate:"required"`
	Label string `json:"label" validate:"required"`
}
