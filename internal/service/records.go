// Package service provides the business logic of the board: the server-side
// record service in front of the records repository, and the client-side
// sync service that drives local records through their sync states.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/atinyakov/SymbolBoard/internal/models"
)

const (
	// MaxKeyLength bounds the length of a record key.
	MaxKeyLength = 256
	// MaxPayloadSize bounds a single record payload. Category images are the
	// largest payloads.
	MaxPayloadSize = 4 << 20
	// MaxBatchKeys bounds a single batch read.
	MaxBatchKeys = 500
)

var (
	// ErrInvalidKey is returned for keys that are not valid record keys.
	ErrInvalidKey = errors.New("invalid record key")
	// ErrPayloadTooLarge is returned for payloads over MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrTooManyKeys is returned for batch reads over MaxBatchKeys.
	ErrTooManyKeys = errors.New("too many keys")
	// ErrNoOwner is returned when a call carries no owner identity.
	ErrNoOwner = errors.New("missing owner identity")
)

// RecordRepository defines the persistence operations needed by the RecordService.
type RecordRepository interface {
	// Read returns a live record or models.ErrNotFound.
	Read(ctx context.Context, ownerID, key string) (models.RemoteRecord, error)
	// ReadMany returns the live records among keys.
	ReadMany(ctx context.Context, ownerID string, keys []string) ([]models.RemoteRecord, error)
	// List returns the live records whose key starts with prefix.
	List(ctx context.Context, ownerID, prefix string) ([]models.RemoteRecord, error)
	// Upsert writes a record, reviving it if it was deleted.
	Upsert(ctx context.Context, ownerID, key string, payload []byte, updatedAt int64) error
	// SoftDelete marks records as deleted.
	SoftDelete(ctx context.Context, ownerID string, keys []string, updatedAt int64) error
}

// RecordService implements the owner-scoped read/write/delete contract of
// the remote store.
type RecordService struct {
	repo RecordRepository
	now  func() time.Time
}

// NewRecordService constructs a RecordService with the provided RecordRepository.
func NewRecordService(repo RecordRepository) *RecordService {
	return &RecordService{repo: repo, now: time.Now}
}

// ValidateKey checks that key is "<kind>" for settings or "<kind>/<id>" for
// every other known kind.
func ValidateKey(key string) error {
	if key == "" || len(key) > MaxKeyLength {
		return fmt.Errorf("%w: length %d", ErrInvalidKey, len(key))
	}
	if strings.IndexFunc(key, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: control character", ErrInvalidKey)
	}
	kind, id, hasID := strings.Cut(key, "/")
	k := models.RecordKind(kind)
	if !k.Known() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidKey, kind)
	}
	if k == models.KindSettings {
		if hasID {
			return fmt.Errorf("%w: settings key takes no id", ErrInvalidKey)
		}
		return nil
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s key needs an id", ErrInvalidKey, kind)
	}
	return nil
}

func checkOwner(ownerID string) error {
	if ownerID == "" {
		return ErrNoOwner
	}
	return nil
}

// Get returns the record stored under key.
func (s *RecordService) Get(ctx context.Context, ownerID, key string) (models.RemoteRecord, error) {
	if err := checkOwner(ownerID); err != nil {
		return models.RemoteRecord{}, err
	}
	if err := ValidateKey(key); err != nil {
		return models.RemoteRecord{}, err
	}
	return s.repo.Read(ctx, ownerID, key)
}

// GetMany returns the existing records among keys.
func (s *RecordService) GetMany(ctx context.Context, ownerID string, keys []string) ([]models.RemoteRecord, error) {
	if err := checkOwner(ownerID); err != nil {
		return nil, err
	}
	if len(keys) > MaxBatchKeys {
		return nil, fmt.Errorf("%w: %d", ErrTooManyKeys, len(keys))
	}
	if len(keys) == 0 {
		return []models.RemoteRecord{}, nil
	}
	for _, k := range keys {
		if err := ValidateKey(k); err != nil {
			return nil, err
		}
	}
	return s.repo.ReadMany(ctx, ownerID, keys)
}

// List returns the records whose key starts with prefix.
func (s *RecordService) List(ctx context.Context, ownerID, prefix string) ([]models.RemoteRecord, error) {
	if err := checkOwner(ownerID); err != nil {
		return nil, err
	}
	recs, err := s.repo.List(ctx, ownerID, prefix)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []models.RemoteRecord{}
	}
	return recs, nil
}

// Put stores payload under key and returns the stored record.
func (s *RecordService) Put(ctx context.Context, ownerID, key string, payload []byte) (models.RemoteRecord, error) {
	if err := checkOwner(ownerID); err != nil {
		return models.RemoteRecord{}, err
	}
	if err := ValidateKey(key); err != nil {
		return models.RemoteRecord{}, err
	}
	if len(payload) > MaxPayloadSize {
		return models.RemoteRecord{}, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	if payload == nil {
		payload = []byte{}
	}
	rec := models.RemoteRecord{Key: key, Payload: payload, UpdatedAt: s.now().UnixMilli()}
	if err := s.repo.Upsert(ctx, ownerID, key, payload, rec.UpdatedAt); err != nil {
		return models.RemoteRecord{}, err
	}
	return rec, nil
}

// Delete removes the record stored under key. Deleting an absent record
// succeeds.
func (s *RecordService) Delete(ctx context.Context, ownerID, key string) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, ownerID, []string{key}, s.now().UnixMilli())
}
