package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/SymbolBoard/internal/models"
)

// ErrInvalidSettings is returned for settings that fail validation.
var ErrInvalidSettings = errors.New("invalid settings")

// RemoteStore is the owner-scoped remote persistence contract.
type RemoteStore interface {
	// Read returns the payload stored under key and whether it exists.
	Read(ctx context.Context, ownerID, key string) ([]byte, bool, error)
	// Write stores payload under key.
	Write(ctx context.Context, ownerID, key string, payload []byte) error
	// Delete removes key. Deleting an absent key succeeds.
	Delete(ctx context.Context, ownerID, key string) error
}

// BatchReader is implemented by remote stores that can fetch many records in
// one round trip. ReconcileAll prefers it over one Read per key.
type BatchReader interface {
	ReadMany(ctx context.Context, ownerID string, keys []string) ([]models.RemoteRecord, error)
}

type remoteRead func(ctx context.Context) ([]byte, bool, error)

// LocalStore is the durable on-device record store.
type LocalStore interface {
	Get(ctx context.Context, ownerID, key string) (models.SyncableRecord, bool, error)
	Put(ctx context.Context, rec models.SyncableRecord) error
	Delete(ctx context.Context, ownerID, key string) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.SyncableRecord, error)
	ListUnsynced(ctx context.Context, ownerID string) ([]models.SyncableRecord, error)
}

// Status describes the outcome of one sync operation on one record. Sync
// failures are reported here instead of being returned as errors.
type Status struct {
	Key     string
	State   models.SyncState
	Message string
	Err     error
}

// OK reports whether the operation completed without error.
func (s Status) OK() bool { return s.Err == nil }

func (s Status) String() string {
	if s.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", s.Key, s.Message, s.State, s.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", s.Key, s.Message, s.State)
}

// StatusFunc observes every Status produced by a SyncService.
type StatusFunc func(Status)

// Option configures a SyncService.
type Option func(*SyncService)

// WithStatusFunc registers an observer for sync statuses.
func WithStatusFunc(fn StatusFunc) Option {
	return func(s *SyncService) { s.onStatus = fn }
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *SyncService) { s.now = now }
}

// SyncService drives records through LocalUnsynced, SyncPending and Synced.
// Every local mutation is written locally first and then pushed to the
// remote store. Writes to the same key are serialised; unrelated keys never
// wait on each other.
type SyncService struct {
	local    LocalStore
	remote   RemoteStore
	log      *zap.Logger
	locks    *keyedMutex
	validate *validator.Validate
	now      func() time.Time
	onStatus StatusFunc
}

// NewSyncService constructs a SyncService.
func NewSyncService(local LocalStore, remote RemoteStore, log *zap.Logger, opts ...Option) *SyncService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &SyncService{
		local:    local,
		remote:   remote,
		log:      log,
		locks:    newKeyedMutex(),
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SyncService) report(st Status) Status {
	if st.Err != nil {
		s.log.Warn("record sync failed",
			zap.String("key", st.Key),
			zap.Stringer("state", st.State),
			zap.String("message", st.Message),
			zap.Error(st.Err))
	} else {
		s.log.Debug("record sync", zap.String("key", st.Key), zap.Stringer("state", st.State))
	}
	if s.onStatus != nil {
		s.onStatus(st)
	}
	return st
}

// Save writes payload locally and pushes it to the remote store.
func (s *SyncService) Save(ctx context.Context, ownerID string, kind models.RecordKind, key string, payload []byte) Status {
	unlock := s.locks.Lock(ownerID + "\x00" + key)
	defer unlock()
	return s.saveLocked(ctx, models.SyncableRecord{OwnerID: ownerID, Key: key, Kind: kind, Payload: payload})
}

// Remove deletes a record locally and pushes the deletion. Until the remote
// store acknowledges it, the record is kept as a tombstone.
func (s *SyncService) Remove(ctx context.Context, ownerID, key string) Status {
	unlock := s.locks.Lock(ownerID + "\x00" + key)
	defer unlock()
	return s.removeLocked(ctx, ownerID, key)
}

func (s *SyncService) removeLocked(ctx context.Context, ownerID, key string) Status {
	rec := models.SyncableRecord{OwnerID: ownerID, Key: key, Kind: models.KindFromKey(key), Deleted: true}
	return s.saveLocked(ctx, rec)
}

// saveLocked runs the state machine for one mutation. The caller holds the
// key lock.
func (s *SyncService) saveLocked(ctx context.Context, rec models.SyncableRecord) Status {
	rec.State = models.LocalUnsynced
	rec.UpdatedAt = s.now().UnixMilli()
	if err := s.local.Put(ctx, rec); err != nil {
		return s.report(Status{Key: rec.Key, State: models.LocalUnsynced, Message: "local write failed", Err: err})
	}

	rec.State = models.SyncPending
	if err := s.local.Put(ctx, rec); err != nil {
		return s.report(Status{Key: rec.Key, State: models.LocalUnsynced, Message: "queue for sync failed", Err: err})
	}
	return s.push(ctx, rec)
}

// push sends a SyncPending record to the remote store and marks it Synced on
// acknowledgment. On failure the record stays SyncPending.
func (s *SyncService) push(ctx context.Context, rec models.SyncableRecord) Status {
	if rec.Deleted {
		if err := s.remote.Delete(ctx, rec.OwnerID, rec.Key); err != nil {
			return s.report(Status{Key: rec.Key, State: models.SyncPending, Message: "remote delete failed", Err: err})
		}
		if err := s.local.Delete(ctx, rec.OwnerID, rec.Key); err != nil {
			return s.report(Status{Key: rec.Key, State: models.SyncPending, Message: "local purge failed", Err: err})
		}
		return s.report(Status{Key: rec.Key, State: models.Synced, Message: "deleted"})
	}

	if err := s.remote.Write(ctx, rec.OwnerID, rec.Key, rec.Payload); err != nil {
		return s.report(Status{Key: rec.Key, State: models.SyncPending, Message: "remote write failed", Err: err})
	}
	rec.State = models.Synced
	if err := s.local.Put(ctx, rec); err != nil {
		return s.report(Status{Key: rec.Key, State: models.SyncPending, Message: "mark synced failed", Err: err})
	}
	return s.report(Status{Key: rec.Key, State: models.Synced, Message: "saved"})
}

// Reconcile applies the startup rule to one key: an existing remote snapshot
// overwrites the local payload and is marked Synced; otherwise an existing
// local record is pushed.
func (s *SyncService) Reconcile(ctx context.Context, ownerID, key string) Status {
	return s.reconcile(ctx, ownerID, key, func(ctx context.Context) ([]byte, bool, error) {
		return s.remote.Read(ctx, ownerID, key)
	})
}

func (s *SyncService) reconcile(ctx context.Context, ownerID, key string, read remoteRead) Status {
	unlock := s.locks.Lock(ownerID + "\x00" + key)
	defer unlock()

	local, hasLocal, err := s.local.Get(ctx, ownerID, key)
	if err != nil {
		return s.report(Status{Key: key, State: models.LocalUnsynced, Message: "local read failed", Err: err})
	}

	payload, hasRemote, err := read(ctx)
	if err != nil {
		return s.report(Status{Key: key, State: local.State, Message: "remote read failed", Err: err})
	}

	if hasRemote {
		rec := models.SyncableRecord{
			OwnerID:   ownerID,
			Key:       key,
			Kind:      models.KindFromKey(key),
			Payload:   payload,
			State:     models.Synced,
			UpdatedAt: s.now().UnixMilli(),
		}
		if err := s.local.Put(ctx, rec); err != nil {
			return s.report(Status{Key: key, State: local.State, Message: "local overwrite failed", Err: err})
		}
		return s.report(Status{Key: key, State: models.Synced, Message: "pulled"})
	}

	if !hasLocal {
		return Status{Key: key, State: models.Synced, Message: "absent"}
	}
	if local.State != models.SyncPending {
		local.State = models.SyncPending
		if err := s.local.Put(ctx, local); err != nil {
			return s.report(Status{Key: key, State: models.LocalUnsynced, Message: "queue for sync failed", Err: err})
		}
	}
	return s.push(ctx, local)
}

// ReconcileAll reconciles every local record of ownerID plus the extra keys,
// which name records that may exist only remotely.
func (s *SyncService) ReconcileAll(ctx context.Context, ownerID string, extra ...string) []Status {
	recs, err := s.local.ListByOwner(ctx, ownerID)
	if err != nil {
		return []Status{s.report(Status{Message: "list local records failed", Err: err})}
	}

	seen := make(map[string]bool)
	var keys []string
	for _, k := range extra {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, r := range recs {
		if !seen[r.Key] {
			seen[r.Key] = true
			keys = append(keys, r.Key)
		}
	}

	readFor := s.prefetch(ctx, ownerID, keys)
	statuses := make([]Status, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, k := range keys {
		g.Go(func() error {
			statuses[i] = s.reconcile(gctx, ownerID, k, readFor(k))
			return nil
		})
	}
	_ = g.Wait()
	return statuses
}

// prefetch reads keys in one batch when the remote supports it. When it does
// not, or the batch fails, every key falls back to its own Read.
func (s *SyncService) prefetch(ctx context.Context, ownerID string, keys []string) func(key string) remoteRead {
	single := func(key string) remoteRead {
		return func(ctx context.Context) ([]byte, bool, error) {
			return s.remote.Read(ctx, ownerID, key)
		}
	}
	batch, ok := s.remote.(BatchReader)
	if !ok || len(keys) == 0 {
		return single
	}
	recs, err := batch.ReadMany(ctx, ownerID, keys)
	if err != nil {
		s.log.Debug("batch read failed, reading records one by one", zap.Error(err))
		return single
	}
	found := make(map[string][]byte, len(recs))
	for _, r := range recs {
		found[r.Key] = r.Payload
	}
	return func(key string) remoteRead {
		return func(context.Context) ([]byte, bool, error) {
			p, ok := found[key]
			return p, ok, nil
		}
	}
}

// RetryPending pushes every record of ownerID that is not Synced.
func (s *SyncService) RetryPending(ctx context.Context, ownerID string) []Status {
	recs, err := s.local.ListUnsynced(ctx, ownerID)
	if err != nil {
		return []Status{s.report(Status{Message: "list unsynced records failed", Err: err})}
	}

	statuses := make([]Status, 0, len(recs))
	for _, r := range recs {
		if ctx.Err() != nil {
			break
		}
		statuses = append(statuses, s.retryOne(ctx, ownerID, r.Key))
	}
	return statuses
}

func (s *SyncService) retryOne(ctx context.Context, ownerID, key string) Status {
	unlock := s.locks.Lock(ownerID + "\x00" + key)
	defer unlock()

	// The record may have changed while waiting for the lock.
	rec, ok, err := s.local.Get(ctx, ownerID, key)
	if err != nil {
		return s.report(Status{Key: key, State: models.SyncPending, Message: "local read failed", Err: err})
	}
	if !ok || rec.Synced() {
		return Status{Key: key, State: models.Synced, Message: "already synced"}
	}
	if rec.State != models.SyncPending {
		rec.State = models.SyncPending
		if err := s.local.Put(ctx, rec); err != nil {
			return s.report(Status{Key: key, State: models.LocalUnsynced, Message: "queue for sync failed", Err: err})
		}
	}
	return s.push(ctx, rec)
}

// Pending returns the number of records of ownerID that are not Synced.
func (s *SyncService) Pending(ctx context.Context, ownerID string) (int, error) {
	recs, err := s.local.ListUnsynced(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

// saveJSON encodes v and saves it under key.
func saveJSON[T any](ctx context.Context, s *SyncService, ownerID string, kind models.RecordKind, key string, v T) Status {
	payload, err := json.Marshal(v)
	if err != nil {
		return s.report(Status{Key: key, State: models.LocalUnsynced, Message: "encode failed", Err: err})
	}
	return s.Save(ctx, ownerID, kind, key, payload)
}

// listKind decodes every live local record of kind, oldest first.
func listKind[T any](ctx context.Context, s *SyncService, ownerID string, kind models.RecordKind) ([]models.Record[T], error) {
	recs, err := s.local.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].UpdatedAt != recs[j].UpdatedAt {
			return recs[i].UpdatedAt < recs[j].UpdatedAt
		}
		return recs[i].Key < recs[j].Key
	})

	var out []models.Record[T]
	for _, r := range recs {
		if r.Kind != kind || r.Deleted {
			continue
		}
		typed, err := models.DecodeRecord[T](r)
		if err != nil {
			s.log.Warn("skipping undecodable record", zap.String("key", r.Key), zap.Error(err))
			continue
		}
		out = append(out, typed)
	}
	return out, nil
}

// LoadSettings returns the stored settings, normalised, or the defaults when
// none are stored.
func (s *SyncService) LoadSettings(ctx context.Context, ownerID string) (models.UserGridSettings, Status) {
	key := models.RecordKey(models.KindSettings, "")
	rec, ok, err := s.local.Get(ctx, ownerID, key)
	if err != nil {
		return models.DefaultSettings(), s.report(Status{Key: key, State: models.LocalUnsynced, Message: "local read failed", Err: err})
	}
	if !ok || rec.Deleted {
		return models.DefaultSettings(), Status{Key: key, State: models.Synced, Message: "defaults"}
	}
	typed, err := models.DecodeRecord[models.UserGridSettings](rec)
	if err != nil {
		return models.DefaultSettings(), s.report(Status{Key: key, State: rec.State, Message: "stored settings unreadable", Err: err})
	}
	return typed.Payload.Normalize(), Status{Key: key, State: rec.State, Message: "loaded"}
}

// SaveSettings validates and stores settings.
func (s *SyncService) SaveSettings(ctx context.Context, ownerID string, settings models.UserGridSettings) Status {
	key := models.RecordKey(models.KindSettings, "")
	levels := make([]string, len(settings.VisibleLevels))
	for i, l := range settings.VisibleLevels {
		levels[i] = strings.ToUpper(strings.TrimSpace(l))
	}
	settings.VisibleLevels = levels
	if err := s.validate.Struct(settings); err != nil {
		return s.report(Status{Key: key, State: models.LocalUnsynced, Message: "settings rejected", Err: fmt.Errorf("%w: %v", ErrInvalidSettings, err)})
	}
	return saveJSON(ctx, s, ownerID, models.KindSettings, key, settings.Normalize())
}

// FavoriteKey returns the record key of the favorite for label.
func FavoriteKey(label string) string {
	return models.RecordKey(models.KindFavorite, strings.ToLower(strings.TrimSpace(label)))
}

// ToggleFavorite flips the favorite state of label and reports whether it is
// now a favorite. The flip is derived from whether the remote store currently
// holds the favorite, so a retried toggle cannot double-apply. When the remote
// store cannot be read, local existence is used and the change stays pending.
func (s *SyncService) ToggleFavorite(ctx context.Context, ownerID, label string) (bool, Status) {
	key := FavoriteKey(label)
	unlock := s.locks.Lock(ownerID + "\x00" + key)
	defer unlock()

	_, exists, err := s.remote.Read(ctx, ownerID, key)
	if err != nil {
		s.log.Warn("favorite existence check failed, using local state", zap.String("key", key), zap.Error(err))
		rec, ok, lerr := s.local.Get(ctx, ownerID, key)
		if lerr != nil {
			return false, s.report(Status{Key: key, State: models.LocalUnsynced, Message: "local read failed", Err: lerr})
		}
		exists = ok && !rec.Deleted
	}

	if exists {
		return false, s.removeLocked(ctx, ownerID, key)
	}

	payload, err := json.Marshal(models.Favorite{Label: strings.TrimSpace(label)})
	if err != nil {
		return false, s.report(Status{Key: key, State: models.LocalUnsynced, Message: "encode failed", Err: err})
	}
	rec := models.SyncableRecord{OwnerID: ownerID, Key: key, Kind: models.KindFavorite, Payload: payload}
	return true, s.saveLocked(ctx, rec)
}

// Favorites returns the favorite labels of ownerID, oldest first.
func (s *SyncService) Favorites(ctx context.Context, ownerID string) ([]string, error) {
	recs, err := listKind[models.Favorite](ctx, s, ownerID, models.KindFavorite)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Payload.Label)
	}
	return out, nil
}

// CategoryEdit is a user edit of a category: its metadata and an optional
// replacement icon.
type CategoryEdit struct {
	Key   string `validate:"required"`
	Label string `validate:"required"`
	Image []byte
}

// SaveCategory writes the category metadata and image as independent
// records, so a failed image upload does not hold back the metadata. The
// metadata status comes first.
func (s *SyncService) SaveCategory(ctx context.Context, ownerID string, edit CategoryEdit) []Status {
	metaKey := models.RecordKey(models.KindCategory, strings.ToLower(edit.Key))
	if err := s.validate.Struct(edit); err != nil {
		return []Status{s.report(Status{Key: metaKey, State: models.LocalUnsynced, Message: "category rejected", Err: err})}
	}

	meta := models.CategoryMeta{Key: strings.ToLower(edit.Key), Label: edit.Label}
	statuses := []Status{saveJSON(ctx, s, ownerID, models.KindCategory, metaKey, meta)}
	if len(edit.Image) > 0 {
		imgKey := models.RecordKey(models.KindCategoryImage, meta.Key)
		statuses = append(statuses, s.Save(ctx, ownerID, models.KindCategoryImage, imgKey, edit.Image))
	}
	return statuses
}

// Categories returns the user-edited category metadata of ownerID.
func (s *SyncService) Categories(ctx context.Context, ownerID string) ([]models.CategoryMeta, error) {
	recs, err := listKind[models.CategoryMeta](ctx, s, ownerID, models.KindCategory)
	if err != nil {
		return nil, err
	}
	out := make([]models.CategoryMeta, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Payload)
	}
	return out, nil
}

// CategoryImage returns the stored icon of a user-edited category.
func (s *SyncService) CategoryImage(ctx context.Context, ownerID, categoryKey string) ([]byte, bool, error) {
	rec, ok, err := s.local.Get(ctx, ownerID, models.RecordKey(models.KindCategoryImage, strings.ToLower(categoryKey)))
	if err != nil || !ok || rec.Deleted {
		return nil, false, err
	}
	return rec.Payload, true, nil
}

// SaveCustomWord stores a user-created card, assigning an ID to new words.
func (s *SyncService) SaveCustomWord(ctx context.Context, ownerID string, w models.CustomWord) (models.CustomWord, Status) {
	w.Label = strings.TrimSpace(w.Label)
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	key := models.RecordKey(models.KindCustomWord, w.ID)
	if w.Label == "" {
		return w, s.report(Status{Key: key, State: models.LocalUnsynced, Message: "custom word rejected", Err: errors.New("empty label")})
	}
	return w, saveJSON(ctx, s, ownerID, models.KindCustomWord, key, w)
}

// DeleteCustomWord removes a user-created card.
func (s *SyncService) DeleteCustomWord(ctx context.Context, ownerID, id string) Status {
	return s.Remove(ctx, ownerID, models.RecordKey(models.KindCustomWord, id))
}

// CustomWords returns the user-created cards of ownerID, oldest first.
func (s *SyncService) CustomWords(ctx context.Context, ownerID string) ([]models.CustomWord, error) {
	recs, err := listKind[models.CustomWord](ctx, s, ownerID, models.KindCustomWord)
	if err != nil {
		return nil, err
	}
	out := make([]models.CustomWord, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Payload)
	}
	return out, nil
}
