package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/SymbolBoard/internal/db"
	"github.com/atinyakov/SymbolBoard/internal/models"
	"github.com/atinyakov/SymbolBoard/internal/service"
)

var _ service.LocalStore = (*SQLiteStore)(nil)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	conn, err := db.InitSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewSQLiteStore(conn)
}

func TestSQLiteStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, ok, err := s.Get(ctx, "alice", "settings")
	require.NoError(t, err)
	assert.False(t, ok)

	rec := models.SyncableRecord{
		OwnerID:   "alice",
		Key:       "settings",
		Kind:      models.KindSettings,
		Payload:   []byte(`{"grid_size":"small"}`),
		State:     models.SyncPending,
		UpdatedAt: 10,
	}
	require.NoError(t, s.Put(ctx, rec))

	got, ok, err := s.Get(ctx, "alice", "settings")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, got)

	rec.State = models.Synced
	rec.UpdatedAt = 11
	require.NoError(t, s.Put(ctx, rec))
	got, _, _ = s.Get(ctx, "alice", "settings")
	assert.Equal(t, models.Synced, got.State)
	assert.Equal(t, int64(11), got.UpdatedAt)
}

func TestSQLiteStore_Tombstone(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, models.SyncableRecord{OwnerID: "alice", Key: "favorite/dog", Kind: models.KindFavorite, Deleted: true, State: models.SyncPending}))
	got, ok, err := s.Get(ctx, "alice", "favorite/dog")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Deleted)
	assert.Empty(t, got.Payload)

	require.NoError(t, s.Delete(ctx, "alice", "favorite/dog"))
	_, ok, _ = s.Get(ctx, "alice", "favorite/dog")
	assert.False(t, ok)
}

func TestSQLiteStore_Lists(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	recs := []models.SyncableRecord{
		{OwnerID: "alice", Key: "favorite/b", Kind: models.KindFavorite, State: models.Synced, UpdatedAt: 3},
		{OwnerID: "alice", Key: "favorite/a", Kind: models.KindFavorite, State: models.SyncPending, UpdatedAt: 2},
		{OwnerID: "alice", Key: "settings", Kind: models.KindSettings, State: models.LocalUnsynced, UpdatedAt: 1},
		{OwnerID: "bob", Key: "settings", Kind: models.KindSettings, State: models.SyncPending, UpdatedAt: 1},
	}
	for _, r := range recs {
		require.NoError(t, s.Put(ctx, r))
	}

	all, err := s.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"settings", "favorite/a", "favorite/b"}, []string{all[0].Key, all[1].Key, all[2].Key})

	unsynced, err := s.ListUnsynced(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, unsynced, 2)
	for _, r := range unsynced {
		assert.False(t, r.Synced())
		assert.Equal(t, "alice", r.OwnerID)
	}
}

func TestSQLiteStore_DrivesSyncService(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	remote := &mapRemote{data: map[string][]byte{}}
	svc := service.NewSyncService(s, remote, nil)

	on, st := svc.ToggleFavorite(ctx, "alice", "Sun")
	require.True(t, st.OK(), st.String())
	assert.True(t, on)

	favs, err := svc.Favorites(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sun"}, favs)

	on, _ = svc.ToggleFavorite(ctx, "alice", "Sun")
	assert.False(t, on)
	all, _ := s.ListByOwner(ctx, "alice")
	assert.Empty(t, all)
}

type mapRemote struct {
	data map[string][]byte
}

func (m *mapRemote) Read(_ context.Context, owner, key string) ([]byte, bool, error) {
	p, ok := m.data[owner+"|"+key]
	return p, ok, nil
}

func (m *mapRemote) Write(_ context.Context, owner, key string, payload []byte) error {
	m.data[owner+"|"+key] = payload
	return nil
}

func (m *mapRemote) Delete(_ context.Context, owner, key string) error {
	delete(m.data, owner+"|"+key)
	return nil
}
