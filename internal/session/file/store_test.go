package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/IbrahimJenberu/smart-banking-system/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "portal", "session.json"))
	require.NoError(t, err)
	return store
}

func TestNewStore_RequiresPath(t *testing.T) {
	_, err := NewStore("")
	assert.Error(t, err)
}

func TestStore_LoadMissingFile(t *testing.T) {
	store := newTestStore(t)

	rec, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.True(t, rec.Empty())
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	want := session.Record{Token: "t1", User: `{"id":1,"username":"alice","email":"a@x.com","role":"CUSTOMER"}`}

	require.NoError(t, store.Save(ctx, want))
	got, err := store.Load(ctx)

	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_ReopenSeesPersistedRecord(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	first, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, session.Record{Token: "t1", User: "{}"}))

	second, err := NewStore(path)
	require.NoError(t, err)
	rec, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", rec.Token)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Save(ctx, session.Record{Token: "t1", User: "{}"}))

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	rec, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, rec.Empty())
}

func TestStore_KeepsRawProfile(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Save(ctx, session.Record{Token: "t1", User: "undefined"}))
	rec, err := store.Load(ctx)

	require.NoError(t, err)
	assert.Equal(t, "undefined", rec.User, "the store does not interpret the profile")
}

func TestStore_UnreadableDocument(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("not json"), 0o600))

	_, err := store.Load(context.Background())

	assert.Error(t, err)
}

func TestStore_NoTempFilesLeftBehind(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, session.Record{Token: "t", User: "{}"}))
	}

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
