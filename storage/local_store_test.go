package storage

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disciplinebaby/logging"
	"disciplinebaby/models"
)

func setupLocalStore(t *testing.T) (*LocalStore, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	store, err := NewLocalStore(fsys, "/data", logging.Discard())
	require.NoError(t, err)
	return store, fsys
}

func TestLocalStore_FileNames(t *testing.T) {
	ctx := context.Background()
	store, fsys := setupLocalStore(t)

	for _, kind := range Kinds {
		require.NoError(t, store.Put(ctx, Key{Kind: kind, UserID: testUser}, []string{}))
	}

	for _, name := range []string{"user-v2.json", "tasks-v2.json", "achievements-v3.json", "rewards-v1.json"} {
		exists, err := afero.Exists(fsys, "/data/"+name)
		require.NoError(t, err)
		assert.True(t, exists, name)
	}
	tmp, err := afero.Glob(fsys, "/data/*.tmp")
	require.NoError(t, err)
	assert.Empty(t, tmp)
}

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := setupLocalStore(t)
	key := Key{Kind: KindTasks, UserID: testUser}

	var got []models.Task
	found, err := store.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)

	tasks := sampleTasks()
	require.NoError(t, store.Put(ctx, key, tasks))
	found, err = store.Get(ctx, key, &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, tasks, got)

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))
	found, err = store.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLocalStore_MalformedFileIsAbsent(t *testing.T) {
	store, fsys := setupLocalStore(t)
	require.NoError(t, afero.WriteFile(fsys, "/data/user-v2.json", []byte("{oops"), 0o644))

	var u models.User
	found, err := store.Get(context.Background(), Key{Kind: KindUser, UserID: testUser}, &u)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLocalStore_ReadOnlyFs(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/data", 0o755))
	store, err := NewLocalStore(afero.NewReadOnlyFs(base), "/data", logging.Discard())
	require.NoError(t, err)

	err = store.Put(context.Background(), Key{Kind: KindUser, UserID: testUser}, models.DefaultUser(testUser))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}
