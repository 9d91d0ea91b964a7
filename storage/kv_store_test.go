package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disciplinebaby/logging"
	"disciplinebaby/models"
)

func setupRedisStore(t *testing.T) (*KeyValueStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	client := NewRedisClientFrom(rdb)
	t.Cleanup(func() { _ = client.Close() })
	return NewKeyValueStore(client, logging.Discard()), mr
}

func TestKeyValueStore_KeyLayout(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisStore(t)

	require.NoError(t, store.Put(ctx, Key{Kind: KindTasks, UserID: testUser}, sampleTasks()))

	assert.True(t, mr.Exists("tasks:"+testUser))
	raw, err := mr.Get("tasks:" + testUser)
	require.NoError(t, err)
	assert.Contains(t, raw, `"dueDate":"2024-05-06"`)
	assert.Contains(t, raw, `"daysOfWeek":["mon","wed"]`)
}

func TestKeyValueStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := setupRedisStore(t)
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
	found, err = store.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Delete(ctx, key), "deleting a missing key is fine")
}

func TestKeyValueStore_MalformedValueIsAbsent(t *testing.T) {
	store, mr := setupRedisStore(t)
	require.NoError(t, mr.Set("user:"+testUser, "{not json"))

	var u models.User
	found, err := store.Get(context.Background(), Key{Kind: KindUser, UserID: testUser}, &u)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKeyValueStore_ServerDownIsUnavailable(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisStore(t)
	mr.Close()

	var u models.User
	found, err := store.Get(ctx, Key{Kind: KindUser, UserID: testUser}, &u)
	assert.False(t, found)
	assert.ErrorIs(t, err, ErrUnavailable)

	err = store.Put(ctx, Key{Kind: KindUser, UserID: testUser}, models.DefaultUser(testUser))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestKeyValueStore_PutBatchEncodesFirst(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisStore(t)

	err := store.PutBatch(ctx, []Entry{
		{Key: Key{Kind: KindUser, UserID: testUser}, Value: models.DefaultUser(testUser)},
		{Key: Key{Kind: KindTasks, UserID: testUser}, Value: func() {}},
	})
	require.Error(t, err)
	assert.False(t, mr.Exists("user:"+testUser), "nothing written when an entry cannot be encoded")

	require.NoError(t, store.PutBatch(ctx, []Entry{
		{Key: Key{Kind: KindUser, UserID: testUser}, Value: models.DefaultUser(testUser)},
		{Key: Key{Kind: KindRewards, UserID: testUser}, Value: models.DefaultRewards(testUser)},
	}))
	assert.True(t, mr.Exists("user:"+testUser))
	assert.True(t, mr.Exists("rewards:"+testUser))
}

// fakeKV is an in-memory KVClient that can be told to fail.
type fakeKV struct {
	data map[string][]byte
	err  error
}

func newFakeKV() *fakeKV { return &fakeKV{data: make(map[string][]byte)} }

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.data, key)
	return nil
}

func (f *fakeKV) Ping(context.Context) error { return f.err }
func (f *fakeKV) Close() error               { return nil }

func TestKeyValueStore_ApplicationErrorsAreNotUnavailable(t *testing.T) {
	kv := newFakeKV()
	kv.err = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	store := NewKeyValueStore(kv, logging.Discard())

	err := store.Put(context.Background(), Key{Kind: KindUser, UserID: testUser}, models.DefaultUser(testUser))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestRedisError(t *testing.T) {
	assert.NoError(t, redisError(nil))
	assert.NotErrorIs(t, redisError(redis.Nil), ErrUnavailable)
	assert.ErrorIs(t, redisError(errors.New("dial tcp: connection refused")), ErrUnavailable)
}
