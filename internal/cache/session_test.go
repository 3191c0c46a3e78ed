package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FloorSignin/pkg/errors"
	"FloorSignin/utils"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newFileSessionStore(t *testing.T, clock *fakeClock) (*FileSessionStore, string) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileSessionStore(path)
	store.now = clock.Now
	return store, path
}

func TestFileSessionStoreSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 10, 18, 8, 0, 0, 123456789, utils.Shanghai)}
	store, _ := newFileSessionStore(t, clock)

	saved, err := store.Save(ctx, "a@x.com", "key-1", "10086", DefaultSessionValidity)
	require.NoError(t, err)
	assert.WithinDuration(t, clock.t.Add(60*time.Minute), saved.ExpiresAt, time.Microsecond)

	loaded, err := store.Load(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, saved.AuthKey, loaded.AuthKey)
	assert.Equal(t, saved.UserID, loaded.UserID)
	assert.True(t, saved.ExpiresAt.Equal(loaded.ExpiresAt))
}

func TestFileSessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 10, 18, 8, 0, 0, 0, utils.Shanghai)}
	store, _ := newFileSessionStore(t, clock)

	_, err := store.Save(ctx, "a@x.com", "key-1", "10086", 10*time.Minute)
	require.NoError(t, err)

	clock.t = clock.t.Add(9 * time.Minute)
	loaded, err := store.Load(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotNil(t, loaded)

	clock.t = clock.t.Add(time.Minute)
	loaded, err = store.Load(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, loaded, "now == expiresAt is expired")
}

func TestFileSessionStoreOverwrites(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 10, 18, 8, 0, 0, 0, utils.Shanghai)}
	store, _ := newFileSessionStore(t, clock)

	_, err := store.Save(ctx, "a@x.com", "old", "1", time.Hour)
	require.NoError(t, err)
	_, err = store.Save(ctx, "b@x.com", "other", "2", time.Hour)
	require.NoError(t, err)
	_, err = store.Save(ctx, "a@x.com", "new", "1", time.Hour)
	require.NoError(t, err)

	a, err := store.Load(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "new", a.AuthKey)

	b, err := store.Load(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, "other", b.AuthKey)
}

func TestFileSessionStoreReadsLegacyFile(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 18, 8, 0, 0, 0, utils.Shanghai)}
	store, path := newFileSessionStore(t, clock)

	legacy := `{
    "a@x.com": {"_key": "k", "user_id": 10086, "expire_time": "2026-10-18T08:30:00.654321+08:00"},
    "b@x.com": {"_key": "k", "user_id": 1, "expire_time": "yesterday"}
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	a, err := store.Load(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "10086", a.UserID)

	b, err := store.Load(context.Background(), "b@x.com")
	require.NoError(t, err)
	assert.Nil(t, b, "unparsable expire_time is a cache miss")

	// 数字形式的 user_id 写回时仍保持数字
	_, err = store.Save(context.Background(), "c@x.com", "k", "42", time.Hour)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"user_id": 42`)
	assert.Contains(t, string(data), `"user_id": 10086`)
}

func TestFileSessionStoreMalformedExpireTimeIsMiss(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 18, 8, 0, 0, 0, utils.Shanghai)}
	store, path := newFileSessionStore(t, clock)

	data := `{
    "b@x.com": {"_key": "kb", "user_id": 2, "expire_time": 123},
    "c@x.com": {"_key": "kc", "user_id": 3, "expire_time": null},
    "d@x.com": {"_key": "kd", "user_id": 4},
    "a@x.com": {"_key": "ka", "user_id": 1, "expire_time": "2099-01-01T00:00:00+08:00"}
}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	a, err := store.Load(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "ka", a.AuthKey)

	for _, id := range []string{"b@x.com", "c@x.com", "d@x.com"} {
		tok, err := store.Load(context.Background(), id)
		require.NoError(t, err, id)
		assert.Nil(t, tok, id)
	}

	// 回写时其他账号的原始记录保持不变
	_, err = store.Save(context.Background(), "d@x.com", "kd2", "4", time.Hour)
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"expire_time": 123`)

	d, err := store.Load(context.Background(), "d@x.com")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "kd2", d.AuthKey)
}

func TestFileSessionStoreCorruptFile(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	store, path := newFileSessionStore(t, clock)
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	_, err := store.Load(context.Background(), "a@x.com")
	assert.True(t, errors.Is(err, errors.StoreCorrupt))
}
