package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		_ = Close()
		mr.Close()
	})
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (cachedThing, error) {
		calls++
		return cachedThing{ID: 1, Name: "alice"}, nil
	}

	first, err := Aside(ctx, UserKey(1), UserTTL, fetch)
	require.NoError(t, err)
	assert.Equal(t, "alice", first.Name)
	assert.True(t, mr.Exists("warbler:user:1"))
	assert.Equal(t, UserTTL, mr.TTL("warbler:user:1"))

	second, err := Aside(ctx, UserKey(1), UserTTL, fetch)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	InvalidateUser(ctx, 1)
	assert.False(t, mr.Exists("warbler:user:1"))
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := setupMiniredis(t)

	boom := errors.New("boom")
	_, err := Aside(context.Background(), UserKey(2), time.Minute, func() (cachedThing, error) {
		return cachedThing{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("warbler:user:2"))
}

func TestAside_CorruptEntryFallsBackToFetch(t *testing.T) {
	mr := setupMiniredis(t)
	require.NoError(t, mr.Set("warbler:user:4", "{not json"))

	got, err := Aside(context.Background(), UserKey(4), time.Minute, func() (cachedThing, error) {
		return cachedThing{ID: 4, Name: "dave"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "dave", got.Name)

	cached, ok, err := Get[cachedThing](context.Background(), UserKey(4))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, got, cached)
}

func TestAside_NoClientCallsFetch(t *testing.T) {
	SetClient(nil)

	calls := 0
	for i := 0; i < 2; i++ {
		_, err := Aside(context.Background(), UserKey(3), time.Minute, func() (cachedThing, error) {
			calls++
			return cachedThing{}, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestInvalidate_MultipleKeys(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()
	require.NoError(t, Set(ctx, UserKey(5), cachedThing{ID: 5}, time.Minute))
	require.NoError(t, Set(ctx, UserKey(6), cachedThing{ID: 6}, time.Minute))

	Invalidate(ctx, UserKey(5), UserKey(6))
	assert.Empty(t, mr.Keys())
}

func TestInitRedis_Unreachable(t *testing.T) {
	InitRedis("127.0.0.1:1")
	assert.Nil(t, GetClient())

	InitRedis("redis://%%bad")
	assert.Nil(t, GetClient())
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)

	opts, err = parseOptions("redis://:secret@cache:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	_, err = parseOptions("  ")
	assert.Error(t, err)
}

func TestInitRedis_Miniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	InitRedis(mr.Addr())
	require.NotNil(t, GetClient())
	require.NoError(t, Close())
	assert.Nil(t, GetClient())
}
