package listing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-directory-search/internal/types"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisViewCounter(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	counter := NewRedisViewCounter(client)

	viewed := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	unseen := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	n, err := counter.Increment(ctx, viewed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = counter.Increment(ctx, viewed)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	stored, err := mr.Get(viewKeyPrefix + viewed.String())
	require.NoError(t, err)
	assert.Equal(t, "2", stored)

	corrupt := uuid.MustParse("00000000-0000-0000-0000-000000000003")
	require.NoError(t, mr.Set(viewKeyPrefix+corrupt.String(), "x"))

	counts, err := counter.Counts(ctx, []uuid.UUID{viewed, unseen, corrupt})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int64{viewed: 2}, counts)

	empty, err := counter.Counts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRedisViewCounter_Unavailable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	mr, client := setupRedis(t)
	mr.Close()

	counter := NewRedisViewCounter(client)
	_, err := counter.Increment(ctx, uuid.New())
	assert.Error(t, err)
	_, err = counter.Counts(ctx, []uuid.UUID{uuid.New()})
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr, _ := setupRedis(t)

	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	_, err = NewRedisClient(context.Background(), "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}

func TestResolveOrigin(t *testing.T) {
	home := types.GeoPoint{City: "Bergerac"}
	ctx := context.Background()

	t.Run("uses located position", func(t *testing.T) {
		got, ok := ResolveOrigin(ctx, HeaderLocator("44.9, 0.5"), time.Second, home, discardLogger())
		assert.True(t, ok)
		require.NotNil(t, got.Coordinates)
		assert.Equal(t, 44.9, got.Coordinates.Latitude)
		assert.Equal(t, 0.5, got.Coordinates.Longitude)
	})

	t.Run("denied falls back", func(t *testing.T) {
		got, ok := ResolveOrigin(ctx, HeaderLocator(""), time.Second, home, discardLogger())
		assert.False(t, ok)
		assert.Equal(t, home, got)
	})

	t.Run("malformed falls back", func(t *testing.T) {
		for _, v := range []string{"44.9", "north,0.5", "95,0.5", "44.9,200", "NaN,0.5", "44.9,NaN"} {
			got, ok := ResolveOrigin(ctx, HeaderLocator(v), time.Second, home, discardLogger())
			assert.False(t, ok, v)
			assert.Equal(t, home, got, v)
		}
	})

	t.Run("timeout falls back", func(t *testing.T) {
		slow := func(ctx context.Context) (types.GeoPoint, error) {
			<-ctx.Done()
			time.Sleep(50 * time.Millisecond)
			return types.GeoPoint{City: "Eymet"}, nil
		}
		start := time.Now()
		got, ok := ResolveOrigin(ctx, slow, 20*time.Millisecond, home, discardLogger())
		assert.False(t, ok)
		assert.Equal(t, home, got)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("nil locator", func(t *testing.T) {
		got, ok := ResolveOrigin(ctx, nil, time.Second, home, discardLogger())
		assert.False(t, ok)
		assert.Equal(t, home, got)
	})
}
