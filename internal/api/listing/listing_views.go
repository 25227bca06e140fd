package listing

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const viewKeyPrefix = "listing:views:"

// ViewCounter tracks detail page views outside of Postgres.
type ViewCounter interface {
	Increment(ctx context.Context, id uuid.UUID) (int64, error)
	// Counts returns the counter for each id that has one. Ids never viewed
	// are absent from the map.
	Counts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error)
}

var _ ViewCounter = (*RedisViewCounter)(nil)

type RedisViewCounter struct {
	client *redis.Client
}

func NewRedisViewCounter(client *redis.Client) *RedisViewCounter {
	return &RedisViewCounter{client: client}
}

func viewKey(id uuid.UUID) string {
	return viewKeyPrefix + id.String()
}

func (c *RedisViewCounter) Increment(ctx context.Context, id uuid.UUID) (int64, error) {
	n, err := c.client.Incr(ctx, viewKey(id)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment views for %s: %w", id, err)
	}
	return n, nil
}

func (c *RedisViewCounter) Counts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64)
	if len(ids) == 0 {
		return counts, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = viewKey(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read view counts: %w", err)
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		counts[ids[i]] = n
	}
	return counts, nil
}

// NewRedisClient opens a client and checks it answers.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
