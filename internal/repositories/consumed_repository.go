package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ConsumedRepository remembers, per user, a bounded number of notification
// IDs that have already been responded to or dismissed.
type ConsumedRepository interface {
	MarkConsumed(ctx context.Context, userID, notificationID string) error
	ConsumedIDs(ctx context.Context, userID string) (map[string]bool, error)
}

// RedisConsumedRepository keeps one sorted set per user scored by the time
// the ID was consumed; the oldest entries are trimmed past limit.
type RedisConsumedRepository struct {
	client *redis.Client
	limit  int64
	ttl    time.Duration
}

func NewRedisConsumedRepository(client *redis.Client, limit int, ttl time.Duration) *RedisConsumedRepository {
	return &RedisConsumedRepository{client: client, limit: int64(limit), ttl: ttl}
}

func consumedKey(userID string) string {
	return "consumed:" + userID
}

func (r *RedisConsumedRepository) MarkConsumed(ctx context.Context, userID, notificationID string) error {
	key := consumedKey(userID)
	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(time.Now().UnixMilli()), Member: notificationID})
	pipe.ZRemRangeByRank(ctx, key, 0, -(r.limit + 1))
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "mark %s consumed for %s", notificationID, userID)
	}
	return nil
}

func (r *RedisConsumedRepository) ConsumedIDs(ctx context.Context, userID string) (map[string]bool, error) {
	ids, err := r.client.ZRange(ctx, consumedKey(userID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "read consumed set for %s", userID)
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// MemoryConsumedRepository is the single-process fallback used when Redis is
// not configured.
type MemoryConsumedRepository struct {
	mu    sync.Mutex
	limit int
	users map[string][]string
}

func NewMemoryConsumedRepository(limit int) *MemoryConsumedRepository {
	return &MemoryConsumedRepository{limit: limit, users: make(map[string][]string)}
}

func (r *MemoryConsumedRepository) MarkConsumed(_ context.Context, userID, notificationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.users[userID]
	for _, id := range ids {
		if id == notificationID {
			return nil
		}
	}
	ids = append(ids, notificationID)
	if over := len(ids) - r.limit; over > 0 {
		ids = append([]string(nil), ids[over:]...)
	}
	r.users[userID] = ids
	return nil
}

func (r *MemoryConsumedRepository) ConsumedIDs(_ context.Context, userID string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]bool, len(r.users[userID]))
	for _, id := range r.users[userID] {
		out[id] = true
	}
	return out, nil
}

