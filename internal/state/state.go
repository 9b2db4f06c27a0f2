package state

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Tracker persists the timestamp of the last record posted to
// WeatherCloud in Redis, keyed per account, so the post-interval throttle
// keeps working across restarts.
type Tracker struct {
	redis *redis.Client
	key   string
}

// NewTracker creates a tracker for the given account id.
func NewTracker(redisClient *redis.Client, accountID string) *Tracker {
	return &Tracker{
		redis: redisClient,
		key:   fmt.Sprintf("wcloud:lastpost:%s", accountID),
	}
}

// LastPost returns the epoch timestamp of the last posted record, or zero
// when none has been recorded yet.
func (t *Tracker) LastPost(ctx context.Context) (int64, error) {
	val, err := t.redis.Get(ctx, t.key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get last post from Redis: %w", err)
	}

	ts, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse last post timestamp: %w", err)
	}
	return ts, nil
}

// SetLastPost records the timestamp of a posted record. No expiry: a
// stale value only ever suppresses uploads for one post interval.
func (t *Tracker) SetLastPost(ctx context.Context, ts int64) error {
	if err := t.redis.Set(ctx, t.key, strconv.FormatInt(ts, 10), 0).Err(); err != nil {
		return fmt.Errorf("failed to set last post in Redis: %w", err)
	}
	return nil
}
