package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"plotline-service/internal/app"
	"plotline-service/internal/domain"
)

// LeaderboardCache decorates a ProfileRepository with a Redis-backed cache
// for the leaderboard read path. Snapshots are stored as JSON under
// plotline:leaderboard:{limit} and invalidated whenever a high score is
// raised, so the ranked view is at most one raise stale. Writes pass
// straight through.
type LeaderboardCache struct {
	client *redis.Client
	inner  app.ProfileRepository
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand

	mu   sync.Mutex
	keys map[string]struct{}
}

func NewLeaderboardCache(client *redis.Client, inner app.ProfileRepository, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		keys:   make(map[string]struct{}),
	}
}

func (c *LeaderboardCache) GetOrCreate(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	// A fresh profile has score zero and never appears on the board, so no
	// invalidation is needed here.
	return c.inner.GetOrCreate(ctx, profile)
}

func (c *LeaderboardCache) RaiseHighScore(ctx context.Context, externalID int64, score int) error {
	if err := c.inner.RaiseHighScore(ctx, externalID, score); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *LeaderboardCache) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	key := c.key(limit)

	if entries, ok := c.lookup(ctx, key); ok {
		return entries, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if entries, ok := c.lookup(ctx, key); ok {
			return entries, nil
		}

		entries, err := c.inner.Leaderboard(ctx, limit)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(entries); err == nil {
			// best-effort fill
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
			c.remember(key)
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.LeaderboardEntry), nil
}

func (c *LeaderboardCache) lookup(ctx context.Context, key string) ([]domain.LeaderboardEntry, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (c *LeaderboardCache) invalidate(ctx context.Context) {
	c.mu.Lock()
	keys := make([]string, 0, len(c.keys))
	for key := range c.keys {
		keys = append(keys, key)
	}
	c.keys = make(map[string]struct{})
	c.mu.Unlock()

	if len(keys) > 0 {
		_ = c.client.Del(ctx, keys...).Err()
	}
}

func (c *LeaderboardCache) remember(key string) {
	c.mu.Lock()
	c.keys[key] = struct{}{}
	c.mu.Unlock()
}

func (c *LeaderboardCache) key(limit int) string {
	return fmt.Sprintf("plotline:leaderboard:%d", limit)
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
