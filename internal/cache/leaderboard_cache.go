package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"hectoclash/internal/model"
)

const (
	leaderboardRankKey    = "leaderboard:rating"
	leaderboardEntriesKey = "leaderboard:rating:entries"
)

// LeaderboardCache keeps a snapshot of the rating leaderboard in a ZSET
// (member = user id, score = position) with the full entries in a hash.
type LeaderboardCache interface {
	// Top returns the first limit entries. ok is false when no snapshot
	// is cached.
	Top(ctx context.Context, limit int) ([]model.UserStats, bool, error)
	Replace(ctx context.Context, entries []model.UserStats) error
	Invalidate(ctx context.Context) error
}

type leaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache creates a new leaderboard cache. ttl 0 means 30s.
func NewLeaderboardCache(client *redis.Client, ttl time.Duration) LeaderboardCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &leaderboardCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *leaderboardCache) Top(ctx context.Context, limit int) ([]model.UserStats, bool, error) {
	ids, err := c.client.ZRange(ctx, leaderboardRankKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, false, err
	}
	if len(ids) == 0 {
		return nil, false, nil
	}

	vals, err := c.client.HMGet(ctx, leaderboardEntriesKey, ids...).Result()
	if err != nil {
		return nil, false, err
	}

	entries := make([]model.UserStats, 0, len(vals))
	for _, v := range vals {
		data, ok := v.(string)
		if !ok {
			// hash expired under the ZSET; treat as a miss
			return nil, false, nil
		}
		var entry model.UserStats
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			return nil, false, err
		}
		entries = append(entries, entry)
	}
	return entries, true, nil
}

func (c *leaderboardCache) Replace(ctx context.Context, entries []model.UserStats) error {
	members := make([]redis.Z, 0, len(entries))
	fields := make([]interface{}, 0, 2*len(entries))
	for i, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		members = append(members, redis.Z{Score: float64(i), Member: e.ID})
		fields = append(fields, e.ID, data)
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, leaderboardRankKey, leaderboardEntriesKey)
		if len(members) == 0 {
			return nil
		}
		pipe.ZAdd(ctx, leaderboardRankKey, members...)
		pipe.HSet(ctx, leaderboardEntriesKey, fields...)
		pipe.Expire(ctx, leaderboardRankKey, c.ttl)
		pipe.Expire(ctx, leaderboardEntriesKey, c.ttl)
		return nil
	})
	return err
}

func (c *leaderboardCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, leaderboardRankKey, leaderboardEntriesKey).Err()
}
