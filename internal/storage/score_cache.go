package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/trend-scanner/internal/models"
)

// ScoreCache caches the latest trend score per dApp in Redis. The API layer
// reads through it; the scoring pass invalidates leaderboard keys after a
// full recomputation rather than patching them in place.
type ScoreCache struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewScoreCache creates a new score cache
func NewScoreCache(cache *RedisCache, ttl time.Duration) *ScoreCache {
	return &ScoreCache{cache: cache, ttl: ttl}
}

func latestScoreKey(dappID uuid.UUID) string {
	return fmt.Sprintf("score:latest:%s", dappID)
}

// SetLatest caches the latest trend score for a dApp
func (c *ScoreCache) SetLatest(ctx context.Context, score *models.TrendScore) error {
	data, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("failed to marshal trend score: %w", err)
	}
	return c.cache.Set(ctx, latestScoreKey(score.DappID), data, c.ttl)
}

// GetLatest retrieves the cached latest trend score for a dApp.
// A cache miss returns nil without error.
func (c *ScoreCache) GetLatest(ctx context.Context, dappID uuid.UUID) (*models.TrendScore, error) {
	data, err := c.cache.Get(ctx, latestScoreKey(dappID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached trend score: %w", err)
	}

	var score models.TrendScore
	if err := json.Unmarshal([]byte(data), &score); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached trend score: %w", err)
	}
	return &score, nil
}

// InvalidateDapp drops the cached score for one dApp
func (c *ScoreCache) InvalidateDapp(ctx context.Context, dappID uuid.UUID) error {
	return c.cache.Del(ctx, latestScoreKey(dappID))
}

// InvalidateLeaderboards drops all leaderboard keys after a scoring pass
func (c *ScoreCache) InvalidateLeaderboards(ctx context.Context) error {
	return c.cache.DelPattern(ctx, "leaderboard:*")
}
