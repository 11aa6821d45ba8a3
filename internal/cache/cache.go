package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spigell/match-scorer/internal/compatibility"
)

const (
	keyPrefix  = "matchscore:v1"
	DefaultTTL = 24 * time.Hour
)

// MatchCache stores computed scores keyed by both profiles and the evaluation day.
type MatchCache interface {
	Get(ctx context.Context, viewer, candidate *compatibility.Profile, at time.Time) (*compatibility.MatchScore, bool, error)
	Set(ctx context.Context, viewer, candidate *compatibility.Profile, at time.Time, match *compatibility.MatchScore) error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to the redis instance described by url, e.g. redis://localhost:6379/0.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisWithClient(client, ttl), nil
}

func NewRedisWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, viewer, candidate *compatibility.Profile, at time.Time) (*compatibility.MatchScore, bool, error) {
	key, err := Key(viewer, candidate, at)
	if err != nil {
		return nil, false, err
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}

	var match compatibility.MatchScore
	if err := json.Unmarshal(raw, &match); err != nil {
		return nil, false, fmt.Errorf("decode cached score %s: %w", key, err)
	}

	if match.Reasons == nil {
		match.Reasons = []string{}
	}

	return &match, true, nil
}

func (c *RedisCache) Set(ctx context.Context, viewer, candidate *compatibility.Profile, at time.Time, match *compatibility.MatchScore) error {
	key, err := Key(viewer, candidate, at)
	if err != nil {
		return err
	}

	data, err := json.Marshal(match)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Key builds the cache key. Any change to either profile or the evaluation
// day produces a different fingerprint.
func Key(viewer, candidate *compatibility.Profile, at time.Time) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)

	for _, v := range []any{viewer, candidate} {
		if err := enc.Encode(v); err != nil {
			return "", fmt.Errorf("fingerprint profile: %w", err)
		}
	}
	h.Write([]byte(at.Format(time.DateOnly)))

	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, viewer.ID, candidate.ID, hex.EncodeToString(h.Sum(nil))), nil
}
