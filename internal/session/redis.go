package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "locate:session:"

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func newRedisCache(ctx context.Context, url string, ttl time.Duration) (*redisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging Redis: %w", err)
	}
	return &redisCache{client: client, ttl: ttl}, nil
}

func (c *redisCache) Get(ctx context.Context, id string) (Session, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("fetching session %s: %w", id, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, false, fmt.Errorf("decoding session %s: %w", id, err)
	}

	// Slide the TTL; a failed expire only shortens the session's life.
	_ = c.client.Expire(ctx, keyPrefix+id, c.ttl).Err()
	return s, true, nil
}

func (c *redisCache) Put(ctx context.Context, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", s.SessionID, err)
	}
	if err := c.client.Set(ctx, keyPrefix+s.SessionID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("storing session %s: %w", s.SessionID, err)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}
