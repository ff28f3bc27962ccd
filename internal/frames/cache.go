package frames

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const renderVersionKey = "frames:render:version"

// RenderCache stores rendered frames in Redis behind a global version. Bump
// invalidates every cached render at once without scanning keys.
type RenderCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRenderCache instantiates the cache helper.
func NewRenderCache(client *redis.Client, ttl time.Duration) *RenderCache {
	return &RenderCache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *RenderCache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, renderVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, renderVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Key composes the render cache key for a slug with the current version.
func (c *RenderCache) Key(ctx context.Context, slug string) (string, error) {
	joined := strings.Join([]string{"frames", "render", slug}, ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// Fetch loads a cached render or populates it using the loader.
func (c *RenderCache) Fetch(ctx context.Context, key string, loader func(context.Context) (RenderedFrame, error)) (RenderedFrame, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached RenderedFrame
		if err := json.Unmarshal(payload, &cached); err == nil {
			return cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return RenderedFrame{}, err
	}
	rendered, err := loader(ctx)
	if err != nil {
		return RenderedFrame{}, err
	}
	raw, err := json.Marshal(rendered)
	if err != nil {
		return RenderedFrame{}, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return RenderedFrame{}, err
	}
	return rendered, nil
}

// Bump invalidates all cached renders by incrementing the version.
func (c *RenderCache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, renderVersionKey).Err()
}
