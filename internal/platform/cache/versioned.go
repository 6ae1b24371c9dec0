package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Versioned caches JSON payloads under keys suffixed with a global version.
// Bumping the version orphans every existing key; TTL reclaims them.
type Versioned struct {
	client     *redis.Client
	ttl        time.Duration
	versionKey string
	channel    string
}

// NewVersioned builds a cache whose version counter lives at "<namespace>:version"
// and whose bump notifications go to "<namespace>.bump".
func NewVersioned(client *redis.Client, namespace string, ttl time.Duration) *Versioned {
	if namespace == "" {
		namespace = "salesops"
	}
	return &Versioned{
		client:     client,
		ttl:        ttl,
		versionKey: namespace + ":version",
		channel:    namespace + ".bump",
	}
}

// Version returns the current cache version, initialising when missing.
func (c *Versioned) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, c.versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		// SetNX so concurrent initialisers agree on the first version.
		if err := c.client.SetNX(ctx, c.versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, c.versionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, c.versionKey, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// BuildKey composes the cache key with the current version.
func (c *Versioned) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// FetchJSON loads a cached value into dest or populates it using loader.
func (c *Versioned) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		return loadInto(ctx, dest, loader, nil)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}
	return loadInto(ctx, dest, loader, func(raw []byte) error {
		return c.client.Set(ctx, key, raw, c.ttl).Err()
	})
}

func loadInto(ctx context.Context, dest any, loader func(context.Context) (any, error), store func([]byte) error) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if store != nil {
		if err := store(raw); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates the cache by incrementing the version and publishing it.
func (c *Versioned) Bump(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Incr(ctx, c.versionKey).Result()
	if err != nil {
		return 0, err
	}
	if err := c.client.Publish(ctx, c.channel, strconv.FormatInt(ver, 10)).Err(); err != nil {
		return ver, err
	}
	return ver, nil
}

// ListenForInvalidation logs bump notifications until ctx is cancelled.
func (c *Versioned) ListenForInvalidation(ctx context.Context, logger *slog.Logger) error {
	if c == nil || c.client == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	pubsub := c.client.Subscribe(ctx, c.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("platform/cache: subscribe %s: %w", c.channel, err)
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				logger.Info("report cache version bumped", slog.String("version", msg.Payload))
			}
		}
	}()
	return nil
}
