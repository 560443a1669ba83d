package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"rentdesk/internal/app/policies"
	domainproperty "rentdesk/internal/domain/property"
)

const keyPrefix = "rentdesk:snapshot:"

// NewClient connects to redis and pings it within timeout.
func NewClient(ctx context.Context, addr, password string, db int, timeout time.Duration) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return client, nil
}

// SnapshotCache serves pricing snapshots from redis and falls back to Source on a miss.
// Redis failures degrade to Source reads.
type SnapshotCache struct {
	Client *goredis.Client
	Source policies.SnapshotSource
	TTL    time.Duration
	Logger *slog.Logger
}

func (c *SnapshotCache) Snapshot(ctx context.Context, id domainproperty.PropertyID) (domainproperty.Snapshot, error) {
	raw, err := c.Client.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		var snap domainproperty.Snapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			return snap, nil
		}
		c.warn("snapshot cache entry corrupt", id, err)
	case !errors.Is(err, goredis.Nil):
		c.warn("snapshot cache read failed", id, err)
	}

	snap, err := c.Source.Snapshot(ctx, id)
	if err != nil {
		return domainproperty.Snapshot{}, err
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return snap, nil
	}
	if err := c.Client.Set(ctx, cacheKey(id), payload, c.TTL).Err(); err != nil {
		c.warn("snapshot cache write failed", id, err)
	}
	return snap, nil
}

func (c *SnapshotCache) Invalidate(ctx context.Context, id domainproperty.PropertyID) error {
	if err := c.Client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate %s: %w", id, err)
	}
	return nil
}

func (c *SnapshotCache) warn(msg string, id domainproperty.PropertyID, err error) {
	if c.Logger != nil {
		c.Logger.Warn(msg, "property_id", id, "error", err)
	}
}

func cacheKey(id domainproperty.PropertyID) string {
	return keyPrefix + string(id)
}

var _ policies.SnapshotCache = (*SnapshotCache)(nil)
