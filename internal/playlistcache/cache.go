// Package playlistcache shares resolved playlists between processes through
// Redis. Personal rows are never cached here.
package playlistcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/treefix50/primeshelf/internal/shelf"
)

const DefaultTTL = 5 * time.Minute

// Cache is a read-through shelf.Fetcher in front of upstream.
type Cache struct {
	rdb      redis.UniversalClient
	upstream shelf.Fetcher
	ttl      time.Duration
	prefix   string
	log      *slog.Logger
}

func New(rdb redis.UniversalClient, upstream shelf.Fetcher, ttl time.Duration, prefix string, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = "primeshelf"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{rdb: rdb, upstream: upstream, ttl: ttl, prefix: prefix, log: logger}
}

func (c *Cache) key(contentID string, rowType shelf.RowType) string {
	return fmt.Sprintf("%s:playlist:%s:%s", c.prefix, rowType, contentID)
}

// FetchPlaylist serves from Redis when present, otherwise from upstream,
// storing the result. Redis failures fall through to upstream.
func (c *Cache) FetchPlaylist(ctx context.Context, contentID string, rowType shelf.RowType) (*shelf.Playlist, error) {
	if rowType.Personal() || contentID == "" {
		return c.upstream.FetchPlaylist(ctx, contentID, rowType)
	}

	key := c.key(contentID, rowType)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var playlist shelf.Playlist
		if err := json.Unmarshal(raw, &playlist); err == nil {
			return &playlist, nil
		}
		c.log.Warn("playlist cache entry unreadable", "key", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warn("playlist cache read failed", "key", key, "err", err)
	}

	playlist, err := c.upstream.FetchPlaylist(ctx, contentID, rowType)
	if err != nil {
		return nil, err
	}
	if playlist == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(playlist)
	if err != nil {
		return playlist, nil
	}
	if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		c.log.Warn("playlist cache write failed", "key", key, "err", err)
	}
	return playlist, nil
}

// Invalidate drops the cached copy of a playlist row.
func (c *Cache) Invalidate(ctx context.Context, contentID string, rowType shelf.RowType) error {
	return c.rdb.Del(ctx, c.key(contentID, rowType)).Err()
}
