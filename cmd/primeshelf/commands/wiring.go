package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/treefix50/primeshelf/internal/blur"
	"github.com/treefix50/primeshelf/internal/delivery"
	"github.com/treefix50/primeshelf/internal/playlistcache"
	"github.com/treefix50/primeshelf/internal/shelf"
	"github.com/treefix50/primeshelf/internal/storage"
)

func openStore(readOnly bool) (*storage.Store, error) {
	if !readOnly && cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return storage.Open(cfg.DBPath, storage.Options{ReadOnly: readOnly})
}

// backend resolves the rows of one viewer.
type backend struct {
	store     *storage.Store
	playlists shelf.Fetcher
	rdb       *redis.Client
}

// newBackend chains the playlist sources: the delivery API or the store,
// optionally behind the shared Redis cache.
func newBackend(store *storage.Store) (*backend, error) {
	b := &backend{store: store}
	var upstream shelf.Fetcher = store
	if cfg.DeliveryURL != "" {
		client, err := delivery.NewClient(cfg.DeliveryURL, nil)
		if err != nil {
			return nil, err
		}
		upstream = client
	}
	if cfg.RedisAddr != "" {
		b.rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		upstream = playlistcache.New(b.rdb, upstream, cfg.PlaylistTTL, cfg.RedisPrefix, logger)
	}
	b.playlists = upstream
	return b, nil
}

func (b *backend) fetcher(clientID string) shelf.Fetcher {
	return storage.NewFetcher(b.store, clientID, b.playlists)
}

func (b *backend) renderer() *blur.Renderer {
	return blur.NewRenderer(blur.Sources{
		blur.FileSource{Posters: b.store, Root: cfg.PosterRoot},
		blur.HTTPSource{},
	}, blur.Options{})
}

func (b *backend) Close() error {
	if b.rdb != nil {
		return b.rdb.Close()
	}
	return nil
}
