package shelf

import (
	"context"
	"log/slog"
	"sync"
)

// PlaceholderRenderer computes the low resolution placeholder of an item.
type PlaceholderRenderer interface {
	Placeholder(ctx context.Context, item PlaylistItem) (string, error)
}

// Coordinator precomputes placeholder images for hovered items and keeps
// them for the rest of the session. Entries are never evicted.
type Coordinator struct {
	renderer PlaceholderRenderer
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	images  map[string]string
	pending map[string]struct{}
}

func NewCoordinator(renderer PlaceholderRenderer, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		renderer: renderer,
		log:      logger,
		ctx:      ctx,
		cancel:   cancel,
		images:   make(map[string]string),
		pending:  make(map[string]struct{}),
	}
}

// NotifyHover schedules placeholder computation for item unless it is
// cached or already being computed. It never blocks on the computation.
func (c *Coordinator) NotifyHover(item PlaylistItem) {
	if item.MediaID == "" || c.renderer == nil {
		return
	}
	c.mu.Lock()
	if _, ok := c.images[item.MediaID]; ok {
		c.mu.Unlock()
		return
	}
	if _, ok := c.pending[item.MediaID]; ok {
		c.mu.Unlock()
		return
	}
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.pending[item.MediaID] = struct{}{}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		image, err := c.renderer.Placeholder(c.ctx, item)

		c.mu.Lock()
		delete(c.pending, item.MediaID)
		if err == nil && image != "" {
			if _, ok := c.images[item.MediaID]; !ok {
				c.images[item.MediaID] = image
			}
		}
		c.mu.Unlock()

		if err != nil {
			c.log.Debug("placeholder failed", "mediaid", item.MediaID, "err", err)
		}
	}()
}

// Seed warms the cache for every item of playlist.
func (c *Coordinator) Seed(playlist *Playlist) {
	if playlist == nil {
		return
	}
	for _, item := range playlist.Items {
		c.NotifyHover(item)
	}
}

func (c *Coordinator) Lookup(mediaID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	image, ok := c.images[mediaID]
	return image, ok
}

func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

// Wait blocks until scheduled computations have finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) Close() {
	c.mu.Lock()
	c.cancel()
	c.mu.Unlock()
	c.wg.Wait()
}
