package playlistcache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treefix50/primeshelf/internal/shelf"
)

type upstream struct {
	calls atomic.Int32
	err   error
}

func (u *upstream) FetchPlaylist(_ context.Context, contentID string, rowType shelf.RowType) (*shelf.Playlist, error) {
	u.calls.Add(1)
	if u.err != nil {
		return nil, u.err
	}
	return &shelf.Playlist{
		ID:    contentID,
		Title: "Title " + contentID + " " + string(rowType),
		Items: []shelf.PlaylistItem{{MediaID: "m1", Title: "One"}},
	}, nil
}

func newCache(t *testing.T, up shelf.Fetcher) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, up, time.Minute, "test", slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func TestCacheReadThrough(t *testing.T) {
	up := &upstream{}
	c, mr := newCache(t, up)
	ctx := context.Background()

	first, err := c.FetchPlaylist(ctx, "abc123", shelf.RowPlaylist)
	require.NoError(t, err)
	second, err := c.FetchPlaylist(ctx, "abc123", shelf.RowPlaylist)
	require.NoError(t, err)

	assert.Equal(t, int32(1), up.calls.Load())
	assert.Equal(t, first.Title, second.Title)
	assert.Len(t, second.Items, 1)
	assert.True(t, mr.Exists("test:playlist:playlist:abc123"))

	mr.FastForward(2 * time.Minute)
	_, err = c.FetchPlaylist(ctx, "abc123", shelf.RowPlaylist)
	require.NoError(t, err)
	assert.Equal(t, int32(2), up.calls.Load())
}

func TestCacheSkipsPersonalRows(t *testing.T) {
	up := &upstream{}
	c, mr := newCache(t, up)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.FetchPlaylist(ctx, "", shelf.RowContinueWatching)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), up.calls.Load())
	assert.Empty(t, mr.Keys())
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	up := &upstream{err: errors.New("upstream down")}
	c, mr := newCache(t, up)

	_, err := c.FetchPlaylist(context.Background(), "abc123", shelf.RowPlaylist)
	assert.Error(t, err)
	assert.Empty(t, mr.Keys())
}

func TestCacheFallsThroughWhenRedisDown(t *testing.T) {
	up := &upstream{}
	c, mr := newCache(t, up)
	mr.Close()

	pl, err := c.FetchPlaylist(context.Background(), "abc123", shelf.RowPlaylist)
	require.NoError(t, err)
	assert.Equal(t, "abc123", pl.ID)
}

func TestInvalidate(t *testing.T) {
	up := &upstream{}
	c, mr := newCache(t, up)
	ctx := context.Background()

	_, err := c.FetchPlaylist(ctx, "abc123", shelf.RowPlaylist)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "abc123", shelf.RowPlaylist))
	assert.False(t, mr.Exists("test:playlist:playlist:abc123"))
}
