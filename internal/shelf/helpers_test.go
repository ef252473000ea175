package shelf

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// countingFetcher serves playlists from a map and counts calls per content id.
type countingFetcher struct {
	mu        sync.Mutex
	calls     map[string]int
	playlists map[string]*Playlist
	errs      map[string]error
	gate      chan struct{}
}

func newCountingFetcher() *countingFetcher {
	return &countingFetcher{
		calls:     map[string]int{},
		playlists: map[string]*Playlist{},
		errs:      map[string]error{},
	}
}

func (f *countingFetcher) FetchPlaylist(ctx context.Context, contentID string, _ RowType) (*Playlist, error) {
	f.mu.Lock()
	f.calls[contentID]++
	gate := f.gate
	pl, err := f.playlists[contentID], f.errs[contentID]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return pl, err
}

func (f *countingFetcher) Calls(contentID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[contentID]
}

type fetchResult struct {
	playlist *Playlist
	err      error
}

type fetchCall struct {
	contentID string
	reply     chan fetchResult
}

// scriptedFetcher hands every call to the test, which answers it.
type scriptedFetcher struct {
	calls chan fetchCall
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{calls: make(chan fetchCall, 8)}
}

func (f *scriptedFetcher) FetchPlaylist(ctx context.Context, contentID string, _ RowType) (*Playlist, error) {
	call := fetchCall{contentID: contentID, reply: make(chan fetchResult, 1)}
	f.calls <- call
	select {
	case r := <-call.reply:
		return r.playlist, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *scriptedFetcher) next(t *testing.T) fetchCall {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fetch call")
		return fetchCall{}
	}
}

func newTestResolver(t *testing.T, fetcher Fetcher, opts ResolverOptions) *Resolver {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = discardLogger
	}
	r, err := NewResolver(fetcher, opts)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func await(t *testing.T, r *Resolver, key Key) ResolutionState {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := r.Await(ctx, key)
	require.NoError(t, err)
	return st
}

func playlistOf(id, title string, mediaIDs ...string) *Playlist {
	pl := &Playlist{ID: id, Title: title}
	for _, mid := range mediaIDs {
		pl.Items = append(pl.Items, PlaylistItem{MediaID: mid, Title: "Title " + mid, Image: "https://img.example/" + mid + ".jpg"})
	}
	return pl
}

func playlistRows(n int) []RowDescriptor {
	rows := make([]RowDescriptor, n)
	for i := range rows {
		rows[i] = RowDescriptor{Type: RowPlaylist, ContentID: "pl" + string(rune('a'+i))}
	}
	return rows
}
