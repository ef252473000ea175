package storage

import (
	"context"
	"fmt"

	"github.com/treefix50/primeshelf/internal/shelf"
)

// ErrPlaylistNotFound is returned for playlist rows whose id is unknown.
var ErrPlaylistNotFound = fmt.Errorf("storage: playlist not found")

// Fetcher resolves rows for one client. Personal rows come from the
// client's playback state and favorites, playlist rows from Playlists, or
// from the store itself when Playlists is nil.
type Fetcher struct {
	Store     *Store
	ClientID  string
	Playlists shelf.Fetcher
	Limit     int
}

func NewFetcher(store *Store, clientID string, playlists shelf.Fetcher) *Fetcher {
	return &Fetcher{Store: store, ClientID: clientID, Playlists: playlists}
}

func (f *Fetcher) FetchPlaylist(ctx context.Context, contentID string, rowType shelf.RowType) (*shelf.Playlist, error) {
	switch rowType {
	case shelf.RowContinueWatching:
		return f.Store.ContinueWatching(ctx, f.ClientID, f.Limit)
	case shelf.RowFavorites:
		return f.Store.Favorites(ctx, f.ClientID, f.Limit)
	}
	if f.Playlists != nil {
		return f.Playlists.FetchPlaylist(ctx, contentID, rowType)
	}
	return f.Store.FetchPlaylist(ctx, contentID, rowType)
}

// FetchPlaylist serves published playlists straight from the store.
func (s *Store) FetchPlaylist(ctx context.Context, contentID string, _ shelf.RowType) (*shelf.Playlist, error) {
	playlist, ok, err := s.GetPlaylist(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlaylistNotFound, contentID)
	}
	return playlist, nil
}
