package server

import (
	"context"
	"time"

	"github.com/treefix50/primeshelf/internal/shelf"
)

// ViewerStore holds the per-client state behind personal rows.
type ViewerStore interface {
	HistorySource
	ReadOnly() bool
	UpsertPlaybackState(ctx context.Context, mediaID, clientID string, positionSeconds, durationSeconds int64, playedAt time.Time) error
	DeletePlaybackState(ctx context.Context, mediaID, clientID string) error
	AddFavorite(ctx context.Context, clientID, mediaID string, addedAt time.Time) error
	RemoveFavorite(ctx context.Context, clientID, mediaID string) error
	GetPosterPath(ctx context.Context, mediaID string) (string, bool, error)
}

// refreshPersonal refetches rows of rowType in every live session of
// clientID so they pick up the new viewer state.
func (s *Server) refreshPersonal(clientID string, rowType shelf.RowType) {
	for _, sess := range s.sessions.ForClient(clientID) {
		n := 0
		for _, key := range sess.list.Keys() {
			if key.Type == rowType {
				sess.resolver.Refetch(key)
				n++
			}
		}
		if n > 0 {
			s.log.Debug("personal rows refreshed", "session", sess.ID, "type", rowType, "rows", n)
		}
	}
}
