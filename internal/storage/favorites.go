package storage

import (
	"context"
	"time"

	"github.com/treefix50/primeshelf/internal/shelf"
)

func (s *Store) AddFavorite(ctx context.Context, clientID, mediaID string, addedAt time.Time) error {
	if err := s.writable(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (client_id, media_id, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT(client_id, media_id) DO UPDATE SET added_at = excluded.added_at
	`, clientID, mediaID, addedAt.Unix())
	return err
}

func (s *Store) RemoveFavorite(ctx context.Context, clientID, mediaID string) error {
	if err := s.writable(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE client_id = ? AND media_id = ?`, clientID, mediaID)
	return err
}

// Favorites builds the personal favorites playlist, newest first.
func (s *Store) Favorites(ctx context.Context, clientID string, limit int) (*shelf.Playlist, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}
	if limit <= 0 {
		limit = 50
	}
	items, err := s.queryItems(ctx, `
		SELECT `+mediaColumns+`
		FROM favorites f
		INNER JOIN media_items m ON m.id = f.media_id
		WHERE f.client_id = ?
		ORDER BY f.added_at DESC, m.id
		LIMIT ?
	`, clientID, limit)
	if err != nil {
		return nil, err
	}
	return &shelf.Playlist{
		ID:    string(shelf.RowFavorites),
		Title: "Favorites",
		Items: items,
	}, nil
}
