package storage

import (
	"context"
	"time"

	"github.com/treefix50/primeshelf/internal/shelf"
)

// Items above this progress count as finished and leave continue watching.
const continueWatchingMaxProgress = 0.95

// UpsertPlaybackState records the playback position of clientID on mediaID.
func (s *Store) UpsertPlaybackState(ctx context.Context, mediaID, clientID string, positionSeconds, durationSeconds int64, playedAt time.Time) error {
	if err := s.writable(); err != nil {
		return err
	}
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO playback_state (media_id, client_id, position_seconds, duration_seconds, updated_at, last_played_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(media_id, client_id) DO UPDATE SET
			position_seconds=excluded.position_seconds,
			duration_seconds=excluded.duration_seconds,
			updated_at=excluded.updated_at,
			last_played_at=excluded.last_played_at
	`, mediaID, clientID, positionSeconds, durationSeconds, now, playedAt.Unix())
	return err
}

func (s *Store) DeletePlaybackState(ctx context.Context, mediaID, clientID string) error {
	if err := s.writable(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM playback_state WHERE media_id = ? AND client_id = ?`, mediaID, clientID)
	return err
}

// WatchHistory returns the progress of clientID keyed by media id.
func (s *Store) WatchHistory(ctx context.Context, clientID string) (shelf.WatchHistory, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT media_id, position_seconds, duration_seconds
		FROM playback_state
		WHERE client_id = ?
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := shelf.WatchHistory{}
	for rows.Next() {
		var (
			mediaID            string
			position, duration int64
		)
		if err := rows.Scan(&mediaID, &position, &duration); err != nil {
			return nil, err
		}
		history[mediaID] = shelf.WatchHistoryEntry{MediaID: mediaID, Progress: progress(position, duration)}
	}
	return history, rows.Err()
}

// ContinueWatching builds the personal playlist of started, unfinished items,
// most recently played first.
func (s *Store) ContinueWatching(ctx context.Context, clientID string, limit int) (*shelf.Playlist, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}
	if limit <= 0 {
		limit = 50
	}
	items, err := s.queryItems(ctx, `
		SELECT `+mediaColumns+`
		FROM playback_state ps
		INNER JOIN media_items m ON m.id = ps.media_id
		WHERE ps.client_id = ?
			AND ps.position_seconds > 0
			AND ps.duration_seconds > 0
			AND CAST(ps.position_seconds AS REAL) / ps.duration_seconds < ?
		ORDER BY ps.last_played_at DESC
		LIMIT ?
	`, clientID, continueWatchingMaxProgress, limit)
	if err != nil {
		return nil, err
	}
	return &shelf.Playlist{
		ID:    string(shelf.RowContinueWatching),
		Title: "Continue watching",
		Items: items,
	}, nil
}

func progress(position, duration int64) float64 {
	if duration <= 0 || position <= 0 {
		return 0
	}
	p := float64(position) / float64(duration)
	if p > 1 {
		return 1
	}
	return p
}
