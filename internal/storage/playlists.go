package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/treefix50/primeshelf/internal/shelf"
)

const mediaColumns = `m.id, m.title, m.description, m.image, m.duration_seconds, m.free, m.tags`

// SaveMediaItems upserts items into media_items.
func (s *Store) SaveMediaItems(ctx context.Context, items []shelf.PlaylistItem) (err error) {
	if err := s.writable(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = upsertMediaItems(ctx, tx, items); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertMediaItems(ctx context.Context, tx *sql.Tx, items []shelf.PlaylistItem) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO media_items (id, title, description, image, duration_seconds, free, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			description=excluded.description,
			image=excluded.image,
			duration_seconds=excluded.duration_seconds,
			free=excluded.free,
			tags=excluded.tags
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		if item.MediaID == "" {
			return fmt.Errorf("storage: media item without id")
		}
		if _, err := stmt.ExecContext(ctx,
			item.MediaID,
			item.Title,
			nullString(item.Description),
			nullString(item.Image),
			item.DurationSeconds,
			boolInt(item.Free),
			nullString(strings.Join(item.Tags, ",")),
		); err != nil {
			return fmt.Errorf("storage: save media %s: %w", item.MediaID, err)
		}
	}
	return nil
}

// SavePlaylist replaces the playlist and its item order.
func (s *Store) SavePlaylist(ctx context.Context, playlist *shelf.Playlist) (err error) {
	if err := s.writable(); err != nil {
		return err
	}
	if playlist == nil || playlist.ID == "" {
		return fmt.Errorf("storage: playlist without id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = upsertMediaItems(ctx, tx, playlist.Items); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO playlists (id, title, shelf_image_aspect_ratio, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			shelf_image_aspect_ratio=excluded.shelf_image_aspect_ratio,
			updated_at=excluded.updated_at
	`, playlist.ID, playlist.Title, nullString(playlist.ShelfImageAspectRatio), time.Now().Unix()); err != nil {
		return fmt.Errorf("storage: save playlist %s: %w", playlist.ID, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM playlist_items WHERE playlist_id = ?`, playlist.ID); err != nil {
		return err
	}
	for i, item := range playlist.Items {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO playlist_items (playlist_id, position, media_id) VALUES (?, ?, ?)
		`, playlist.ID, i, item.MediaID); err != nil {
			return fmt.Errorf("storage: save playlist %s item %d: %w", playlist.ID, i, err)
		}
	}
	return tx.Commit()
}

// GetPlaylist loads a playlist with its items in order.
func (s *Store) GetPlaylist(ctx context.Context, id string) (*shelf.Playlist, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, errNoDB
	}

	var (
		playlist = shelf.Playlist{ID: id}
		aspect   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT title, shelf_image_aspect_ratio FROM playlists WHERE id = ?
	`, id).Scan(&playlist.Title, &aspect)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	playlist.ShelfImageAspectRatio = aspect.String

	items, err := s.queryItems(ctx, `
		SELECT `+mediaColumns+`
		FROM playlist_items p
		INNER JOIN media_items m ON m.id = p.media_id
		WHERE p.playlist_id = ?
		ORDER BY p.position
	`, id)
	if err != nil {
		return nil, false, err
	}
	playlist.Items = items
	return &playlist, true, nil
}

func (s *Store) DeletePlaylist(ctx context.Context, id string) error {
	if err := s.writable(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id)
	return err
}

// ListPlaylistIDs returns every stored playlist id, sorted.
func (s *Store) ListPlaylistIDs(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM playlists ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) GetPosterPath(ctx context.Context, mediaID string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, errNoDB
	}
	var posterPath sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT poster_path FROM media_items WHERE id = ?`, mediaID).Scan(&posterPath)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if !posterPath.Valid || posterPath.String == "" {
		return "", false, nil
	}
	return posterPath.String, true, nil
}

func (s *Store) SetPosterPath(ctx context.Context, mediaID, posterPath string) error {
	if err := s.writable(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `UPDATE media_items SET poster_path = ? WHERE id = ?`, nullString(posterPath), mediaID)
	return err
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]shelf.PlaylistItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []shelf.PlaylistItem{}
	for rows.Next() {
		var (
			item        shelf.PlaylistItem
			description sql.NullString
			image       sql.NullString
			free        int
			tags        sql.NullString
		)
		if err := rows.Scan(&item.MediaID, &item.Title, &description, &image, &item.DurationSeconds, &free, &tags); err != nil {
			return nil, err
		}
		item.Description = description.String
		item.Image = image.String
		item.Free = free != 0
		if tags.Valid && tags.String != "" {
			item.Tags = strings.Split(tags.String, ",")
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
