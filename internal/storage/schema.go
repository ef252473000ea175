package storage

import "fmt"

const schemaMigrations = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY
);`

const schemaMediaItems = `
CREATE TABLE IF NOT EXISTS media_items (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	description TEXT,
	image TEXT,
	duration_seconds INTEGER NOT NULL DEFAULT 0 CHECK (duration_seconds >= 0),
	free INTEGER NOT NULL DEFAULT 0,
	tags TEXT,
	poster_path TEXT
);`

const schemaPlaylists = `
CREATE TABLE IF NOT EXISTS playlists (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	shelf_image_aspect_ratio TEXT,
	updated_at INTEGER NOT NULL
);`

const schemaPlaylistItems = `
CREATE TABLE IF NOT EXISTS playlist_items (
	playlist_id TEXT NOT NULL,
	position INTEGER NOT NULL CHECK (position >= 0),
	media_id TEXT NOT NULL,
	PRIMARY KEY (playlist_id, position),
	FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
	FOREIGN KEY (media_id) REFERENCES media_items(id) ON DELETE CASCADE
);`

const schemaPlaybackState = `
CREATE TABLE IF NOT EXISTS playback_state (
	media_id TEXT NOT NULL,
	client_id TEXT NOT NULL DEFAULT '',
	position_seconds INTEGER NOT NULL,
	duration_seconds INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	last_played_at INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (media_id, client_id),
	FOREIGN KEY (media_id) REFERENCES media_items(id) ON DELETE CASCADE
);`

const schemaFavorites = `
CREATE TABLE IF NOT EXISTS favorites (
	client_id TEXT NOT NULL,
	media_id TEXT NOT NULL,
	added_at INTEGER NOT NULL,
	PRIMARY KEY (client_id, media_id),
	FOREIGN KEY (media_id) REFERENCES media_items(id) ON DELETE CASCADE
);`

type migration struct {
	version    int
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		statements: []string{
			schemaMediaItems,
			schemaPlaylists,
			schemaPlaylistItems,
			schemaPlaybackState,
			schemaFavorites,
		},
	},
	{
		version: 2,
		statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_playlist_items_media_id ON playlist_items(media_id);`,
			`CREATE INDEX IF NOT EXISTS idx_playback_state_client ON playback_state(client_id, last_played_at DESC);`,
			`CREATE INDEX IF NOT EXISTS idx_favorites_client ON favorites(client_id, added_at DESC);`,
		},
	},
}

func (s *Store) EnsureSchema() error {
	return s.MigrateSchema()
}

func (s *Store) MigrateSchema() error {
	if s == nil || s.db == nil {
		return errNoDB
	}

	if _, err := s.db.Exec(schemaMigrations); err != nil {
		return fmt.Errorf("storage: create schema_migrations table: %w", err)
	}

	current, err := s.currentSchemaVersion()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.applyMigration(m); err != nil {
			return err
		}
		current = m.version
	}
	return nil
}

func (s *Store) currentSchemaVersion() (int, error) {
	var version int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("storage: read schema version: %w", err)
	}
	return version, nil
}

func (s *Store) applyMigration(m migration) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: start migration %d: %w", m.version, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, statement := range m.statements {
		if _, err = tx.Exec(statement); err != nil {
			return fmt.Errorf("storage: migration %d failed: %w", m.version, err)
		}
	}

	if _, err = tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
		return fmt.Errorf("storage: record migration %d: %w", m.version, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit migration %d: %w", m.version, err)
	}
	return nil
}
