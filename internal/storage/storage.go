package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var (
	errNoDB     = errors.New("storage: missing database connection")
	errReadOnly = errors.New("storage: read-only mode")
)

// Store keeps playlists, media, playback state and favorites in SQLite.
type Store struct {
	db       *sql.DB
	readOnly bool
}

type Options struct {
	BusyTimeout time.Duration
	Synchronous string
	CacheSize   int
	ReadOnly    bool
}

func sqliteDSN(path string, readOnly bool) (string, error) {
	if !readOnly {
		return path, nil
	}
	if path == ":memory:" {
		return "", fmt.Errorf("storage: read-only mode requires a file-backed database")
	}
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("mode", "ro")
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func pragmas(options Options) []string {
	out := []string{"PRAGMA foreign_keys=ON"}
	if !options.ReadOnly {
		synchronous := options.Synchronous
		if synchronous == "" {
			synchronous = "NORMAL"
		}
		out = append(out,
			"PRAGMA journal_mode=WAL",
			fmt.Sprintf("PRAGMA synchronous=%s", synchronous),
			"PRAGMA journal_size_limit=67108864",
		)
	}
	out = append(out,
		fmt.Sprintf("PRAGMA busy_timeout=%d", int(options.BusyTimeout/time.Millisecond)),
		"PRAGMA temp_store=MEMORY",
	)
	if options.CacheSize != 0 {
		out = append(out, fmt.Sprintf("PRAGMA cache_size=%d", options.CacheSize))
	}
	return out
}

// Open opens the database at path and migrates it unless read-only.
func Open(path string, options Options) (*Store, error) {
	dsn, err := sqliteDSN(path, options.ReadOnly)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range pragmas(options) {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("storage: %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, readOnly: options.ReadOnly}
	if !options.ReadOnly {
		if err := store.MigrateSchema(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ReadOnly() bool {
	if s == nil {
		return false
	}
	return s.readOnly
}

func (s *Store) writable() error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	if s.readOnly {
		return errReadOnly
	}
	return nil
}

func (s *Store) IntegrityCheck(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, "PRAGMA integrity_check")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var result string
		if err := rows.Scan(&result); err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// Vacuum compacts the database, or writes a compacted copy to target.
func (s *Store) Vacuum(ctx context.Context, target string) error {
	if err := s.writable(); err != nil {
		return err
	}
	if target == "" {
		_, err := s.db.ExecContext(ctx, "VACUUM")
		return err
	}
	_, err := s.db.ExecContext(ctx, "VACUUM INTO ?", target)
	return err
}

func (s *Store) Analyze(ctx context.Context) error {
	if err := s.writable(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "ANALYZE")
	return err
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
