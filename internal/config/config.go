// Package config loads primeshelf settings from PRIMESHELF_* environment
// variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/treefix50/primeshelf/internal/shelf"
)

// Config is the process configuration. Command line flags override it.
type Config struct {
	Addr        string `env:"PRIMESHELF_ADDR"         envDefault:":8080"`
	DBPath      string `env:"PRIMESHELF_DB"           envDefault:"./data/primeshelf.db"`
	PagesFile   string `env:"PRIMESHELF_PAGES"        envDefault:"./pages.yaml"`
	PosterRoot  string `env:"PRIMESHELF_POSTER_ROOT"`
	RedisAddr   string `env:"PRIMESHELF_REDIS_ADDR"`
	RedisPrefix string `env:"PRIMESHELF_REDIS_PREFIX" envDefault:"primeshelf"`
	DeliveryURL string `env:"PRIMESHELF_DELIVERY_URL"`

	InitialRows   int           `env:"PRIMESHELF_INITIAL_ROWS"  envDefault:"6"`
	LoadRows      int           `env:"PRIMESHELF_LOAD_ROWS"     envDefault:"4"`
	CacheCapacity int           `env:"PRIMESHELF_CACHE_SIZE"    envDefault:"512"`
	FetchTimeout  time.Duration `env:"PRIMESHELF_FETCH_TIMEOUT" envDefault:"0s"`
	PlaylistTTL   time.Duration `env:"PRIMESHELF_PLAYLIST_TTL"  envDefault:"5m"`
	SessionTTL    time.Duration `env:"PRIMESHELF_SESSION_TTL"   envDefault:"30m"`
	HoverPerMin   int           `env:"PRIMESHELF_HOVER_PER_MIN" envDefault:"120"`

	ShelfTitles bool   `env:"PRIMESHELF_SHELF_TITLES" envDefault:"true"`
	AccessModel string `env:"PRIMESHELF_ACCESS_MODEL" envDefault:"AVOD"`
	LogLevel    string `env:"PRIMESHELF_LOG_LEVEL"    envDefault:"info"`
	ReadOnly    bool   `env:"PRIMESHELF_READ_ONLY"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.InitialRows < 0 || c.LoadRows < 0 {
		return fmt.Errorf("config: row counts must not be negative")
	}
	if c.CacheCapacity < 0 {
		return fmt.Errorf("config: cache size must not be negative")
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("config: fetch timeout must not be negative")
	}
	switch shelf.AccessModel(strings.ToUpper(c.AccessModel)) {
	case shelf.AccessAVOD, shelf.AccessAUTHVOD, shelf.AccessSVOD:
	default:
		return fmt.Errorf("config: unknown access model %q", c.AccessModel)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Access returns the configured monetisation model.
func (c Config) Access() shelf.AccessModel {
	return shelf.AccessModel(strings.ToUpper(c.AccessModel))
}

// Display returns the display flags handed to the row presenter.
func (c Config) Display() shelf.DisplayConfig {
	return shelf.DisplayConfig{ShelfTitles: c.ShelfTitles}
}

// Logger builds the process logger writing key=value lines to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("config: log level %q: %w", s, err)
	}
	return level, nil
}
