package pages

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/treefix50/primeshelf/internal/shelf"
)

// Catalog is the document accepted by ImportFile.
type Catalog struct {
	Media     []shelf.PlaylistItem `yaml:"media"`
	Playlists []shelf.Playlist     `yaml:"playlists"`
	Posters   map[string]string    `yaml:"posters"`
	Playback  []PlaybackRecord     `yaml:"playback"`
	Favorites []FavoriteRecord     `yaml:"favorites"`
}

type PlaybackRecord struct {
	ClientID string `yaml:"client"`
	MediaID  string `yaml:"mediaid"`
	Position int64  `yaml:"position"`
	Duration int64  `yaml:"duration"`
}

type FavoriteRecord struct {
	ClientID string `yaml:"client"`
	MediaID  string `yaml:"mediaid"`
}

// Target is the subset of the store ImportFile writes to.
type Target interface {
	SaveMediaItems(ctx context.Context, items []shelf.PlaylistItem) error
	SavePlaylist(ctx context.Context, playlist *shelf.Playlist) error
	SetPosterPath(ctx context.Context, mediaID, posterPath string) error
	UpsertPlaybackState(ctx context.Context, mediaID, clientID string, positionSeconds, durationSeconds int64, playedAt time.Time) error
	AddFavorite(ctx context.Context, clientID, mediaID string, addedAt time.Time) error
}

type ImportSummary struct {
	Media     int
	Playlists int
	Posters   int
	Playback  int
	Favorites int
}

// ImportFile loads a catalog YAML file into target.
func ImportFile(ctx context.Context, target Target, path string) (ImportSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("failed to read catalog: %w", err)
	}
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return ImportSummary{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return Import(ctx, target, catalog)
}

// Import writes media before playlists and viewer state, which reference it.
func Import(ctx context.Context, target Target, catalog Catalog) (ImportSummary, error) {
	var summary ImportSummary
	now := time.Now()

	if len(catalog.Media) > 0 {
		if err := target.SaveMediaItems(ctx, catalog.Media); err != nil {
			return summary, err
		}
		summary.Media = len(catalog.Media)
	}
	for i := range catalog.Playlists {
		if err := target.SavePlaylist(ctx, &catalog.Playlists[i]); err != nil {
			return summary, err
		}
		summary.Playlists++
	}
	for mediaID, path := range catalog.Posters {
		if err := target.SetPosterPath(ctx, mediaID, path); err != nil {
			return summary, err
		}
		summary.Posters++
	}
	for _, rec := range catalog.Playback {
		if rec.ClientID == "" || rec.MediaID == "" {
			return summary, fmt.Errorf("playback record needs client and mediaid")
		}
		if err := target.UpsertPlaybackState(ctx, rec.MediaID, rec.ClientID, rec.Position, rec.Duration, now); err != nil {
			return summary, err
		}
		summary.Playback++
	}
	for _, rec := range catalog.Favorites {
		if rec.ClientID == "" || rec.MediaID == "" {
			return summary, fmt.Errorf("favorite record needs client and mediaid")
		}
		if err := target.AddFavorite(ctx, rec.ClientID, rec.MediaID, now); err != nil {
			return summary, err
		}
		summary.Favorites++
	}
	return summary, nil
}
