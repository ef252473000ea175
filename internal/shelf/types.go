package shelf

import (
	"strconv"
)

// RowType identifies what kind of content a row shows.
type RowType string

const (
	RowPlaylist         RowType = "playlist"
	RowContinueWatching RowType = "continue_watching"
	RowFavorites        RowType = "favorites"
)

// Personal reports whether rows of this type are built from viewer state
// rather than a published playlist.
func (t RowType) Personal() bool {
	return t == RowContinueWatching || t == RowFavorites
}

// RowDescriptor is one row definition supplied by the hosting page.
type RowDescriptor struct {
	Type       RowType `json:"type" yaml:"type"`
	ContentID  string  `json:"contentId,omitempty" yaml:"contentId"`
	Title      string  `json:"title,omitempty" yaml:"title"`
	Featured   bool    `json:"featured,omitempty" yaml:"featured"`
	EnableText bool    `json:"enableText,omitempty" yaml:"enableText"`
}

// Key is the identity of a row's resolution state. Rows that carry a
// content id share state across positions; rows without one are keyed by
// position so two of them never collide.
type Key struct {
	ContentID string
	Type      RowType
	Position  int
}

// KeyFor derives the identity of the row at position.
func KeyFor(desc RowDescriptor, position int) Key {
	if desc.ContentID != "" {
		return Key{ContentID: desc.ContentID, Type: desc.Type, Position: -1}
	}
	return Key{Type: desc.Type, Position: position}
}

func (k Key) String() string {
	if k.ContentID != "" {
		return string(k.Type) + ":" + k.ContentID
	}
	return string(k.Type) + "#" + strconv.Itoa(k.Position)
}

// PlaylistItem is a single tile of a row.
type PlaylistItem struct {
	MediaID         string   `json:"mediaid" yaml:"mediaid"`
	Title           string   `json:"title" yaml:"title"`
	Description     string   `json:"description,omitempty" yaml:"description"`
	Image           string   `json:"image,omitempty" yaml:"image"`
	DurationSeconds int64    `json:"duration,omitempty" yaml:"duration"`
	Free            bool     `json:"free,omitempty" yaml:"free"`
	Tags            []string `json:"tags,omitempty" yaml:"tags"`
}

// Playlist is the resolved content of a row.
type Playlist struct {
	ID                    string         `json:"feedid" yaml:"id"`
	Title                 string         `json:"title" yaml:"title"`
	Items                 []PlaylistItem `json:"playlist" yaml:"items"`
	ShelfImageAspectRatio string         `json:"shelfImageAspectRatio,omitempty" yaml:"shelfImageAspectRatio"`
}

// Find returns the item with the given media id.
func (p *Playlist) Find(mediaID string) (PlaylistItem, bool) {
	if p == nil {
		return PlaylistItem{}, false
	}
	for _, item := range p.Items {
		if item.MediaID == mediaID {
			return item, true
		}
	}
	return PlaylistItem{}, false
}

// WatchHistoryEntry is the progress of a viewer on one item, 0..1.
type WatchHistoryEntry struct {
	MediaID  string  `json:"mediaid"`
	Progress float64 `json:"progress"`
}

// WatchHistory maps media ids to progress. Read-only to this package.
type WatchHistory map[string]WatchHistoryEntry

// AccessModel mirrors the platform monetisation model.
type AccessModel string

const (
	AccessAVOD    AccessModel = "AVOD"
	AccessAUTHVOD AccessModel = "AUTHVOD"
	AccessSVOD    AccessModel = "SVOD"
)

// Viewer is a read-only snapshot of the account state.
type Viewer struct {
	LoggedIn        bool        `json:"loggedIn"`
	HasSubscription bool        `json:"hasSubscription"`
	AccessModel     AccessModel `json:"accessModel,omitempty"`
}

// DisplayConfig holds the display flags taken from the app configuration.
type DisplayConfig struct {
	ShelfTitles bool `json:"shelfTitles"`
}
