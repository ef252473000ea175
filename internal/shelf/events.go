package shelf

import "net/url"

// ItemActivated is raised when a tile is clicked. The host navigates to URL.
type ItemActivated struct {
	Item       PlaylistItem `json:"item"`
	RowID      string       `json:"rowId"`
	RowType    RowType      `json:"rowType"`
	PlaylistID string       `json:"playlistId,omitempty"`
	URL        string       `json:"url"`
}

// ItemHovered is raised when a tile gains pointer focus.
type ItemHovered struct {
	Item  PlaylistItem `json:"item"`
	RowID string       `json:"rowId"`
}

// Sink receives the events a List raises. Implementations must not call
// back into the List synchronously.
type Sink interface {
	RowItemActivated(ItemActivated)
	RowItemHovered(ItemHovered)
}

type nopSink struct{}

func (nopSink) RowItemActivated(ItemActivated) {}
func (nopSink) RowItemHovered(ItemHovered)     {}

// MediaURL is the navigation target for item opened from playlistID.
// play starts playback immediately, used by continue watching rows.
func MediaURL(item PlaylistItem, playlistID string, play bool) string {
	path := "/m/" + url.PathEscape(item.MediaID) + "/" + Slugify(item.Title)
	query := url.Values{}
	if playlistID != "" {
		query.Set("r", playlistID)
	}
	if play {
		query.Set("play", "1")
	}
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}
