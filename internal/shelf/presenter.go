package shelf

import "errors"

// Layout holds the sizes used to reserve space for rows still loading.
type Layout struct {
	TileWidth     int     `json:"tileWidth"`
	TitleHeight   int     `json:"titleHeight"`
	FeaturedScale float64 `json:"featuredScale"`
}

var DefaultLayout = Layout{TileWidth: 240, TitleHeight: 40, FeaturedScale: 2}

// BlurLookup exposes cached placeholder images by media id.
type BlurLookup interface {
	Lookup(mediaID string) (string, bool)
}

// ViewContext is the viewer state merged into every row.
type ViewContext struct {
	Viewer  Viewer
	History WatchHistory
	Display DisplayConfig
	Blur    BlurLookup
	Layout  Layout
}

type TileView struct {
	MediaID     string   `json:"mediaid"`
	Title       string   `json:"title"`
	Image       string   `json:"image,omitempty"`
	Duration    int64    `json:"duration,omitempty"`
	Progress    *float64 `json:"progress,omitempty"`
	Locked      bool     `json:"locked,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
}

// RowView is what the client draws for one row.
type RowView struct {
	ID                string     `json:"id"`
	Position          int        `json:"position"`
	Type              RowType    `json:"type"`
	PlaylistID        string     `json:"playlistId,omitempty"`
	Title             string     `json:"title,omitempty"`
	ShowTitle         bool       `json:"showTitle"`
	ShowCardTitles    bool       `json:"showCardTitles"`
	Featured          bool       `json:"featured"`
	Status            string     `json:"status"`
	Error             string     `json:"error,omitempty"`
	ErrorCode         Code       `json:"errorCode,omitempty"`
	AspectRatio       string     `json:"aspectRatio"`
	VisibleTilesDelta int        `json:"visibleTilesDelta"`
	PlaceholderHeight int        `json:"placeholderHeight,omitempty"`
	TestID            string     `json:"testId"`
	Tiles             []TileView `json:"tiles,omitempty"`
}

// Present combines a row descriptor with its resolution state and the
// viewer context. It has no side effects.
func Present(position int, desc RowDescriptor, state ResolutionState, vc ViewContext) RowView {
	key := KeyFor(desc, position)
	layout := vc.Layout
	if layout.TileWidth <= 0 {
		layout = DefaultLayout
	}

	var playlist Playlist
	if state.Status == StatusReady && state.Playlist != nil {
		playlist = *state.Playlist
	}
	title := desc.Title
	if title == "" {
		title = playlist.Title
	}
	aspect, _ := ParseAspectRatio(playlist.ShelfImageAspectRatio)

	view := RowView{
		ID:                key.String(),
		Position:          position,
		Type:              desc.Type,
		PlaylistID:        playlist.ID,
		Title:             title,
		ShowTitle:         desc.EnableText,
		ShowCardTitles:    vc.Display.ShelfTitles,
		Featured:          desc.Featured,
		Status:            state.Status.String(),
		AspectRatio:       aspect.String(),
		VisibleTilesDelta: TilesDelta(aspect),
		TestID:            testID(desc, title),
	}

	switch state.Status {
	case StatusLoading:
		view.PlaceholderHeight = placeholderHeight(layout, aspect, desc)
	case StatusError:
		view.ErrorCode = CodeOf(state.Err)
		if view.ErrorCode == "" {
			view.ErrorCode = CodeFetchFailure
		}
		view.Error = errorMessage(state.Err)
	case StatusReady:
		view.Tiles = tiles(desc, playlist.Items, vc)
	}
	return view
}

func tiles(desc RowDescriptor, items []PlaylistItem, vc ViewContext) []TileView {
	out := make([]TileView, 0, len(items))
	for _, item := range items {
		tile := TileView{
			MediaID:  item.MediaID,
			Title:    item.Title,
			Image:    item.Image,
			Duration: item.DurationSeconds,
			Locked:   isLocked(vc.Viewer, item),
		}
		if desc.Type == RowContinueWatching && vc.History != nil {
			if entry, ok := vc.History[item.MediaID]; ok {
				progress := entry.Progress
				tile.Progress = &progress
			}
		}
		if vc.Blur != nil {
			if placeholder, ok := vc.Blur.Lookup(item.MediaID); ok {
				tile.Placeholder = placeholder
			}
		}
		out = append(out, tile)
	}
	return out
}

func isLocked(v Viewer, item PlaylistItem) bool {
	if item.Free {
		return false
	}
	switch v.AccessModel {
	case AccessSVOD:
		return !v.HasSubscription
	case AccessAUTHVOD:
		return !v.LoggedIn
	default:
		return false
	}
}

func placeholderHeight(layout Layout, aspect AspectRatio, desc RowDescriptor) int {
	width := float64(layout.TileWidth)
	if desc.Featured && layout.FeaturedScale > 0 {
		width *= layout.FeaturedScale
	}
	height := int(width * float64(aspect.Height) / float64(aspect.Width))
	if desc.EnableText || desc.Featured {
		height += layout.TitleHeight
	}
	return height
}

func testID(desc RowDescriptor, title string) string {
	switch {
	case desc.Featured:
		return "shelf-featured"
	case desc.Type != RowPlaylist:
		return "shelf-" + string(desc.Type)
	default:
		return "shelf-" + Slugify(title)
	}
}

func errorMessage(err error) string {
	if err == nil {
		return "failed to load"
	}
	var e *Error
	if errors.As(err, &e) && e.Code == CodeFetchFailure {
		return "failed to load " + e.Metadata["type"] + " row"
	}
	return err.Error()
}
