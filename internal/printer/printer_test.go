package printer

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/treefix50/primeshelf/internal/shelf"
)

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title for multiple suggestions", func(t *testing.T) {
		err := Error("Test Error", "Explanation", []string{"First option", "Second option"})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})
}

func TestRows(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	half := 0.5
	rows := []shelf.RowView{
		{
			ID: "playlist:p0", Position: 0, Type: shelf.RowPlaylist, Title: "Trending",
			Featured: true, Status: "ready", AspectRatio: "16:9",
			Tiles: []shelf.TileView{{MediaID: "m1", Title: "Night Train", Locked: true}},
		},
		{
			ID: "continue_watching#1", Position: 1, Type: shelf.RowContinueWatching,
			Status: "ready", AspectRatio: "16:9",
			Tiles: []shelf.TileView{{MediaID: "m2", Title: "Day Trip", Progress: &half}},
		},
		{ID: "playlist:p2", Position: 2, Type: shelf.RowPlaylist, Status: "loading", AspectRatio: "2:3", PlaceholderHeight: 400},
		{ID: "playlist:p3", Position: 3, Type: shelf.RowPlaylist, Status: "error", Error: "failed to load playlist row", ErrorCode: shelf.CodeFetchFailure},
	}

	var buf bytes.Buffer
	Rows(&buf, "home", rows, 6)
	out := buf.String()

	require.Contains(t, out, "home  4 of 6 rows")
	require.Contains(t, out, "★ [0] Trending")
	require.Contains(t, out, "- Night Train (m1) locked")
	require.Contains(t, out, "  [1] continue_watching")
	require.Contains(t, out, "- Day Trip (m2) 50%")
	require.Contains(t, out, "loading (400px reserved)")
	require.Contains(t, out, "failed to load playlist row [FETCH_FAILURE]")
	require.Contains(t, out, "… 2 more")
}
