package pages

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treefix50/primeshelf/internal/shelf"
	"github.com/treefix50/primeshelf/internal/storage"
)

const homePages = `
pages:
  - id: home
    title: Home
    rows:
      - type: playlist
        contentId: abc123
        featured: true
      - type: continue_watching
      - type: playlist
        contentId: def456
        title: Drama
        enableText: true
  - id: kids
    rows:
      - type: favorites
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	set, err := Load(writeFile(t, "pages.yaml", homePages))
	require.NoError(t, err)

	assert.Equal(t, []string{"home", "kids"}, set.IDs())

	rows, ok := set.Rows("home")
	require.True(t, ok)
	require.Len(t, rows, 3)
	assert.Equal(t, shelf.RowDescriptor{Type: shelf.RowPlaylist, ContentID: "abc123", Featured: true}, rows[0])
	assert.Equal(t, shelf.RowContinueWatching, rows[1].Type)
	assert.Equal(t, "Drama", rows[2].Title)
	assert.True(t, rows[2].EnableText)

	rows[0].ContentID = "changed"
	again, _ := set.Rows("home")
	assert.Equal(t, "abc123", again[0].ContentID)

	_, ok = set.Rows("missing")
	assert.False(t, ok)
}

func TestParseRejectsInvalidPages(t *testing.T) {
	cases := map[string]string{
		"empty":        "pages: []\n",
		"missing id":   "pages:\n  - rows: []\n",
		"duplicate id": "pages:\n  - id: a\n  - id: a\n",
		"unknown type": "pages:\n  - id: a\n    rows:\n      - type: carousel\n",
		"no content":   "pages:\n  - id: a\n    rows:\n      - type: playlist\n",
		"bad yaml":     "pages: [\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read pages")
}

const catalogDoc = `
media:
  - mediaid: m9
    title: Standalone
playlists:
  - id: abc123
    title: Trending
    shelfImageAspectRatio: "2:3"
    items:
      - mediaid: m1
        title: First
        duration: 600
      - mediaid: m2
        title: Second
        free: true
posters:
  m1: posters/m1.jpg
playback:
  - client: tv-1
    mediaid: m1
    position: 120
    duration: 600
favorites:
  - client: tv-1
    mediaid: m2
`

func TestImportFile(t *testing.T) {
	store, err := storage.Open(":memory:", storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	summary, err := ImportFile(ctx, store, writeFile(t, "catalog.yaml", catalogDoc))
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Media: 1, Playlists: 1, Posters: 1, Playback: 1, Favorites: 1}, summary)

	pl, ok, err := store.GetPlaylist(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2:3", pl.ShelfImageAspectRatio)
	require.Len(t, pl.Items, 2)
	assert.True(t, pl.Items[1].Free)

	poster, ok, err := store.GetPosterPath(ctx, "m1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "posters/m1.jpg", poster)

	history, err := store.WatchHistory(ctx, "tv-1")
	require.NoError(t, err)
	assert.InDelta(t, 0.2, history["m1"].Progress, 0.001)

	favs, err := store.Favorites(ctx, "tv-1", 0)
	require.NoError(t, err)
	require.Len(t, favs.Items, 1)
	assert.Equal(t, "m2", favs.Items[0].MediaID)
}

func TestImportRejectsIncompleteRecords(t *testing.T) {
	store, err := storage.Open(":memory:", storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = Import(context.Background(), store, Catalog{Playback: []PlaybackRecord{{MediaID: "m1"}}})
	assert.ErrorContains(t, err, "needs client")
}
