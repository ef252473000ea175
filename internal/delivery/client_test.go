package delivery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treefix50/primeshelf/internal/shelf"
)

func TestFetchPlaylist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/playlists/abc123":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"feedid": "abc123",
				"title": "Trending",
				"shelfImageAspectRatio": "2:3",
				"playlist": [
					{"mediaid": "m1", "title": "One", "image": "https://cdn/m1.jpg", "duration": 120},
					{"mediaid": "m2", "title": "Two", "free": true}
				]
			}`))
		case "/api/v2/playlists/empty":
			_, _ = w.Write([]byte(`{"title": "Empty"}`))
		case "/api/v2/playlists/broken":
			_, _ = w.Write([]byte(`{not json`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/api/", srv.Client())
	require.NoError(t, err)
	ctx := context.Background()

	pl, err := c.FetchPlaylist(ctx, "abc123", shelf.RowPlaylist)
	require.NoError(t, err)
	assert.Equal(t, "Trending", pl.Title)
	assert.Equal(t, "2:3", pl.ShelfImageAspectRatio)
	require.Len(t, pl.Items, 2)
	assert.Equal(t, int64(120), pl.Items[0].DurationSeconds)
	assert.True(t, pl.Items[1].Free)

	pl, err = c.FetchPlaylist(ctx, "empty", shelf.RowPlaylist)
	require.NoError(t, err)
	assert.Equal(t, "empty", pl.ID)
	assert.NotNil(t, pl.Items)
	assert.Empty(t, pl.Items)

	_, err = c.FetchPlaylist(ctx, "missing", shelf.RowPlaylist)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	_, err = c.FetchPlaylist(ctx, "broken", shelf.RowPlaylist)
	assert.ErrorContains(t, err, "decode playlist broken")

	_, err = c.FetchPlaylist(ctx, "", shelf.RowPlaylist)
	assert.Error(t, err)
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com", nil)
	assert.Error(t, err)
}
