// Package delivery fetches published playlists from a remote delivery API.
package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/treefix50/primeshelf/internal/shelf"
)

const defaultTimeout = 15 * time.Second

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	PlaylistID string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("delivery: playlist %s: unexpected status %d", e.PlaylistID, e.StatusCode)
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("delivery: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("delivery: unsupported base url %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: u, http: httpClient}, nil
}

type playlistResponse struct {
	FeedID                string               `json:"feedid"`
	Title                 string               `json:"title"`
	ShelfImageAspectRatio string               `json:"shelfImageAspectRatio"`
	Playlist              []shelf.PlaylistItem `json:"playlist"`
}

// FetchPlaylist GETs <base>/v2/playlists/<id>.
func (c *Client) FetchPlaylist(ctx context.Context, contentID string, _ shelf.RowType) (*shelf.Playlist, error) {
	if contentID == "" {
		return nil, fmt.Errorf("delivery: missing playlist id")
	}
	endpoint := c.baseURL.JoinPath("v2", "playlists", contentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("delivery: playlist %s: %w", contentID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, PlaylistID: contentID}
	}

	var body playlistResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("delivery: decode playlist %s: %w", contentID, err)
	}
	id := body.FeedID
	if id == "" {
		id = contentID
	}
	items := body.Playlist
	if items == nil {
		items = []shelf.PlaylistItem{}
	}
	return &shelf.Playlist{
		ID:                    id,
		Title:                 body.Title,
		Items:                 items,
		ShelfImageAspectRatio: body.ShelfImageAspectRatio,
	}, nil
}
