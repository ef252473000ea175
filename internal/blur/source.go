package blur

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/treefix50/primeshelf/internal/shelf"
)

// PosterLookup resolves a local poster path for a media id.
type PosterLookup interface {
	GetPosterPath(ctx context.Context, mediaID string) (string, bool, error)
}

// FileSource reads posters from disk. Store paths win over item.Image;
// relative paths are resolved against Root.
type FileSource struct {
	Posters PosterLookup
	Root    string
}

func (s FileSource) Open(ctx context.Context, item shelf.PlaylistItem) (io.ReadCloser, error) {
	path := ""
	if s.Posters != nil {
		p, ok, err := s.Posters.GetPosterPath(ctx, item.MediaID)
		if err != nil {
			return nil, err
		}
		if ok {
			path = p
		}
	}
	if path == "" && item.Image != "" && !isRemote(item.Image) {
		path = item.Image
	}
	if path == "" {
		return nil, ErrNoImage
	}
	if !filepath.IsAbs(path) && s.Root != "" {
		path = filepath.Join(s.Root, filepath.Clean("/"+path))
	}
	return os.Open(path)
}

// HTTPSource downloads remote artwork.
type HTTPSource struct {
	Client *http.Client
}

func (s HTTPSource) Open(ctx context.Context, item shelf.PlaylistItem) (io.ReadCloser, error) {
	if !isRemote(item.Image) {
		return nil, ErrNoImage
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.Image, nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("blur: fetch %s: status %d", item.Image, resp.StatusCode)
	}
	return resp.Body, nil
}

// Sources tries each source in order until one opens.
type Sources []ImageSource

func (ss Sources) Open(ctx context.Context, item shelf.PlaylistItem) (io.ReadCloser, error) {
	var firstErr error
	for _, s := range ss {
		rc, err := s.Open(ctx, item)
		if err == nil {
			return rc, nil
		}
		if firstErr == nil && !errors.Is(err, ErrNoImage) {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, ErrNoImage
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
