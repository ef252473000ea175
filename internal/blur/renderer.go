// Package blur renders tiny placeholder images shown while full artwork
// loads.
package blur

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"

	"github.com/treefix50/primeshelf/internal/shelf"
)

const (
	DefaultWidth   = 16
	DefaultQuality = 40
	maxSourceBytes = 16 << 20
)

// ErrNoImage is returned when an item has no usable artwork.
var ErrNoImage = errors.New("blur: no image for item")

// ImageSource opens the artwork of an item.
type ImageSource interface {
	Open(ctx context.Context, item shelf.PlaylistItem) (io.ReadCloser, error)
}

type Options struct {
	Width   int
	Quality int
}

// Renderer implements shelf.PlaceholderRenderer.
type Renderer struct {
	source  ImageSource
	width   int
	quality int
}

func NewRenderer(source ImageSource, opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}
	return &Renderer{source: source, width: opts.Width, quality: opts.Quality}
}

// Placeholder returns a data URI of a downscaled JPEG of item's artwork.
func (r *Renderer) Placeholder(ctx context.Context, item shelf.PlaylistItem) (string, error) {
	rc, err := r.source.Open(ctx, item)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	src, _, err := image.Decode(io.LimitReader(rc, maxSourceBytes))
	if err != nil {
		return "", fmt.Errorf("blur: decode %s: %w", item.MediaID, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.encode(Downscale(src, r.width))
}

func (r *Renderer) encode(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
		return "", fmt.Errorf("blur: encode: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Downscale scales src to width pixels keeping its aspect ratio.
func Downscale(src image.Image, width int) image.Image {
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	if width > b.Dx() {
		width = b.Dx()
	}
	height := max(1, b.Dy()*width/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
