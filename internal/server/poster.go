package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

func (s *Server) handlePoster(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		writeError(w, "not available without database", http.StatusNotImplemented)
		return
	}
	path, ok, err := s.opts.Store.GetPosterPath(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	if !ok {
		writeError(w, errNotFound, http.StatusNotFound)
		return
	}
	if !filepath.IsAbs(path) && s.opts.PosterRoot != "" {
		path = filepath.Join(s.opts.PosterRoot, filepath.Clean("/"+path))
	}
	servePosterFile(w, r, path)
}

func servePosterFile(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path)
	if err != nil {
		writeError(w, "file not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil || st.IsDir() {
		writeError(w, "file not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", GetPosterContentType(path))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, filepath.Base(path), st.ModTime(), f)
}

// GetPosterContentType returns the content type for a poster file
func GetPosterContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
