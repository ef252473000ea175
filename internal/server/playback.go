package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/treefix50/primeshelf/internal/shelf"
)

// PlaybackEvent represents a client playback progress payload.
type PlaybackEvent struct {
	Event           string `json:"event"`
	MediaID         string `json:"mediaId"`
	ClientID        string `json:"clientId"`
	PositionSeconds int64  `json:"positionSeconds"`
	DurationSeconds int64  `json:"durationSeconds"`
	LastPlayedAt    int64  `json:"lastPlayedAt,omitempty"`
}

const playbackEventFinished = "finished"

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	if !s.writableStore(w) {
		return
	}
	var event PlaybackEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, errBadRequest, http.StatusBadRequest)
		return
	}
	event.ClientID = strings.TrimSpace(event.ClientID)
	if event.ClientID == "" || event.MediaID == "" {
		writeError(w, "clientId and mediaId are required", http.StatusBadRequest)
		return
	}
	if event.PositionSeconds < 0 || event.DurationSeconds < 0 {
		writeError(w, "negative position", http.StatusBadRequest)
		return
	}

	var err error
	if event.Event == playbackEventFinished {
		err = s.opts.Store.DeletePlaybackState(r.Context(), event.MediaID, event.ClientID)
	} else {
		playedAt := time.Now()
		if event.LastPlayedAt > 0 {
			playedAt = time.Unix(event.LastPlayedAt, 0)
		}
		err = s.opts.Store.UpsertPlaybackState(r.Context(), event.MediaID, event.ClientID,
			event.PositionSeconds, event.DurationSeconds, playedAt)
	}
	if err != nil {
		s.log.Error("playback update failed", "client", event.ClientID, "media", event.MediaID, "err", err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	s.refreshPersonal(event.ClientID, shelf.RowContinueWatching)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	if !s.writableStore(w) {
		return
	}
	clientID, mediaID := r.PathValue("client"), r.PathValue("media")

	var err error
	switch r.Method {
	case http.MethodPut:
		err = s.opts.Store.AddFavorite(r.Context(), clientID, mediaID, time.Now())
	case http.MethodDelete:
		err = s.opts.Store.RemoveFavorite(r.Context(), clientID, mediaID)
	}
	if err != nil {
		s.log.Error("favorite update failed", "client", clientID, "media", mediaID, "err", err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	s.refreshPersonal(clientID, shelf.RowFavorites)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writableStore(w http.ResponseWriter) bool {
	if s.opts.Store == nil {
		writeError(w, "not available without database", http.StatusNotImplemented)
		return false
	}
	if s.opts.Store.ReadOnly() {
		writeError(w, "read-only mode", http.StatusForbidden)
		return false
	}
	return true
}
