package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/treefix50/primeshelf/internal/shelf"
)

const (
	errNotFound    = "not found"
	errBadRequest  = "bad request"
	errInternal    = "internal error"
	errUnknownPage = "unknown page"
)

type createSessionRequest struct {
	Page            string `json:"page"`
	ClientID        string `json:"clientId"`
	LoggedIn        bool   `json:"loggedIn"`
	HasSubscription bool   `json:"hasSubscription"`
}

type setPageRequest struct {
	Page string `json:"page"`
}

type itemRequest struct {
	Position int    `json:"position"`
	MediaID  string `json:"mediaId"`
}

type sessionResponse struct {
	ID       string          `json:"id"`
	ClientID string          `json:"clientId,omitempty"`
	Page     string          `json:"page"`
	Visible  int             `json:"visible"`
	Total    int             `json:"total"`
	HasMore  bool            `json:"hasMore"`
	Revision uint64          `json:"revision"`
	Rows     []shelf.RowView `json:"rows"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", textContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errBadRequest, http.StatusBadRequest)
		return
	}
	page := strings.TrimSpace(payload.Page)
	rows, ok := s.opts.Pages.Rows(page)
	if !ok {
		writeError(w, errUnknownPage, http.StatusNotFound)
		return
	}

	sess, err := s.newSession(strings.TrimSpace(payload.ClientID), shelf.Viewer{
		LoggedIn:        payload.LoggedIn,
		HasSubscription: payload.HasSubscription,
	})
	if err != nil {
		s.log.Error("create session failed", "err", err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	sess.list.SetRows(page, rows)
	id := s.sessions.Add(sess)
	s.log.Info("viewer session created", "session", id, "client", sess.ClientID, "page", page)

	w.Header().Set("Location", "/sessions/"+id)
	writeJSONStatus(w, http.StatusCreated, s.render(r.Context(), sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	wait, err := parseWait(r.URL.Query().Get("wait"))
	if err != nil {
		writeError(w, errBadRequest, http.StatusBadRequest)
		return
	}
	if wait > 0 {
		// mount the visible rows before waiting on them
		sess.list.Render(s.snapshot(r.Context(), sess))
		s.awaitVisible(r.Context(), sess, wait)
	}
	writeJSON(w, s.render(r.Context(), sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.sessions.Delete(id) {
		writeError(w, errNotFound, http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMore(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.list.NearEnd()
	writeJSON(w, s.render(r.Context(), sess))
}

func (s *Server) handleSetPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var payload setPageRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errBadRequest, http.StatusBadRequest)
		return
	}
	page := strings.TrimSpace(payload.Page)
	rows, found := s.opts.Pages.Rows(page)
	if !found {
		writeError(w, errUnknownPage, http.StatusNotFound)
		return
	}
	if sess.list.SetRows(page, rows) {
		s.log.Debug("viewer session page changed", "session", sess.ID, "page", page)
	}
	writeJSON(w, s.render(r.Context(), sess))
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var payload itemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errBadRequest, http.StatusBadRequest)
		return
	}
	// repeated hovers of one item are throttled, moving to another item is not
	if allowed, retry := s.hover.Allow(hoverKey(sess.ID, payload.MediaID)); !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
		writeError(w, "too many requests", http.StatusTooManyRequests)
		return
	}
	if err := sess.list.Hover(payload.Position, payload.MediaID); err != nil {
		writeItemError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func hoverKey(sessionID, mediaID string) string {
	return sessionID + "/" + mediaID
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var payload itemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errBadRequest, http.StatusBadRequest)
		return
	}
	ev, err := sess.list.Activate(payload.Position, payload.MediaID)
	if err != nil {
		writeItemError(w, err)
		return
	}
	writeJSON(w, ev)
}

// handleRetry refetches a visible row, typically one in the error state.
func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	position, err := strconv.Atoi(r.PathValue("position"))
	if err != nil {
		writeError(w, errBadRequest, http.StatusBadRequest)
		return
	}
	keys := sess.list.Keys()
	if position < 0 || position >= len(keys) {
		writeItemError(w, shelf.ErrRowNotMounted)
		return
	}
	sess.resolver.Refetch(keys[position])
	writeJSON(w, s.render(r.Context(), sess))
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, errNotFound, http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) render(ctx context.Context, sess *Session) sessionResponse {
	rows := sess.list.Render(s.snapshot(ctx, sess))
	page, all := sess.list.Page()
	return sessionResponse{
		ID:       sess.ID,
		ClientID: sess.ClientID,
		Page:     page,
		Visible:  len(rows),
		Total:    len(all),
		HasMore:  sess.list.HasMore(),
		Revision: sess.revision.Load(),
		Rows:     rows,
	}
}

func (s *Server) awaitVisible(ctx context.Context, sess *Session, wait time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	for _, key := range sess.list.Keys() {
		if _, err := sess.resolver.Await(ctx, key); err != nil {
			return
		}
	}
}

func parseWait(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, errors.New("invalid wait")
	}
	return min(d, maxWait), nil
}

func writeItemError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shelf.ErrRowNotMounted), errors.Is(err, shelf.ErrItemNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, shelf.ErrRowNotReady):
		writeError(w, err.Error(), http.StatusConflict)
	default:
		writeError(w, errInternal, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSONStatus(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
