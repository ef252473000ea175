package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/treefix50/primeshelf/internal/shelf"
)

const (
	defaultSessionTTL    = 30 * time.Minute
	defaultHoverInterval = 500 * time.Millisecond
	maxWait              = 10 * time.Second
)

// RowSource returns the rows of a named page.
type RowSource interface {
	Rows(page string) ([]shelf.RowDescriptor, bool)
}

// HistorySource returns the watch history of a client.
type HistorySource interface {
	WatchHistory(ctx context.Context, clientID string) (shelf.WatchHistory, error)
}

type Options struct {
	Addr  string
	Pages RowSource
	// Fetcher builds the playlist fetcher of one viewer session.
	Fetcher  func(clientID string) shelf.Fetcher
	History  HistorySource
	Renderer shelf.PlaceholderRenderer
	// Store enables the playback, favorites and poster endpoints.
	Store      ViewerStore
	PosterRoot string

	Display     shelf.DisplayConfig
	AccessModel shelf.AccessModel
	Layout      shelf.Layout

	InitialRows   int
	LoadRows      int
	CacheCapacity int
	FetchTimeout  time.Duration
	SessionTTL    time.Duration
	HoverInterval time.Duration

	CORS   bool
	Logger *slog.Logger
}

type Server struct {
	opts     Options
	log      *slog.Logger
	sessions *Registry
	hover    *RateLimiter
	http     *http.Server
}

func New(opts Options) (*Server, error) {
	if opts.Pages == nil {
		return nil, errors.New("server: missing page source")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("server: missing fetcher")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.HoverInterval <= 0 {
		opts.HoverInterval = defaultHoverInterval
	}
	if opts.History == nil && opts.Store != nil {
		opts.History = opts.Store
	}
	if opts.AccessModel == "" {
		opts.AccessModel = shelf.AccessAVOD
	}

	hover := NewRateLimiter(opts.HoverInterval)
	s := &Server{
		opts:     opts,
		log:      opts.Logger,
		sessions: NewRegistry(opts.SessionTTL, opts.Logger, hover.Forget),
		hover:    hover,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /sessions/{id}/more", s.handleMore)
	mux.HandleFunc("PUT /sessions/{id}/page", s.handleSetPage)
	mux.HandleFunc("POST /sessions/{id}/hover", s.handleHover)
	mux.HandleFunc("POST /sessions/{id}/activate", s.handleActivate)
	mux.HandleFunc("POST /sessions/{id}/rows/{position}/retry", s.handleRetry)
	mux.HandleFunc("POST /playback", s.handlePlayback)
	mux.HandleFunc("PUT /favorites/{client}/{media}", s.handleFavorite)
	mux.HandleFunc("DELETE /favorites/{client}/{media}", s.handleFavorite)
	mux.HandleFunc("GET /media/{id}/poster", s.handlePoster)

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           logMiddleware(mux, opts.CORS, opts.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the routed handler, used by tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.http.Shutdown(ctx)
	s.sessions.Close()
	return err
}

// newSession wires a resolver, preload coordinator and list for one viewer.
func (s *Server) newSession(clientID string, viewer shelf.Viewer) (*Session, error) {
	resolver, err := shelf.NewResolver(s.opts.Fetcher(clientID), shelf.ResolverOptions{
		Capacity:     s.opts.CacheCapacity,
		FetchTimeout: s.opts.FetchTimeout,
		Logger:       s.log,
	})
	if err != nil {
		return nil, fmt.Errorf("server: resolver: %w", err)
	}
	var preload *shelf.Coordinator
	if s.opts.Renderer != nil {
		preload = shelf.NewCoordinator(s.opts.Renderer, s.log)
	}
	viewer.AccessModel = s.opts.AccessModel
	sess := &Session{
		ClientID: clientID,
		Viewer:   viewer,
		resolver: resolver,
		preload:  preload,
	}
	sess.list = shelf.NewList(resolver, preload, shelf.ListOptions{
		InitialRows: s.opts.InitialRows,
		LoadRows:    s.opts.LoadRows,
		Layout:      s.opts.Layout,
		Sink:        logSink{log: s.log, client: clientID},
		OnRowUpdate: sess.rowUpdated,
		Logger:      s.log,
	})
	return sess, nil
}

func (s *Server) snapshot(ctx context.Context, sess *Session) shelf.ViewerSnapshot {
	snap := shelf.ViewerSnapshot{Viewer: sess.Viewer, Display: s.opts.Display}
	if s.opts.History == nil || sess.ClientID == "" {
		return snap
	}
	history, err := s.opts.History.WatchHistory(ctx, sess.ClientID)
	if err != nil {
		s.log.Warn("watch history unavailable", "client", sess.ClientID, "err", err)
		return snap
	}
	snap.History = history
	return snap
}

type logSink struct {
	log    *slog.Logger
	client string
}

func (l logSink) RowItemActivated(ev shelf.ItemActivated) {
	l.log.Info("row item activated", "client", l.client, "row", ev.RowID, "media", ev.Item.MediaID, "url", ev.URL)
}

func (l logSink) RowItemHovered(ev shelf.ItemHovered) {
	l.log.Debug("row item hovered", "client", l.client, "row", ev.RowID, "media", ev.Item.MediaID)
}
