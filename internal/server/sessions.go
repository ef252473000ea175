package server

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/treefix50/primeshelf/internal/shelf"
)

// Session is the browse state of one viewer.
type Session struct {
	ID       string
	ClientID string
	Viewer   shelf.Viewer

	list     *shelf.List
	resolver *shelf.Resolver
	preload  *shelf.Coordinator

	// revision counts rows that settled after being rendered.
	revision atomic.Uint64
	lastSeen atomic.Int64
}

func (s *Session) rowUpdated(shelf.RowView) {
	s.revision.Add(1)
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// Close detaches the list and stops in-flight work of the session.
func (s *Session) Close() {
	s.list.Close()
	s.resolver.Close()
	if s.preload != nil {
		s.preload.Close()
	}
}

// Registry keeps viewer sessions in memory. A session expires after ttl
// without requests.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	log      *slog.Logger
	// onRemove runs after a session leaves the registry.
	onRemove func(id string)

	stop     chan struct{}
	stopOnce sync.Once
}

func NewRegistry(ttl time.Duration, logger *slog.Logger, onRemove func(id string)) *Registry {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		log:      logger,
		onRemove: onRemove,
		stop:     make(chan struct{}),
	}
	go r.cleanupLoop(cleanupInterval(ttl))
	return r
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < 2*time.Minute {
		return ttl / 2
	}
	return time.Minute
}

// Add assigns an id to sess and stores it.
func (r *Registry) Add(sess *Session) string {
	sess.ID = uuid.NewString()
	sess.touch(time.Now())

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()
	return sess.ID
}

// Get returns a live session and refreshes its expiry.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	now := time.Now()
	if sess.idleSince(now) > r.ttl {
		return nil, false
	}
	sess.touch(now)
	return sess, true
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		r.removed(sess)
	}
	return ok
}

// ForClient returns the live sessions of clientID.
func (r *Registry) ForClient(clientID string) []*Session {
	if clientID == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Session
	for _, sess := range r.sessions {
		if sess.ClientID == clientID {
			out = append(out, sess)
		}
	}
	return out
}

func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close stops the cleanup loop and closes every session.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, sess := range sessions {
		sess.Close()
	}
}

func (r *Registry) removed(sess *Session) {
	sess.Close()
	if r.onRemove != nil {
		r.onRemove(sess.ID)
	}
}

func (r *Registry) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cleanup(time.Now())
		case <-r.stop:
			return
		}
	}
}

func (r *Registry) cleanup(now time.Time) int {
	var expired []*Session
	r.mu.Lock()
	for id, sess := range r.sessions {
		if sess.idleSince(now) > r.ttl {
			expired = append(expired, sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range expired {
		r.removed(sess)
	}
	if len(expired) > 0 {
		r.log.Info("viewer sessions expired", "count", len(expired))
	}
	return len(expired)
}
