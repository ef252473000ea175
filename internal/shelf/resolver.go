package shelf

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheCapacity bounds the number of row identities kept by a
// Resolver when no capacity is configured.
const DefaultCacheCapacity = 512

// Fetcher resolves the playlist behind a row.
type Fetcher interface {
	FetchPlaylist(ctx context.Context, contentID string, rowType RowType) (*Playlist, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, contentID string, rowType RowType) (*Playlist, error)

func (f FetcherFunc) FetchPlaylist(ctx context.Context, contentID string, rowType RowType) (*Playlist, error) {
	return f(ctx, contentID, rowType)
}

type ResolverOptions struct {
	// Capacity bounds the settled identities no list has mounted. Loading
	// and pinned identities are kept on top of it. Zero uses
	// DefaultCacheCapacity.
	Capacity int
	// FetchTimeout turns a fetch that runs longer into a FetchFailure.
	// Zero leaves a stuck fetch in Loading.
	FetchTimeout time.Duration
	Logger       *slog.Logger
}

type entry struct {
	state ResolutionState
}

// Resolver memoizes one ResolutionState per row identity and drives the
// asynchronous fetches behind them.
type Resolver struct {
	fetcher Fetcher
	timeout time.Duration
	log     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group
	wg     sync.WaitGroup

	mu      sync.Mutex
	entries *lru.Cache[Key, *entry]
	pinned  map[Key]*entry
	pins    map[Key]int
	seq     uint64
	subs    map[int]func(Key, ResolutionState)
	nextSub int
	closed  bool
}

func NewResolver(fetcher Fetcher, opts ResolverOptions) (*Resolver, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("shelf: resolver requires a fetcher")
	}
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := lru.New[Key, *entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("shelf: create resolver cache: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Resolver{
		fetcher: fetcher,
		timeout: opts.FetchTimeout,
		log:     logger,
		ctx:     ctx,
		cancel:  cancel,
		entries: entries,
		pinned:  make(map[Key]*entry),
		pins:    make(map[Key]int),
		subs:    make(map[int]func(Key, ResolutionState)),
	}, nil
}

// Resolve returns the state for key, starting a fetch on first observation.
// Later calls return the memoized state without fetching again.
func (r *Resolver) Resolve(key Key) ResolutionState {
	r.mu.Lock()
	if e, ok := r.lookupLocked(key, true); ok {
		st := e.state
		r.mu.Unlock()
		return st
	}
	st, ok := r.beginLocked(key)
	r.mu.Unlock()
	if ok {
		r.start(key, st.Version)
	}
	return st
}

// Refetch re-enters Loading for key with a new version. A fetch still in
// flight for the previous version is discarded when it lands.
func (r *Resolver) Refetch(key Key) ResolutionState {
	r.mu.Lock()
	r.group.Forget(flightKey(key))
	st, ok := r.beginLocked(key)
	r.mu.Unlock()
	if ok {
		r.log.Debug("playlist refetch", "row", key.String(), "version", st.Version)
		r.start(key, st.Version)
	}
	return st
}

// Peek returns the memoized state without starting a fetch or touching
// recency.
func (r *Resolver) Peek(key Key) (ResolutionState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.lookupLocked(key, false)
	if !ok {
		return ResolutionState{}, false
	}
	return e.state, true
}

// Await resolves key and blocks until its state settles or ctx is done.
func (r *Resolver) Await(ctx context.Context, key Key) (ResolutionState, error) {
	ch := make(chan ResolutionState, 1)
	unsubscribe := r.Subscribe(func(k Key, st ResolutionState) {
		if k != key {
			return
		}
		select {
		case ch <- st:
		default:
		}
	})
	defer unsubscribe()

	st := r.Resolve(key)
	if st.Settled() {
		return st, nil
	}
	select {
	case st = <-ch:
		return st, nil
	case <-ctx.Done():
		if cur, ok := r.Peek(key); ok {
			st = cur
		}
		return st, ctx.Err()
	}
}

// Subscribe registers fn for settled states. fn runs on the fetching
// goroutine and must not block.
func (r *Resolver) Subscribe(fn func(Key, ResolutionState)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Pin keeps keys resident past capacity until they are unpinned. Pins
// are counted, so every Pin needs a matching Unpin.
func (r *Resolver) Pin(keys ...Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range keys {
		r.pins[key]++
		if e, ok := r.lookupLocked(key, false); ok {
			r.storeLocked(key, e)
		}
	}
}

// Unpin releases a Pin. A settled identity without pins becomes subject to
// eviction again.
func (r *Resolver) Unpin(keys ...Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range keys {
		if n := r.pins[key]; n > 1 {
			r.pins[key] = n - 1
			continue
		}
		delete(r.pins, key)
		if e, ok := r.pinned[key]; ok {
			r.storeLocked(key, e)
		}
	}
}

// Len returns the number of cached identities.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries.Len() + len(r.pinned)
}

// Close cancels in-flight fetches and waits for them to return.
func (r *Resolver) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()
	r.wg.Wait()
}

func (r *Resolver) beginLocked(key Key) (ResolutionState, bool) {
	r.seq++
	st := loading(r.seq)
	if r.closed {
		st = failed(r.seq, WrapError(CodeFetchFailure, "resolver closed", nil, context.Canceled))
	}
	r.storeLocked(key, &entry{state: st})
	if r.closed {
		return st, false
	}
	r.wg.Add(1)
	return st, true
}

// lookupLocked finds key among the pinned and cached entries. touch marks
// a cached entry as recently used.
func (r *Resolver) lookupLocked(key Key, touch bool) (*entry, bool) {
	if e, ok := r.pinned[key]; ok {
		return e, true
	}
	if touch {
		return r.entries.Get(key)
	}
	return r.entries.Peek(key)
}

// storeLocked places e so the LRU only ever evicts settled, unpinned
// identities. A Loading entry must survive until its result lands.
func (r *Resolver) storeLocked(key Key, e *entry) {
	if e.state.Status == StatusLoading || r.pins[key] > 0 {
		r.entries.Remove(key)
		r.pinned[key] = e
		return
	}
	delete(r.pinned, key)
	r.entries.Add(key, e)
}

// start runs the fetch for a version begun by beginLocked, which has
// already counted it in wg.
func (r *Resolver) start(key Key, version uint64) {
	go func() {
		defer r.wg.Done()
		playlist, err := r.fetch(key)
		r.settle(key, version, playlist, err)
	}()
}

func (r *Resolver) fetch(key Key) (*Playlist, error) {
	v, err, shared := r.group.Do(flightKey(key), func() (any, error) {
		ctx := r.ctx
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		started := time.Now()
		playlist, err := r.fetcher.FetchPlaylist(ctx, key.ContentID, key.Type)
		r.log.Debug("playlist fetch", "row", key.String(), "duration", time.Since(started), "err", err)
		return playlist, err
	})
	if shared {
		r.log.Debug("playlist fetch shared", "row", key.String())
	}
	if err != nil {
		return nil, err
	}
	playlist, _ := v.(*Playlist)
	return playlist, nil
}

func (r *Resolver) settle(key Key, version uint64, playlist *Playlist, err error) {
	r.mu.Lock()
	e, ok := r.lookupLocked(key, false)
	if !ok || e.state.Version != version {
		r.mu.Unlock()
		r.log.Debug("discarding stale playlist result", "row", key.String(), "version", version)
		return
	}
	if err != nil {
		e.state = failed(version, WrapError(CodeFetchFailure, "resolve "+key.String(), map[string]string{
			"contentId": key.ContentID,
			"type":      string(key.Type),
		}, err))
	} else {
		if playlist == nil {
			playlist = &Playlist{ID: key.ContentID}
		}
		e.state = ready(version, playlist)
	}
	r.storeLocked(key, e)
	st := e.state
	subs := make([]func(Key, ResolutionState), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	if err != nil {
		r.log.Warn("playlist resolution failed", "row", key.String(), "err", err)
	} else if len(st.Playlist.Items) == 0 {
		r.log.Info("playlist resolved empty", "row", key.String(), "code", CodeEmptyPlaylist)
	}
	for _, fn := range subs {
		fn(key, st)
	}
}

func flightKey(key Key) string {
	return string(key.Type) + ":" + key.ContentID
}
