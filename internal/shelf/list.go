package shelf

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrRowNotMounted = errors.New("shelf: row is not mounted")
	ErrRowNotReady   = errors.New("shelf: row is not ready")
	ErrItemNotFound  = errors.New("shelf: item not found in row")
)

type ListOptions struct {
	InitialRows int
	LoadRows    int
	Layout      Layout
	Sink        Sink
	// OnRowUpdate receives the new view of a mounted row whose resolution
	// settled after it was rendered.
	OnRowUpdate func(RowView)
	Logger      *slog.Logger
}

// ViewerSnapshot is the read-only viewer state for one render pass.
type ViewerSnapshot struct {
	Viewer  Viewer
	History WatchHistory
	Display DisplayConfig
}

// List drives the visible prefix of a page of rows: it decides which rows
// are mounted, resolves each through the Resolver and presents them.
type List struct {
	resolver *Resolver
	preload  *Coordinator
	layout   Layout
	sink     Sink
	onUpdate func(RowView)
	log      *slog.Logger

	unsubscribe func()

	mu         sync.Mutex
	page       string
	rows       []RowDescriptor
	disclosure *Disclosure
	mounted    map[Key][]int
	seedKey    Key
	hasSeed    bool
	seeded     bool
	snapshot   ViewerSnapshot
}

func NewList(resolver *Resolver, preload *Coordinator, opts ListOptions) *List {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := opts.Sink
	if sink == nil {
		sink = nopSink{}
	}
	layout := opts.Layout
	if layout.TileWidth <= 0 {
		layout = DefaultLayout
	}
	l := &List{
		resolver:   resolver,
		preload:    preload,
		layout:     layout,
		sink:       sink,
		onUpdate:   opts.OnRowUpdate,
		log:        logger,
		disclosure: NewDisclosure(opts.InitialRows, opts.LoadRows),
		mounted:    make(map[Key][]int),
	}
	l.unsubscribe = resolver.Subscribe(l.onSettled)
	return l
}

// Close detaches the list from its resolver and releases its mounted rows.
func (l *List) Close() {
	l.unsubscribe()
	l.mu.Lock()
	l.remountLocked(nil)
	l.mu.Unlock()
}

// SetRows installs the row sequence of page. When the sequence differs
// from the current one the disclosure resets to the initial count and the
// first row carrying a content id is resolved to seed preloading.
func (l *List) SetRows(page string, rows []RowDescriptor) bool {
	id := Fingerprint(page, rows)

	l.mu.Lock()
	if !l.disclosure.Sync(len(rows), id) {
		l.mu.Unlock()
		return false
	}
	l.page = page
	l.rows = append([]RowDescriptor(nil), rows...)
	l.remountLocked(make(map[Key][]int))
	l.hasSeed, l.seeded = false, false
	for i, row := range l.rows {
		if row.ContentID != "" {
			l.seedKey, l.hasSeed = KeyFor(row, i), true
			break
		}
	}
	seedKey, hasSeed := l.seedKey, l.hasSeed
	visible := l.disclosure.Visible()
	l.mu.Unlock()

	l.log.Debug("shelf page changed", "page", page, "rows", len(rows), "visible", visible)
	if hasSeed {
		if st := l.resolver.Resolve(seedKey); st.Status == StatusReady {
			l.seed(seedKey, st)
		}
	}
	return true
}

// Render resolves and presents the visible prefix.
func (l *List) Render(snapshot ViewerSnapshot) []RowView {
	l.mu.Lock()
	l.snapshot = snapshot
	rows := l.rows[:l.disclosure.Visible()]
	mounted := make(map[Key][]int, len(rows))
	keys := make([]Key, len(rows))
	for i, row := range rows {
		keys[i] = KeyFor(row, i)
		mounted[keys[i]] = append(mounted[keys[i]], i)
	}
	l.remountLocked(mounted)
	l.mu.Unlock()

	vc := l.viewContext(snapshot)
	views := make([]RowView, 0, len(rows))
	for i, row := range rows {
		st := l.resolver.Resolve(keys[i])
		views = append(views, Present(i, row, st, vc))
	}
	return views
}

// NearEnd is the scroll proximity signal. It discloses more rows when any
// remain and reports whether the visible count grew.
func (l *List) NearEnd() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disclosure.RequestMore()
}

func (l *List) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disclosure.HasMore()
}

func (l *List) Visible() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disclosure.Visible()
}

// Page returns the current page name and its rows.
func (l *List) Page() (string, []RowDescriptor) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page, append([]RowDescriptor(nil), l.rows...)
}

// Keys returns the identities of the visible prefix.
func (l *List) Keys() []Key {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := l.rows[:l.disclosure.Visible()]
	keys := make([]Key, len(rows))
	for i, row := range rows {
		keys[i] = KeyFor(row, i)
	}
	return keys
}

// Activate raises ItemActivated for mediaID in the row at position.
func (l *List) Activate(position int, mediaID string) (ItemActivated, error) {
	row, playlist, item, err := l.lookup(position, mediaID)
	if err != nil {
		return ItemActivated{}, err
	}
	ev := ItemActivated{
		Item:       item,
		RowID:      KeyFor(row, position).String(),
		RowType:    row.Type,
		PlaylistID: playlist.ID,
		URL:        MediaURL(item, playlist.ID, row.Type == RowContinueWatching),
	}
	l.sink.RowItemActivated(ev)
	return ev, nil
}

// Hover raises ItemHovered and schedules placeholder preloading.
func (l *List) Hover(position int, mediaID string) error {
	row, _, item, err := l.lookup(position, mediaID)
	if err != nil {
		return err
	}
	if l.preload != nil {
		l.preload.NotifyHover(item)
	}
	l.sink.RowItemHovered(ItemHovered{Item: item, RowID: KeyFor(row, position).String()})
	return nil
}

func (l *List) lookup(position int, mediaID string) (RowDescriptor, *Playlist, PlaylistItem, error) {
	l.mu.Lock()
	if position < 0 || position >= l.disclosure.Visible() {
		l.mu.Unlock()
		return RowDescriptor{}, nil, PlaylistItem{}, fmt.Errorf("%w: position %d", ErrRowNotMounted, position)
	}
	row := l.rows[position]
	l.mu.Unlock()

	st, ok := l.resolver.Peek(KeyFor(row, position))
	if !ok || st.Status != StatusReady {
		return row, nil, PlaylistItem{}, fmt.Errorf("%w: position %d", ErrRowNotReady, position)
	}
	item, ok := st.Playlist.Find(mediaID)
	if !ok {
		return row, st.Playlist, PlaylistItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, mediaID)
	}
	return row, st.Playlist, item, nil
}

func (l *List) onSettled(key Key, st ResolutionState) {
	l.mu.Lock()
	seed := l.hasSeed && !l.seeded && key == l.seedKey && st.Status == StatusReady
	positions := append([]int(nil), l.mounted[key]...)
	rows := make([]RowDescriptor, len(positions))
	for i, pos := range positions {
		rows[i] = l.rows[pos]
	}
	snapshot := l.snapshot
	l.mu.Unlock()

	if seed {
		l.seed(key, st)
	}
	if l.onUpdate == nil || len(positions) == 0 {
		return
	}
	vc := l.viewContext(snapshot)
	for i, pos := range positions {
		l.onUpdate(Present(pos, rows[i], st, vc))
	}
}

func (l *List) seed(key Key, st ResolutionState) {
	l.mu.Lock()
	if l.seeded || key != l.seedKey {
		l.mu.Unlock()
		return
	}
	l.seeded = true
	l.mu.Unlock()
	if l.preload != nil {
		l.preload.Seed(st.Playlist)
	}
}

// remountLocked replaces the mounted set and moves the resolver pins with
// it, so a mounted row is never evicted and refetched while on screen.
func (l *List) remountLocked(next map[Key][]int) {
	var pin, unpin []Key
	for key := range next {
		if _, ok := l.mounted[key]; !ok {
			pin = append(pin, key)
		}
	}
	for key := range l.mounted {
		if _, ok := next[key]; !ok {
			unpin = append(unpin, key)
		}
	}
	l.resolver.Pin(pin...)
	l.resolver.Unpin(unpin...)
	l.mounted = next
}

func (l *List) viewContext(snapshot ViewerSnapshot) ViewContext {
	vc := ViewContext{
		Viewer:  snapshot.Viewer,
		History: snapshot.History,
		Display: snapshot.Display,
		Layout:  l.layout,
	}
	if l.preload != nil {
		vc.Blur = l.preload
	}
	return vc
}
