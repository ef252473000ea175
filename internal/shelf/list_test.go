package shelf

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu        sync.Mutex
	activated []ItemActivated
	hovered   []ItemHovered
}

func (s *recordingSink) RowItemActivated(ev ItemActivated) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activated = append(s.activated, ev)
}

func (s *recordingSink) RowItemHovered(ev ItemHovered) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hovered = append(s.hovered, ev)
}

func newTestList(t *testing.T, fetcher Fetcher, opts ListOptions) (*List, *Resolver, *Coordinator) {
	t.Helper()
	r := newTestResolver(t, fetcher, ResolverOptions{})
	c := NewCoordinator(&countingRenderer{}, discardLogger)
	t.Cleanup(c.Close)
	opts.Logger = discardLogger
	l := NewList(r, c, opts)
	t.Cleanup(l.Close)
	return l, r, c
}

func tenRowFetcher() *countingFetcher {
	fetcher := newCountingFetcher()
	for _, row := range playlistRows(10) {
		fetcher.playlists[row.ContentID] = playlistOf(row.ContentID, "Row "+row.ContentID, row.ContentID+"-1", row.ContentID+"-2")
	}
	return fetcher
}

func TestListDisclosesRowsOnScroll(t *testing.T) {
	fetcher := tenRowFetcher()
	l, _, _ := newTestList(t, fetcher, ListOptions{InitialRows: 6, LoadRows: 4})

	require.True(t, l.SetRows("home", playlistRows(10)))
	views := l.Render(ViewerSnapshot{})
	require.Len(t, views, 6)
	for i, v := range views {
		assert.Equal(t, i, v.Position)
	}
	assert.True(t, l.HasMore())

	assert.True(t, l.NearEnd())
	assert.Len(t, l.Render(ViewerSnapshot{}), 10)

	assert.False(t, l.NearEnd())
	assert.Len(t, l.Render(ViewerSnapshot{}), 10)

	// rows never disclosed are never fetched
	for _, row := range playlistRows(10) {
		assert.LessOrEqual(t, fetcher.Calls(row.ContentID), 1)
	}
}

func TestListResetsOnNewPage(t *testing.T) {
	fetcher := tenRowFetcher()
	l, _, _ := newTestList(t, fetcher, ListOptions{InitialRows: 6, LoadRows: 4})

	l.SetRows("home", playlistRows(10))
	l.NearEnd()
	require.Equal(t, 10, l.Visible())

	assert.False(t, l.SetRows("home", playlistRows(10)), "same rows must keep the disclosure")
	assert.Equal(t, 10, l.Visible())

	assert.True(t, l.SetRows("movies", playlistRows(8)))
	assert.Equal(t, 6, l.Visible())
	page, rows := l.Page()
	assert.Equal(t, "movies", page)
	assert.Len(t, rows, 8)
}

func TestListSiblingRowSurvivesFailure(t *testing.T) {
	fetcher := newCountingFetcher()
	fetcher.errs["abc123"] = errors.New("503 from delivery api")
	fetcher.playlists["xyz789"] = playlistOf("xyz789", "Drama", "m1")
	l, r, _ := newTestList(t, fetcher, ListOptions{})

	rows := []RowDescriptor{
		{Type: RowPlaylist, ContentID: "abc123"},
		{Type: RowPlaylist, ContentID: "xyz789"},
	}
	l.SetRows("home", rows)
	l.Render(ViewerSnapshot{})
	await(t, r, KeyFor(rows[0], 0))
	await(t, r, KeyFor(rows[1], 1))

	views := l.Render(ViewerSnapshot{})
	require.Len(t, views, 2)
	assert.Equal(t, "error", views[0].Status)
	assert.Equal(t, CodeFetchFailure, views[0].ErrorCode)
	assert.Equal(t, "ready", views[1].Status)
	assert.Equal(t, "Drama", views[1].Title)
	assert.Len(t, views[1].Tiles, 1)
}

func TestListSeedsPreloadFromFirstContentRow(t *testing.T) {
	fetcher := newCountingFetcher()
	fetcher.playlists["first"] = playlistOf("first", "First", "m1", "m2", "m3")
	l, r, c := newTestList(t, fetcher, ListOptions{})

	rows := []RowDescriptor{
		{Type: RowContinueWatching},
		{Type: RowPlaylist, ContentID: "first"},
	}
	l.SetRows("home", rows)
	await(t, r, KeyFor(rows[1], 1))

	require.Eventually(t, func() bool { return c.Len() == 3 }, 2*time.Second, 10*time.Millisecond)

	views := l.Render(ViewerSnapshot{})
	require.Equal(t, "ready", views[1].Status)
	assert.Equal(t, "blur:m1", views[1].Tiles[0].Placeholder)
}

func TestListRowUpdatesOnlyForMountedRows(t *testing.T) {
	fetcher := newScriptedFetcher()
	updates := make(chan RowView, 8)
	l, _, _ := newTestList(t, fetcher, ListOptions{
		InitialRows: 1,
		LoadRows:    1,
		OnRowUpdate: func(v RowView) { updates <- v },
	})

	rows := []RowDescriptor{
		{Type: RowPlaylist, ContentID: "a"},
		{Type: RowPlaylist, ContentID: "b"},
	}
	l.SetRows("home", rows)
	seedCall := fetcher.next(t)
	require.Equal(t, "a", seedCall.contentID)

	l.NearEnd()
	views := l.Render(ViewerSnapshot{})
	require.Len(t, views, 2)
	bCall := fetcher.next(t)
	require.Equal(t, "b", bCall.contentID)

	// "b" leaves the visible prefix before its fetch lands
	l.SetRows("other", rows[:1])
	l.Render(ViewerSnapshot{})

	bCall.reply <- fetchResult{playlist: playlistOf("b", "B", "b1")}
	seedCall.reply <- fetchResult{playlist: playlistOf("a", "A", "a1")}

	select {
	case v := <-updates:
		assert.Equal(t, "playlist:a", v.ID)
		assert.Equal(t, "ready", v.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("expected update for mounted row")
	}
	select {
	case v := <-updates:
		t.Fatalf("unexpected update for %s", v.ID)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestListActivateAndHover(t *testing.T) {
	fetcher := newCountingFetcher()
	fetcher.playlists["p1"] = playlistOf("p1", "Series", "m1", "m2")
	fetcher.playlists[""] = playlistOf("continue_watching", "Continue watching", "m9")
	sink := &recordingSink{}
	l, r, c := newTestList(t, fetcher, ListOptions{Sink: sink})

	rows := []RowDescriptor{
		{Type: RowPlaylist, ContentID: "p1"},
		{Type: RowContinueWatching},
	}
	l.SetRows("home", rows)
	l.Render(ViewerSnapshot{})
	await(t, r, KeyFor(rows[0], 0))
	await(t, r, KeyFor(rows[1], 1))

	ev, err := l.Activate(0, "m2")
	require.NoError(t, err)
	assert.Equal(t, "/m/m2/title-m2?r=p1", ev.URL)
	assert.Equal(t, RowPlaylist, ev.RowType)

	ev, err = l.Activate(1, "m9")
	require.NoError(t, err)
	assert.Contains(t, ev.URL, "play=1")

	require.NoError(t, l.Hover(0, "m1"))
	require.NoError(t, l.Hover(0, "m1"))
	require.Eventually(t, func() bool {
		_, ok := c.Lookup("m1")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	sink.mu.Lock()
	assert.Len(t, sink.activated, 2)
	assert.Len(t, sink.hovered, 2)
	sink.mu.Unlock()

	_, err = l.Activate(0, "missing")
	assert.ErrorIs(t, err, ErrItemNotFound)
	_, err = l.Activate(7, "m1")
	assert.ErrorIs(t, err, ErrRowNotMounted)
}

func TestListCapacityBelowVisibleRows(t *testing.T) {
	fetcher := tenRowFetcher()
	r := newTestResolver(t, fetcher, ResolverOptions{Capacity: 2})
	l := NewList(r, nil, ListOptions{InitialRows: 3, LoadRows: 3, Logger: discardLogger})
	t.Cleanup(l.Close)

	rows := playlistRows(3)
	require.True(t, l.SetRows("home", rows))
	require.Eventually(t, func() bool {
		for _, v := range l.Render(ViewerSnapshot{}) {
			if v.Status != StatusReady.String() {
				return false
			}
		}
		return true
	}, 2*time.Second, 20*time.Millisecond)

	for i := 0; i < 5; i++ {
		for _, v := range l.Render(ViewerSnapshot{}) {
			assert.Equal(t, StatusReady.String(), v.Status)
		}
	}
	for _, row := range rows {
		assert.Equal(t, 1, fetcher.Calls(row.ContentID), row.ContentID)
	}
}
