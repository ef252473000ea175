package server

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treefix50/primeshelf/internal/shelf"
)

func newBareSession(t *testing.T) *Session {
	t.Helper()
	resolver, err := shelf.NewResolver(shelf.FetcherFunc(nil), shelf.ResolverOptions{})
	require.NoError(t, err)
	return &Session{
		resolver: resolver,
		list:     shelf.NewList(resolver, nil, shelf.ListOptions{}),
	}
}

func TestRegistryExpiresIdleSessions(t *testing.T) {
	var (
		mu      sync.Mutex
		removed []string
	)
	r := NewRegistry(time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)), func(id string) {
		mu.Lock()
		removed = append(removed, id)
		mu.Unlock()
	})
	defer r.Close()

	idle := r.Add(newBareSession(t))
	fresh := r.Add(newBareSession(t))
	assert.NotEqual(t, idle, fresh)
	assert.Equal(t, 2, r.Size())

	later := time.Now().Add(2 * time.Hour)
	sess, _ := r.Get(fresh)
	sess.touch(later)

	assert.Equal(t, 1, r.cleanup(later))
	_, ok := r.Get(idle)
	assert.False(t, ok)
	assert.Equal(t, 1, r.Size())

	mu.Lock()
	assert.Equal(t, []string{idle}, removed)
	mu.Unlock()
}

func TestRegistryGetRejectsExpired(t *testing.T) {
	r := NewRegistry(time.Minute, nil, nil)
	defer r.Close()

	id := r.Add(newBareSession(t))
	sess, ok := r.Get(id)
	require.True(t, ok)

	sess.touch(time.Now().Add(-2 * time.Minute))
	_, ok = r.Get(id)
	assert.False(t, ok)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(time.Second)
	now := time.Now()

	ok, _ := rl.allowAt("s1", now)
	assert.True(t, ok)
	ok, retry := rl.allowAt("s1", now.Add(200*time.Millisecond))
	assert.False(t, ok)
	assert.Equal(t, 800*time.Millisecond, retry)
	ok, _ = rl.allowAt("s2", now)
	assert.True(t, ok)

	rl.Forget("s1")
	ok, _ = rl.allowAt("s1", now.Add(300*time.Millisecond))
	assert.True(t, ok)
}

func TestRateLimiterForgetScopedKeys(t *testing.T) {
	rl := NewRateLimiter(time.Second)
	now := time.Now()

	for _, key := range []string{"s1/m1", "s1/m2", "s10/m1"} {
		ok, _ := rl.allowAt(key, now)
		require.True(t, ok, key)
	}

	rl.Forget("s1")
	later := now.Add(100 * time.Millisecond)
	ok, _ := rl.allowAt("s1/m1", later)
	assert.True(t, ok)
	ok, _ = rl.allowAt("s1/m2", later)
	assert.True(t, ok)
	ok, _ = rl.allowAt("s10/m1", later)
	assert.False(t, ok, "other sessions keep their history")
}
