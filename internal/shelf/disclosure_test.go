package shelf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisclosureGrowth(t *testing.T) {
	for _, total := range []int{0, 1, 5, 6, 7, 10, 14, 23} {
		d := NewDisclosure(DefaultInitialRows, DefaultLoadRows)
		d.Reset(total, Fingerprint("home", playlistRows(total)))
		require.Equal(t, min(total, DefaultInitialRows), d.Visible(), "total=%d", total)

		for k := 1; k <= 6; k++ {
			if !d.HasMore() {
				assert.False(t, d.RequestMore())
				continue
			}
			require.True(t, d.RequestMore())
			assert.Equal(t, min(total, DefaultInitialRows+k*DefaultLoadRows), d.Visible(), "total=%d k=%d", total, k)
		}
		assert.False(t, d.HasMore())
		assert.Equal(t, total, d.Visible())
	}
}

func TestDisclosureTenRows(t *testing.T) {
	d := NewDisclosure(6, 4)
	d.Reset(10, "p")

	assert.Equal(t, 6, d.Visible())
	assert.True(t, d.HasMore())

	assert.True(t, d.RequestMore())
	assert.Equal(t, 10, d.Visible())
	assert.False(t, d.HasMore())

	assert.False(t, d.RequestMore())
	assert.Equal(t, 10, d.Visible())
}

func TestDisclosureSyncResetsOnNewPage(t *testing.T) {
	d := NewDisclosure(6, 4)
	rows := playlistRows(20)
	home := Fingerprint("home", rows)

	require.True(t, d.Sync(len(rows), home))
	d.RequestMore()
	d.RequestMore()
	require.Equal(t, 14, d.Visible())

	assert.False(t, d.Sync(len(rows), home), "same page must not reset")
	assert.Equal(t, 14, d.Visible())

	other := Fingerprint("movies", rows)
	assert.True(t, d.Sync(len(rows), other))
	assert.Equal(t, 6, d.Visible())
}

func TestFingerprint(t *testing.T) {
	rows := playlistRows(3)
	assert.Equal(t, Fingerprint("home", rows), Fingerprint("home", playlistRows(3)))
	assert.NotEqual(t, Fingerprint("home", rows), Fingerprint("home", rows[:2]))

	changed := playlistRows(3)
	changed[1].Featured = true
	assert.NotEqual(t, Fingerprint("home", rows), Fingerprint("home", changed))
}

func TestNewDisclosureDefaults(t *testing.T) {
	d := NewDisclosure(0, -1)
	d.Reset(100, "p")
	assert.Equal(t, DefaultInitialRows, d.Visible())
	d.RequestMore()
	assert.Equal(t, DefaultInitialRows+DefaultLoadRows, d.Visible())
}
