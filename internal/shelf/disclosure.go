package shelf

import (
	"encoding/hex"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

const (
	DefaultInitialRows = 6
	DefaultLoadRows    = 4
)

// PageID identifies a row sequence. Two sequences with the same page name
// and the same descriptors share a PageID.
type PageID string

// Fingerprint computes the PageID of rows shown under page.
func Fingerprint(page string, rows []RowDescriptor) PageID {
	h, _ := blake2b.New256(nil)
	write := func(s string) {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	write(page)
	write(strconv.Itoa(len(rows)))
	for _, row := range rows {
		write(string(row.Type))
		write(row.ContentID)
		write(row.Title)
		write(strconv.FormatBool(row.Featured))
		write(strconv.FormatBool(row.EnableText))
	}
	return PageID(hex.EncodeToString(h.Sum(nil)))
}

// Disclosure tracks how many rows of the current page are mounted.
// Not safe for concurrent use; List guards it.
type Disclosure struct {
	initial int
	step    int
	visible int
	total   int
	page    PageID
}

func NewDisclosure(initial, step int) *Disclosure {
	if initial <= 0 {
		initial = DefaultInitialRows
	}
	if step <= 0 {
		step = DefaultLoadRows
	}
	return &Disclosure{initial: initial, step: step}
}

// Reset starts over for a new row sequence.
func (d *Disclosure) Reset(total int, page PageID) {
	if total < 0 {
		total = 0
	}
	d.total = total
	d.page = page
	d.visible = min(d.initial, total)
}

// Sync resets when page differs from the current one and reports whether
// it did.
func (d *Disclosure) Sync(total int, page PageID) bool {
	if page == d.page && total == d.total {
		return false
	}
	d.Reset(total, page)
	return true
}

func (d *Disclosure) Visible() int { return d.visible }

func (d *Disclosure) Total() int { return d.total }

func (d *Disclosure) Page() PageID { return d.page }

// HasMore reports whether rows remain to be disclosed.
func (d *Disclosure) HasMore() bool {
	return d.visible < d.total
}

// RequestMore grows the visible count by one step, clamped to the total.
func (d *Disclosure) RequestMore() bool {
	if !d.HasMore() {
		return false
	}
	d.visible = min(d.visible+d.step, d.total)
	return true
}
