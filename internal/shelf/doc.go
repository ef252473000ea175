// Package shelf implements the row engine behind a browse page: a growing
// visible prefix over a known row sequence, per-row playlist resolution
// with its own cache and race handling, a pure row presenter, and a hover
// driven placeholder preloader.
package shelf
