package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/treefix50/primeshelf/internal/shelf"
)

func init() {
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
	bold   = color.New(color.Bold)
)

// Success prints a success message in green with a checkmark prefix
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		green.Printf("✓ %s", msg)
	} else {
		green.Print(msg)
	}
}

// Warning prints a warning message in yellow with a warning prefix
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		yellow.Printf("⚠️  %s", msg)
	} else {
		yellow.Print(msg)
	}
}

// Error prints title, explanation and suggestions to stderr and returns a
// plain error for Cobra.
func Error(title string, explanation string, suggestions []string) error {
	red.Fprintf(os.Stderr, "%s\n\n", title)
	fmt.Fprintf(os.Stderr, "%s\n", explanation)

	if len(suggestions) > 0 {
		fmt.Fprintf(os.Stderr, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(os.Stderr, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(os.Stderr, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, suggestion)
			}
		}
	}
	return fmt.Errorf("%s", title)
}

// Rows writes a terminal rendering of the visible rows of a page.
func Rows(w io.Writer, page string, rows []shelf.RowView, total int) {
	bold.Fprintf(w, "%s", page)
	faint.Fprintf(w, "  %d of %d rows\n", len(rows), total)
	for _, row := range rows {
		writeRow(w, row)
	}
	if len(rows) < total {
		faint.Fprintf(w, "… %d more\n", total-len(rows))
	}
}

func writeRow(w io.Writer, row shelf.RowView) {
	marker := " "
	if row.Featured {
		marker = "★"
	}
	title := row.Title
	if title == "" {
		title = string(row.Type)
	}
	fmt.Fprintf(w, "%s [%d] ", marker, row.Position)
	cyan.Fprintf(w, "%s", title)
	faint.Fprintf(w, "  %s %s\n", row.ID, row.AspectRatio)

	switch row.Status {
	case shelf.StatusLoading.String():
		yellow.Fprintf(w, "    loading (%dpx reserved)\n", row.PlaceholderHeight)
	case shelf.StatusError.String():
		red.Fprintf(w, "    %s [%s]\n", row.Error, row.ErrorCode)
	default:
		if len(row.Tiles) == 0 {
			faint.Fprintf(w, "    empty\n")
		}
		for _, tile := range row.Tiles {
			writeTile(w, tile)
		}
	}
}

func writeTile(w io.Writer, tile shelf.TileView) {
	fmt.Fprintf(w, "    - %s", tile.Title)
	faint.Fprintf(w, " (%s)", tile.MediaID)
	if tile.Progress != nil {
		green.Fprintf(w, " %d%%", int(*tile.Progress*100))
	}
	if tile.Locked {
		yellow.Fprintf(w, " locked")
	}
	fmt.Fprintln(w)
}
