// Package table holds the terminal width helpers and the go-pretty table
// setup shared by the listing commands and the soundboard.
package table

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	pretty "github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	// DefaultTerminalWidth is used when terminal width cannot be determined
	DefaultTerminalWidth = 80
)

// TerminalWidth returns the current terminal width.
// Falls back to DefaultTerminalWidth if width cannot be determined.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return width
}

// NewWriter returns a light-style table writer mirrored to out and
// limited to width cells per row. A width of 0 means no limit.
func NewWriter(out io.Writer, width int) pretty.Writer {
	t := pretty.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(pretty.StyleLight)
	if width > 0 {
		t.SetAllowedRowLength(width)
	}
	return t
}

// Truncate cuts s to maxWidth display cells, adding "…" if truncated.
// Handles wide characters and emoji icons correctly.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return "…"
	}

	result := make([]rune, 0, len(s))
	currentWidth := 0
	targetWidth := maxWidth - 1 // Reserve 1 cell for ellipsis
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if currentWidth+rw > targetWidth {
			break
		}
		result = append(result, r)
		currentWidth += rw
	}
	return string(result) + "…"
}

// PadRight pads s to width display cells, truncating when it is wider.
func PadRight(s string, width int) string {
	if width <= 0 {
		return ""
	}
	strWidth := lipgloss.Width(s)
	if strWidth >= width {
		return Truncate(s, width)
	}
	return s + strings.Repeat(" ", width-strWidth)
}

// PadCenter centers s within width display cells.
func PadCenter(s string, width int) string {
	if width <= 0 {
		return ""
	}
	strWidth := lipgloss.Width(s)
	if strWidth >= width {
		return Truncate(s, width)
	}
	total := width - strWidth
	left := total / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", total-left)
}
