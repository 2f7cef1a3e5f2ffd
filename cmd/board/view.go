package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/xlthimolx/djpult/cmd/board/catalog"
	"github.com/xlthimolx/djpult/cmd/board/heatmap"
	"github.com/xlthimolx/djpult/cmd/board/session"
	"github.com/xlthimolx/djpult/cmd/common/table"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	searchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	confirmStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	playingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	warningStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("196"))
	idleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	buttonStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Padding(0, 1)
	selectedStyle = buttonStyle.Bold(true).Underline(true).Reverse(true)
	nowBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

const (
	minColumnWidth = 14
	columnGap      = 1
	// header, now-playing box, specials, status line and help
	chromeLines = 10
)

func (m model) View() string {
	var b strings.Builder
	width := m.width
	if width <= 0 {
		width = table.DefaultTerminalWidth
	}
	st := m.deck.Status()

	b.WriteString(m.renderHeader(st, width))
	b.WriteString("\n")
	b.WriteString(m.renderNowPlaying(st, width))
	b.WriteString("\n")

	if len(m.columns) == 0 || m.deck.Catalog().Len() == 0 {
		b.WriteString(idleStyle.Render("No tracks found. Add audio files to the folder."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderColumns(width))
		b.WriteString("\n")
	}
	b.WriteString(m.renderSpecials(width))
	b.WriteString("\n\n")

	switch {
	case m.confirmMode == confirmReset:
		b.WriteString(confirmStyle.Render("Reset all play counts? (y/n)"))
	case m.searchFocused:
		b.WriteString(searchStyle.Render("Search: " + m.searchInput + "█"))
	case m.searchInput != "":
		b.WriteString(searchStyle.Render(fmt.Sprintf("Filter: %s (esc to clear)", m.searchInput)))
	case m.notice != "":
		b.WriteString(noticeStyle.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m model) renderHeader(st session.Status, width int) string {
	left := headerStyle.Render("djpult") + "  " + helpStyle.Render(m.deck.Dir())
	right := fmt.Sprintf("vol %s %3.0f%%", volumeBar(st.Volume, 10), st.Volume*100)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func volumeBar(v float64, cells int) string {
	filled := int(v*float64(cells) + 0.5)
	if filled > cells {
		filled = cells
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", cells-filled)
}

func (m model) renderNowPlaying(st session.Status, width int) string {
	inner := width - 4
	if !st.Active {
		return nowBoxStyle.Render(idleStyle.Render(table.PadRight("nothing playing", inner)))
	}

	np := st.NowPlaying
	clock := fmt.Sprintf("%s / %s", session.FormatClock(np.Position, true), session.FormatClock(np.Duration, np.DurationKnown()))
	remaining := "-" + np.RemainingText()
	state := ""
	switch st.State {
	case session.StateLoading:
		state = " (loading)"
	case session.StateFadingOut:
		state = " (fading)"
	}

	title := "▶ " + np.Title + state
	right := clock + "  " + remaining
	title = table.Truncate(title, inner-lipgloss.Width(right)-1)
	gap := inner - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	line := playingStyle.Render(title) + strings.Repeat(" ", gap)
	if np.Warning() {
		line += warningStyle.Render(right)
	} else {
		line += right
	}
	return nowBoxStyle.Render(line)
}

func (m model) columnWidth(width int) int {
	n := len(m.columns)
	if n == 0 {
		return width
	}
	w := (width - (n-1)*columnGap) / n
	if w < minColumnWidth {
		w = minColumnWidth
	}
	return w
}

// visibleRows is the number of buttons that fit per column; 0 means all.
func (m model) visibleRows() int {
	if m.height <= 0 {
		return 0
	}
	rows := m.height - chromeLines
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m model) renderColumns(width int) string {
	counts := m.deck.Counts()
	highest := heatmap.Max(counts)
	colWidth := m.columnWidth(width)
	rows := m.visibleRows()

	rendered := make([]string, 0, len(m.columns))
	for ci, col := range m.columns {
		info := col.category.Info()
		var lines []string
		title := table.PadCenter(info.Icon+" "+info.Title, colWidth)
		lines = append(lines, headerStyle.Render(title))

		start, end := 0, len(col.items)
		if rows > 0 && end > rows {
			if ci == m.col && m.row >= rows {
				start = m.row - rows + 1
			}
			end = start + rows
		}
		for ri := start; ri < end; ri++ {
			item := col.items[ri]
			count := counts[item.Identity]
			label := item.DisplayName
			if !m.compact && item.Counted() {
				label = fmt.Sprintf("%s ·%d", label, count)
			}
			label = table.PadRight(label, colWidth-2)

			style := buttonStyle
			if ci == m.col && ri == m.row {
				style = selectedStyle
			}
			bg := heatmap.Color(col.category, count, highest)
			lines = append(lines, style.Background(lipgloss.Color(bg)).Render(label))
		}
		if len(col.items) == 0 {
			lines = append(lines, idleStyle.Render(table.PadRight("  -", colWidth)))
		}
		rendered = append(rendered, strings.Join(lines, "\n"))
	}

	var joined []string
	for i, r := range rendered {
		if i > 0 {
			joined = append(joined, strings.Repeat(" ", columnGap))
		}
		joined = append(joined, r)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, joined...)
}

func (m model) renderSpecials(width int) string {
	c := m.deck.Catalog()
	slot := func(key, name string, item *catalog.Item) string {
		if item == nil {
			return fmt.Sprintf("[%s] %s: -", key, name)
		}
		return fmt.Sprintf("[%s] %s: %s", key, name, item.DisplayName)
	}
	parts := []string{
		slot("t", catalog.Timeout.String(), c.Timeout),
		slot("w", catalog.WalkOn.String(), c.WalkOn),
	}
	for _, p := range c.Pauses {
		if p.Ordinal < 1 || p.Ordinal > 9 {
			continue
		}
		item := p
		parts = append(parts, slot(fmt.Sprint(p.Ordinal), fmt.Sprintf("Pause %d", p.Ordinal), &item))
	}
	return helpStyle.Render(table.Truncate(strings.Join(parts, "  "), width))
}

func (m model) helpLine() string {
	if m.compact {
		return "enter play  space fade  z zoom  q quit"
	}
	return "←↓↑→ move  enter play  space fade  S stop  r attack  o opponent  t/w/1-9 specials  +/- volume  / search  z zoom  X reset  q quit"
}
