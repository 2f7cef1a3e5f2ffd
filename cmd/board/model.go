package board

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/xlthimolx/djpult/cmd/board/catalog"
	"github.com/xlthimolx/djpult/cmd/board/session"
)

const (
	volumeStep    = 0.05
	noticeTimeout = 4 * time.Second
	refreshRate   = 200 * time.Millisecond
)

type tickMsg time.Time

// Confirmation modes
type confirmMode int

const (
	confirmNone confirmMode = iota
	confirmReset
)

// column is one category as shown on the board, after the search filter.
type column struct {
	category catalog.Category
	items    []catalog.Item
}

type model struct {
	deck     *Deck
	watcher  *folderWatcher
	notifier Notifier
	warning  warningEdge

	columns []column
	col     int
	row     int
	width   int
	height  int
	compact bool

	confirmMode   confirmMode
	searchInput   string
	searchFocused bool

	notice   string
	noticeAt time.Time
	now      func() time.Time
}

func newModel(deck *Deck, watcher *folderWatcher, notifier Notifier) model {
	m := model{
		deck:     deck,
		watcher:  watcher,
		notifier: notifier,
		now:      time.Now,
	}
	return m.rebuildColumns()
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd()}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.next())
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// rebuildColumns lays out the active categories and applies the search filter.
func (m model) rebuildColumns() model {
	c := m.deck.Catalog()
	query := strings.ToLower(m.searchInput)
	m.columns = lo.Map(c.ActiveCategories(), func(cat catalog.Category, _ int) column {
		items := c.Items(cat)
		if query != "" {
			items = lo.Filter(items, func(it catalog.Item, _ int) bool {
				return strings.Contains(strings.ToLower(it.DisplayName), query)
			})
		}
		return column{category: cat, items: items}
	})

	// Keep cursor in bounds
	if m.col >= len(m.columns) {
		m.col = len(m.columns) - 1
	}
	if m.col < 0 {
		m.col = 0
	}
	m = m.clampRow()
	return m
}

func (m model) clampRow() model {
	n := 0
	if m.col < len(m.columns) {
		n = len(m.columns[m.col].items)
	}
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
	return m
}

// selected returns the item under the cursor.
func (m model) selected() (catalog.Item, bool) {
	if m.col >= len(m.columns) {
		return catalog.Item{}, false
	}
	items := m.columns[m.col].items
	if m.row >= len(items) {
		return catalog.Item{}, false
	}
	return items[m.row], true
}

func (m model) setNotice(format string, args ...any) model {
	m.notice = fmt.Sprintf(format, args...)
	m.noticeAt = m.now()
	return m
}

// report turns a deck error into a notice.
func (m model) report(err error) model {
	if err == nil {
		return m
	}
	var missing *MissingSlotError
	switch {
	case errors.As(err, &missing):
		return m.setNotice("%s", missing.Error())
	case errors.Is(err, ErrNothingAvailable):
		return m.setNotice("Nothing available")
	default:
		return m.setNotice("%v", err)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Handle confirmation dialogs first
		if m.confirmMode != confirmNone {
			switch msg.String() {
			case "y", "Y":
				if m.confirmMode == confirmReset {
					m.deck.ResetCounts()
					m = m.setNotice("Play counts reset")
				}
				m.confirmMode = confirmNone
			case "n", "N", "esc", "q":
				m.confirmMode = confirmNone
			}
			return m, nil
		}

		// Handle search mode
		if m.searchFocused {
			switch msg.String() {
			case "esc":
				if m.searchInput != "" {
					m.searchInput = ""
					m = m.rebuildColumns()
				} else {
					m.searchFocused = false
				}
			case "enter":
				m.searchFocused = false
			case "backspace":
				if len(m.searchInput) > 0 {
					m.searchInput = m.searchInput[:len(m.searchInput)-1]
					m = m.rebuildColumns()
				}
			case "ctrl+u":
				m.searchInput = ""
				m = m.rebuildColumns()
			default:
				// Add printable characters to search
				if len(msg.String()) == 1 && msg.String()[0] >= 32 && msg.String()[0] < 127 {
					m.searchInput += msg.String()
					m = m.rebuildColumns()
				}
			}
			return m, nil
		}

		// Normal mode
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.searchInput != "" {
				m.searchInput = ""
				m = m.rebuildColumns()
			}
		case "/":
			m.searchFocused = true
		case "left", "h":
			if m.col > 0 {
				m.col--
				m = m.clampRow()
			}
		case "right", "l":
			if m.col < len(m.columns)-1 {
				m.col++
				m = m.clampRow()
			}
		case "up", "k":
			if m.row > 0 {
				m.row--
			}
		case "down", "j":
			if m.col < len(m.columns) && m.row < len(m.columns[m.col].items)-1 {
				m.row++
			}
		case "enter":
			if item, ok := m.selected(); ok {
				m = m.report(m.deck.Play(item))
			}
		case " ":
			m.deck.Stop(false)
		case "S":
			m.deck.Stop(true)
		case "r":
			_, err := m.deck.PlayRandom(PoolAttack)
			m = m.report(err)
		case "o":
			_, err := m.deck.PlayRandom(PoolOpponent)
			m = m.report(err)
		case "t":
			_, err := m.deck.PlaySpecial(catalog.Timeout, 0)
			m = m.report(err)
		case "w":
			_, err := m.deck.PlaySpecial(catalog.WalkOn, 0)
			m = m.report(err)
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			_, err := m.deck.PlaySpecial(catalog.Pause, int(key[0]-'0'))
			m = m.report(err)
		case "+", "=":
			m.deck.AdjustVolume(volumeStep)
		case "-", "_":
			m.deck.AdjustVolume(-volumeStep)
		case "z":
			m.compact = !m.compact
		case "X":
			m.confirmMode = confirmReset
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case catalogChangedMsg:
		if err := m.deck.Load(m.deck.Dir()); err != nil {
			m = m.setNotice("reload failed: %v", err)
		} else {
			m = m.setNotice("Catalog reloaded, %d tracks", m.deck.Catalog().Len())
		}
		m = m.rebuildColumns()
		return m, m.watcher.next()

	case watchErrMsg:
		if errors.Is(msg.err, fs.ErrClosed) {
			m = m.setNotice("folder watch stopped")
			return m, nil
		}
		m = m.setNotice("folder watch: %v", msg.err)
		return m, m.watcher.next()

	case tickMsg:
		if m.notice != "" && m.now().Sub(m.noticeAt) > noticeTimeout {
			m.notice = ""
		}
		st := m.deck.Status()
		if m.warning.update(st) && m.notifier != nil {
			title := st.NowPlaying.Title
			remaining := st.NowPlaying.RemainingText()
			go m.notifier.send(slog.Default(), "djpult", fmt.Sprintf("%s ends in %s", title, remaining))
		}
		return m, tickCmd()
	}

	return m, nil
}

// warningEdge reports the moment a track enters its warning window, once per
// playback.
type warningEdge struct {
	fired bool
}

func (w *warningEdge) update(st session.Status) bool {
	if st.State != session.StatePlaying || !st.NowPlaying.Warning() {
		w.fired = false
		return false
	}
	if w.fired {
		return false
	}
	w.fired = true
	return true
}
