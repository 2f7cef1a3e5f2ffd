package board

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// settleDelay collapses the burst of events a file copy produces into one
// reload.
const settleDelay = 300 * time.Millisecond

type catalogChangedMsg struct{}

type watchErrMsg struct{ err error }

// folderWatcher watches the music folder and its subfolders.
type folderWatcher struct {
	w *fsnotify.Watcher
}

func newFolderWatcher(root string) (*folderWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		w.Close()
		return nil, err
	}
	return &folderWatcher{w: w}, nil
}

// next returns a command that waits for the next relevant change and
// reports it as catalogChangedMsg. A nil watcher never reports.
func (fw *folderWatcher) next() tea.Cmd {
	if fw == nil {
		return nil
	}
	return func() tea.Msg {
		if err := fw.wait(); err != nil {
			return watchErrMsg{err: err}
		}
		return catalogChangedMsg{}
	}
}

// wait blocks until a change arrives, then drains events until the folder
// has been quiet for settleDelay.
func (fw *folderWatcher) wait() error {
	var settle <-chan time.Time
	for {
		select {
		case event, ok := <-fw.w.Events:
			if !ok {
				return fs.ErrClosed
			}
			if !fw.relevant(event) {
				continue
			}
			settle = time.After(settleDelay)
		case err, ok := <-fw.w.Errors:
			if !ok {
				return fs.ErrClosed
			}
			return err
		case <-settle:
			return nil
		}
	}
}

func (fw *folderWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	// New subfolders are watched as well
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = fw.w.Add(event.Name)
		}
	}
	return true
}

func (fw *folderWatcher) Close() error {
	if fw == nil {
		return nil
	}
	return fw.w.Close()
}
