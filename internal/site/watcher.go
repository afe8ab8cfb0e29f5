package site

import (
	"io"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/brogergvhs/tululu/internal/ui"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 200 * time.Millisecond

// Watcher calls onChange after any of the watched files is written,
// recreated or renamed. Events are handled and onChange runs on the Run goroutine
// only, so two rebuilds never overlap.
type Watcher struct {
	files    map[string]bool
	onChange func()
	debounce time.Duration
	log      *ui.Logger

	fw      *fsnotify.Watcher
	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

func NewWatcher(paths []string, onChange func(), log *ui.Logger) *Watcher {
	if log == nil {
		log = ui.NewLoggerTo(io.Discard, false)
	}

	files := make(map[string]bool, len(paths))
	for _, p := range paths {
		files[absClean(p)] = true
	}

	return &Watcher{
		files:    files,
		onChange: onChange,
		debounce: DefaultDebounce,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start watches the directories holding the files: editors commonly save
// by replacing the file, which a watch on the file itself would lose.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dirs := map[string]bool{}
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}

	for d := range dirs {
		if err := fw.Add(d); err != nil {
			_ = fw.Close()
			return err
		}
	}

	w.fw = fw
	return nil
}

// Run processes events until Stop is called.
func (w *Watcher) Run() {
	w.running.Store(true)
	defer close(w.done)

	var pending <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if w.relevant(ev) {
				w.log.Debugf("watcher: %s\n", ev)
				pending = time.After(w.debounce)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Errorf("watcher: %v\n", err)

		case <-pending:
			pending = nil
			w.onChange()

		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) Stop() error {
	close(w.stop)
	if w.running.Load() {
		<-w.done
	}

	if w.fw == nil {
		return nil
	}
	return w.fw.Close()
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}

	return w.files[absClean(ev.Name)]
}

func absClean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
