// Package watch reports changes to a fixed set of files.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/samcharles93/pespath/internal/logger"
)

const DefaultDebounce = 250 * time.Millisecond

// Watcher watches the directories holding a set of files and reports changes
// to those files only. Editors often replace a file instead of writing it, so
// the directory is watched rather than the file.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	Debounce time.Duration
}

// New watches files. Paths are made absolute.
func New(files []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]struct{}, len(files)),
		Debounce: DefaultDebounce,
	}
	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run calls fn once per burst of changes until ctx is done. Calls are never
// concurrent: events arriving while fn runs start a new burst.
func (w *Watcher) Run(ctx context.Context, fn func(changed []string)) error {
	log := logger.FromContext(ctx)

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]struct{})
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod || !w.relevant(ev.Name) {
				continue
			}
			log.Debug("file changed", "path", ev.Name, "op", ev.Op.String())
			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			fn(changed)
		}
	}
}

func (w *Watcher) relevant(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}
