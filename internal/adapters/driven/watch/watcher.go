// Package watch implements the ChangeWatcher port on fsnotify. Raw
// filesystem events are filtered and debounced into ChangeBatch values
// so one save burst becomes one sync trigger.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/resync-dev/resync/internal/core/domain"
	"github.com/resync-dev/resync/internal/core/ports/driven"
	"github.com/resync-dev/resync/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.ChangeWatcher = (*Watcher)(nil)

// Watcher watches a work tree recursively and emits debounced change
// batches. Excluded paths are dropped before coalescing, so a burst of
// noise under .git never opens a debounce window.
type Watcher struct {
	root     string
	debounce time.Duration
	include  []string
	exclude  []string

	fw        *fsnotify.Watcher
	out       chan domain.ChangeBatch
	closeOnce sync.Once
	done      chan struct{}
}

// NewWatcher creates a watcher for the configured work tree.
func NewWatcher(cfg *domain.Config) *Watcher {
	return &Watcher{
		root:     cfg.WorkTree,
		debounce: cfg.DebounceWindow,
		include:  cfg.Include,
		exclude:  cfg.Exclude,
		out:      make(chan domain.ChangeBatch, 4),
		done:     make(chan struct{}),
	}
}

// Watch starts watching and returns the batch channel. The channel is
// closed when the context ends or Close is called.
func (w *Watcher) Watch(ctx context.Context) (<-chan domain.ChangeBatch, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fw = fw

	if err := w.addRecursive(w.root); err != nil {
		fw.Close()
		return nil, err
	}

	go w.loop(ctx)
	return w.out, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		if w.fw != nil {
			err = w.fw.Close()
		}
	})
	return err
}

// addRecursive registers every non-excluded directory under dir.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.excluded(w.rel(path)) {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
}

// pendingBatch accumulates filtered events during a debounce window.
type pendingBatch struct {
	added    map[string]struct{}
	modified map[string]struct{}
	removed  map[string]struct{}
	start    time.Time
}

func newPendingBatch(start time.Time) *pendingBatch {
	return &pendingBatch{
		added:    make(map[string]struct{}),
		modified: make(map[string]struct{}),
		removed:  make(map[string]struct{}),
		start:    start,
	}
}

func (p *pendingBatch) toBatch(end time.Time) domain.ChangeBatch {
	return domain.ChangeBatch{
		Added:       setToSlice(p.added),
		Modified:    setToSlice(p.modified),
		Removed:     setToSlice(p.removed),
		WindowStart: p.start,
		WindowEnd:   end,
	}
}

func (p *pendingBatch) empty() bool {
	return len(p.added) == 0 && len(p.modified) == 0 && len(p.removed) == 0
}

// loop consumes raw events, debounces and emits batches.
func (w *Watcher) loop(ctx context.Context) {
	defer close(w.out)

	var pending *pendingBatch
	var timer *time.Timer
	var timerCh <-chan time.Time

	flush := func() {
		if pending == nil || pending.empty() {
			pending = nil
			timerCh = nil
			return
		}
		batch := pending.toBatch(time.Now())
		pending = nil
		timerCh = nil
		select {
		case w.out <- batch:
		case <-ctx.Done():
		case <-w.done:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !w.record(&event, &pending) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			flush()

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch: %v", err)
		}
	}
}

// record folds one raw event into the pending batch. Returns false
// when the event was filtered out.
func (w *Watcher) record(event *fsnotify.Event, pending **pendingBatch) bool {
	rel := w.rel(event.Name)
	if rel == "" || w.excluded(rel) {
		return false
	}

	// New directories join the watch set but are not reported.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				logger.Warn("watch: add %s: %v", rel, err)
			}
			return false
		}
	}

	if !w.included(rel) {
		return false
	}

	if *pending == nil {
		*pending = newPendingBatch(time.Now())
	}
	p := *pending

	switch {
	case event.Op&fsnotify.Create != 0:
		delete(p.removed, rel)
		p.added[rel] = struct{}{}
	case event.Op&fsnotify.Write != 0:
		if _, isNew := p.added[rel]; !isNew {
			p.modified[rel] = struct{}{}
		}
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		delete(p.added, rel)
		delete(p.modified, rel)
		p.removed[rel] = struct{}{}
	default:
		return false
	}
	return true
}

// rel converts an absolute event path to a slash-separated path
// relative to the work tree root.
func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}

// excluded reports whether any path segment matches an exclude pattern.
func (w *Watcher) excluded(rel string) bool {
	for _, segment := range strings.Split(rel, "/") {
		for _, pattern := range w.exclude {
			if ok, err := filepath.Match(pattern, segment); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// included reports whether the path passes the include filter. An
// empty filter admits everything.
func (w *Watcher) included(rel string) bool {
	if len(w.include) == 0 {
		return true
	}
	base := filepath.Base(rel)
	for _, pattern := range w.include {
		if ok, err := filepath.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

func setToSlice(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for path := range set {
		out = append(out, path)
	}
	return out
}
