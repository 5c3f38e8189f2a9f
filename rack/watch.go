package rack

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// debounce collapses editor write bursts into a single change event.
const debounce = 100 * time.Millisecond

// Watcher emits a signal on C whenever the rack file is modified.
type Watcher struct {
	C <-chan struct{}

	path string
	fsw  *fsnotify.Watcher
	out  chan struct{}
}

// Watch starts watching the rack file for modifications. Watching the parent
// directory instead of the file itself survives the rename-and-replace dance
// most editors do on save.
func Watch(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsw.Close()
		return nil, errors.Wrap(err, "failed to resolve rack path")
	}

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, errors.Wrap(err, "failed to watch rack directory")
	}

	out := make(chan struct{}, 1)
	w := &Watcher{
		C:    out,
		path: abs,
		fsw:  fsw,
		out:  out,
	}

	return w, nil
}

// Run pumps filesystem events until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			select {
			case w.out <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			return errors.Wrap(err, "rack watcher failed")
		}
	}
}
