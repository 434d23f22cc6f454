package scenario

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period Watch waits for after a change.
const DefaultDebounce = 100 * time.Millisecond

// Watch loads the scenario at path, calls fn with the result, and calls it
// again after every change to the file. Rapid successive changes are coalesced
// into one reload after delay. Watch blocks until ctx is done.
//
// The file's directory is watched rather than the file itself, so editors that
// save by replacing the file are handled.
func Watch(ctx context.Context, path string, delay time.Duration, fn func(*Scenario, error)) error {
	if delay <= 0 {
		delay = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	fn(Load(abs))

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(delay, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(delay)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fn(nil, err)

		case <-fire:
			fn(Load(abs))
		}
	}
}
