package store

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/etnz/tracker"
	"github.com/fsnotify/fsnotify"
)

// settle is how long a burst of file events is coalesced into one call.
const settle = 100 * time.Millisecond

// watchFile calls changed after the file at path has been modified. The
// parent directory is watched so that files replaced by a rename, or created
// after the watch started, are still observed. It returns nil when ctx is
// done.
func watchFile(ctx context.Context, path string, changed func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return &tracker.StorageError{Op: "watch", Path: path, Err: err}
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return &tracker.StorageError{Op: "watch", Path: path, Err: err}
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return &tracker.StorageError{Op: "watch", Path: path, Err: err}
	}

	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(settle)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watching %s: %v", path, err)

		case <-timer.C:
			changed()
		}
	}
}
