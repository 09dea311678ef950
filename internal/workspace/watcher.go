package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher observes a working tree and fires a callback after changes settle
// for the debounce window, so bursts of writes collapse into one
// notification.
type Watcher struct {
	ws       *Workspace
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration
	onChange func()
	done     chan struct{}
}

// Watch starts watching the workspace root and all non-ignored
// subdirectories.
func (w *Workspace) Watch(debounce time.Duration, onChange func(), logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	watcher := &Watcher{
		ws:       w,
		watcher:  fsw,
		logger:   logger,
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}

	if err := watcher.addDirs(w.root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching workspace: %w", err)
	}

	go watcher.loop()
	return watcher, nil
}

func (t *Watcher) addDirs(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && t.ws.ShouldIgnore(path) {
			return filepath.SkipDir
		}
		return t.watcher.Add(path)
	})
}

func (t *Watcher) loop() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if t.ws.ShouldIgnore(event.Name) {
				continue
			}
			// New directories need to be watched as they appear.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := t.addDirs(event.Name); err != nil {
						t.logger.Warn("watching new directory", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			t.logger.Debug("workspace change", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(t.debounce)
				fire = timer.C
			} else {
				timer.Reset(t.debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			t.onChange()

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			t.logger.Warn("watcher error", zap.Error(err))

		case <-t.done:
			return
		}
	}
}

// Close stops the watcher.
func (t *Watcher) Close() error {
	close(t.done)
	return t.watcher.Close()
}
