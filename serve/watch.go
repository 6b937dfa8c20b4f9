package serve

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/everydev1618/gochat/dsl"
)

// ScriptWatcher reloads a script file when it changes on disk and hands
// the new version to a SessionManager. A version that fails to parse is
// logged and the previous script stays in place.
type ScriptWatcher struct {
	path     string
	manager  *SessionManager
	debounce time.Duration
	logger   *slog.Logger

	// OnReload is called after each reload attempt. Optional.
	OnReload func(script *dsl.Script, err error)
}

// NewScriptWatcher creates a watcher for path.
func NewScriptWatcher(path string, manager *SessionManager) *ScriptWatcher {
	return &ScriptWatcher{
		path:     path,
		manager:  manager,
		debounce: 200 * time.Millisecond,
		logger:   slog.Default(),
	}
}

// Reload parses the file and registers it with the manager.
func (w *ScriptWatcher) Reload() (*dsl.Script, error) {
	script, err := dsl.NewParser().ParseFile(w.path)
	if err == nil {
		w.manager.SetScript(script)
	}
	if w.OnReload != nil {
		w.OnReload(script, err)
	}
	return script, err
}

// Run watches the file until ctx is cancelled. The parent directory is
// watched so editors that replace the file on save are still seen.
func (w *ScriptWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolve script path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	w.logger.Info("watching script", "path", abs)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			script, err := w.Reload()
			if err != nil {
				w.logger.Warn("script reload failed, keeping previous version", "path", abs, "error", err)
				continue
			}
			w.logger.Info("script reloaded", "path", abs, "module", script.Module, "steps", len(script.Steps))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}
