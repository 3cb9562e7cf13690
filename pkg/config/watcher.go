package config

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/hookwire/hookwire/pkg/logger"
)

// DefaultDebounce coalesces editor save bursts into one reload
const DefaultDebounce = 500 * time.Millisecond

// Watch monitors the configured resource directories, the registry
// file, and the hook settings file, and attempts a Reload whenever one
// of them changes. Rejected reloads keep the previous snapshot, so a
// broken half-saved file never degrades a running process.
//
// Watch blocks until ctx is cancelled.
func (m *Manager) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	watched := 0
	for _, target := range m.watchTargets() {
		if err := watcher.Add(target); err != nil {
			logger.G(ctx).WithError(err).WithField("path", target).
				Warn("failed to watch configuration path")
			continue
		}
		logger.G(ctx).WithField("path", target).Debug("watching configuration path")
		watched++
	}
	if watched == 0 {
		return errors.New("no configuration paths could be watched")
	}

	changes := make(chan string)
	go debounceChanges(ctx, changes, debounce, func(path string) {
		logger.G(ctx).WithField("path", path).Info("configuration change detected")
		m.Reload(ctx)
	})

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !m.relevantChange(event.Name) {
				continue
			}
			select {
			case changes <- event.Name:
			case <-ctx.Done():
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Error("file watcher error")
		case <-ctx.Done():
			return nil
		}
	}
}

// watchTargets lists the paths the watcher should register. Files are
// watched through their parent directory so atomic rename-into-place
// saves still deliver events.
func (m *Manager) watchTargets() []string {
	seen := make(map[string]bool)
	var targets []string
	add := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		targets = append(targets, path)
	}
	for _, dir := range m.cfg.ResourceDirs {
		add(dir)
	}
	if m.cfg.RegistryPath != "" {
		add(filepath.Dir(m.cfg.RegistryPath))
	}
	if m.cfg.HookSettingsPath != "" {
		add(filepath.Dir(m.cfg.HookSettingsPath))
	}
	return targets
}

// relevantChange filters directory events down to files we load
func (m *Manager) relevantChange(path string) bool {
	if path == m.cfg.RegistryPath || path == m.cfg.HookSettingsPath {
		return true
	}
	if !strings.HasSuffix(path, ".md") {
		return false
	}
	dir := filepath.Dir(path)
	for _, resourceDir := range m.cfg.ResourceDirs {
		if dir == filepath.Clean(resourceDir) {
			return true
		}
	}
	return false
}

// debounceChanges collapses rapid changes to the same path into a
// single callback after the quiet period elapses
func debounceChanges(ctx context.Context, input <-chan string, delay time.Duration, fn func(string)) {
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, timer := range pending {
			timer.Stop()
		}
	}()

	for {
		select {
		case path, ok := <-input:
			if !ok {
				return
			}
			if timer, exists := pending[path]; exists {
				timer.Stop()
			}
			pending[path] = time.AfterFunc(delay, func() {
				if ctx.Err() != nil {
					return
				}
				fn(path)
			})
		case <-ctx.Done():
			return
		}
	}
}
