package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 150 * time.Millisecond

// Watch re-validates a manifest whenever the manifest or one of its shaders changes on disk.
// Each change reloads the manifest, drops the whole descriptor cache and calls onChange with
// the new results. Watch blocks until ctx is done.
//
// Parameters:
//   - ctx: cancels the watch
//   - l: the loader that validates
//   - m: a manifest read with Load
//   - onChange: receives the reloaded manifest (nil if it no longer decodes), the results and the decode error
//
// Returns:
//   - error: nil once ctx is done, or the error that stopped the watcher
func Watch(ctx context.Context, l Loader, m *Manifest, onChange func(*Manifest, []Result, error)) error {
	if !m.OnDisk() {
		return errors.New("loader: only manifests read with Load can be watched")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("loader: failed to create watcher: %w", err)
	}
	defer watcher.Close()

	files := watchedFiles(m)
	for _, dir := range watchedDirs(files) {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("loader: failed to watch %s: %w", dir, err)
		}
	}

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !slices.Contains(files, filepath.Clean(event.Name)) {
				continue
			}
			common.Logger().Debug("manifest input changed", "file", event.Name, "op", event.Op.String())
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("loader: watch failed: %w", err)
		case <-timer.C:
			l.Invalidate()
			reloaded, err := l.Load(m.Path())
			if err != nil {
				onChange(nil, nil, err)
				continue
			}
			m = reloaded
			// Shaders may have been added to the manifest.
			next := watchedFiles(m)
			for _, dir := range watchedDirs(next) {
				if !slices.Contains(watchedDirs(files), dir) {
					if err := watcher.Add(dir); err != nil {
						return fmt.Errorf("loader: failed to watch %s: %w", dir, err)
					}
				}
			}
			files = next
			onChange(m, l.Validate(m), nil)
		}
	}
}

func watchedFiles(m *Manifest) []string {
	files := []string{filepath.Clean(m.Path())}
	for _, f := range m.ShaderFiles() {
		files = append(files, filepath.Clean(f))
	}
	return files
}

func watchedDirs(files []string) []string {
	var dirs []string
	for _, f := range files {
		if d := filepath.Dir(f); !slices.Contains(dirs, d) {
			dirs = append(dirs, d)
		}
	}
	return dirs
}
