package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchScriptDirs watches the given directories and calls onChange (after
// debounce) with the script files that were created, written, removed or
// renamed. Directories that do not exist are skipped; when none exist it
// returns immediately.
func watchScriptDirs(ctx context.Context, dirs []string, ext string, debounce time.Duration,
	onChange func(paths []string), logger *slog.Logger,
) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating script watcher: %w", err)
	}
	defer watcher.Close()

	added := 0

	for _, dir := range dirs {
		if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
			logger.Debug("script directory not watched", slog.String("dir", dir))
			continue
		}

		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching script directory %q: %w", dir, err)
		}

		added++
	}

	if added == 0 {
		return nil
	}

	debouncer := NewDebouncer(debounce, onChange)
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event, ext) {
				continue
			}

			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Error("script watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// isRelevant filters out events that cannot change script selection.
func isRelevant(event fsnotify.Event, ext string) bool {
	if event.Op == 0 {
		return false
	}

	// Only care about write, create, remove, rename.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)

	// Ignore editor temporary files and hidden files.
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	if ext != "" && !strings.HasSuffix(name, ext) {
		return false
	}

	return true
}
