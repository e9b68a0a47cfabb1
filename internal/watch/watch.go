// Package watch follows out-of-process edits to the vault. Events fan out
// to the SSE broker and schedule a debounced index rebuild, so hand edits
// in an external editor keep the index documents current without any
// persistent state.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gweinger/zettelkasten/internal/sse"
	"github.com/gweinger/zettelkasten/internal/vault"
)

const rebuildDebounce = 500 * time.Millisecond

// Publisher receives vault change notifications. Matched by *sse.Broker.
type Publisher interface {
	PublishVaultEvent(kind, path string)
}

// Watch starts an fsnotify watcher on the vault root and processes file
// change events until ctx is cancelled. Each markdown change is published
// and schedules a rebuild; bursts collapse into a single rebuild run.
//
// New directories created at runtime are automatically added to the watch
// list. Index files are ignored entirely: the rebuild writes them, and
// reacting to those writes would loop forever.
func Watch(ctx context.Context, vaultRoot string, logger *slog.Logger, pub Publisher, rebuild func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	// rebuildTimer debounces index rebuilds across event bursts.
	var rebuildTimer *time.Timer
	var rebuildCh <-chan time.Time

	scheduleRebuild := func() {
		if rebuild == nil {
			return
		}
		if rebuildTimer == nil {
			rebuildTimer = time.NewTimer(rebuildDebounce)
			rebuildCh = rebuildTimer.C
		} else {
			rebuildTimer.Reset(rebuildDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if rebuildTimer != nil {
				rebuildTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-rebuildCh:
			if err := rebuild(); err != nil {
				logger.Warn("watcher: index rebuild failed", slog.String("error", err.Error()))
			} else {
				logger.Debug("watcher: index rebuilt")
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New directories join the watch list.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					continue
				}
			}

			if !strings.HasSuffix(absPath, ".md") {
				continue
			}
			if vault.IsIndexFile(filepath.Base(absPath)) {
				continue
			}

			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&fsnotify.Create != 0:
				pub.PublishVaultEvent(sse.EventNoteCreated, rel)
				scheduleRebuild()
			case ev.Op&fsnotify.Write != 0:
				pub.PublishVaultEvent(sse.EventNoteUpdated, rel)
				scheduleRebuild()
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Rename fires on the old path; the new path, if any,
				// arrives as its own Create event.
				pub.PublishVaultEvent(sse.EventNoteDeleted, rel)
				scheduleRebuild()
			}
			logger.Debug("watcher: event",
				slog.String("path", rel),
				slog.String("op", ev.Op.String()))

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
