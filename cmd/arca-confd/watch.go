package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akam1o/arca-conf/pkg/archive"
	"github.com/akam1o/arca-conf/pkg/ini"
	"github.com/akam1o/arca-conf/pkg/logger"
	"github.com/fsnotify/fsnotify"
)

// watcher archives one settings file whenever its content changes.
type watcher struct {
	path      string // absolute path of the watched file
	arc       archive.Archive
	log       *logger.Logger
	debounce  time.Duration
	poll      time.Duration
	sessionID string
}

// run watches the file until the context is cancelled. Events come from
// inotify when available, with mod-time polling as the fallback.
func (w *watcher) run(ctx context.Context) {
	// Archive the current content before waiting for events, so edits
	// made while the daemon was down are not lost.
	if err := w.processOnce(ctx); err != nil {
		w.log.Error("Initial sync failed",
			slog.String("path", w.path),
			slog.Any("error", err),
		)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Warn("inotify unavailable, falling back to polling",
			slog.String("path", w.path),
			slog.Any("error", err),
		)
		w.pollLoop(ctx)
		return
	}
	defer fw.Close()

	// Watch the parent directory. Editors replace files via rename, and
	// a watch on the file itself dies with the old inode.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		w.log.Warn("Failed to watch directory, falling back to polling",
			slog.String("path", w.path),
			slog.Any("error", err),
		)
		w.pollLoop(ctx)
		return
	}

	w.log.Info("Watching file", slog.String("path", w.path))

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Editors emit bursts of events per save; only the last
			// one within the debounce window triggers processing.
			debounce = time.After(w.debounce)

		case <-debounce:
			debounce = nil
			if err := w.processOnce(ctx); err != nil {
				w.log.Error("Failed to process change",
					slog.String("path", w.path),
					slog.Any("error", err),
				)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("Watcher error",
				slog.String("path", w.path),
				slog.Any("error", err),
			)
		}
	}
}

// pollLoop checks the file's modification time on a fixed interval.
func (w *watcher) pollLoop(ctx context.Context) {
	w.log.Info("Polling file",
		slog.String("path", w.path),
		slog.Duration("interval", w.poll),
	)

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	var lastMod time.Time
	if info, err := os.Stat(w.path); err == nil {
		lastMod = info.ModTime()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				continue
			}
			if info.ModTime().Equal(lastMod) {
				continue
			}
			lastMod = info.ModTime()
			if err := w.processOnce(ctx); err != nil {
				w.log.Error("Failed to process change",
					slog.String("path", w.path),
					slog.Any("error", err),
				)
			}
		}
	}
}

// processOnce reads the file and records a snapshot when its content
// differs from the latest archived one. Syntax errors and a missing
// file are logged, not returned; the watch continues either way.
func (w *watcher) processOnce(ctx context.Context) error {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			w.log.Warn("Watched file missing", slog.String("path", w.path))
			return nil
		}
		return err
	}

	store := ini.NewStore()
	parser := ini.NewParser(bytes.NewReader(raw), w.path)
	if err := parser.ParseInto(store); err != nil {
		w.log.Error("File failed to parse, not archiving",
			slog.String("path", w.path),
			slog.Any("error", err),
		)
		return nil
	}

	checksum := archive.Checksum(string(raw))

	latest, err := w.arc.LatestSnapshot(ctx, w.path)
	if err != nil {
		var aerr *archive.Error
		if !stderrors.As(err, &aerr) || aerr.Code != archive.ErrCodeNotFound {
			return err
		}
		latest = nil
	}
	if latest != nil && latest.Checksum == checksum {
		w.log.Debug("File unchanged since last snapshot",
			slog.String("path", w.path),
		)
		return nil
	}

	req := &archive.SnapshotRequest{
		Path:       w.path,
		ConfigText: string(raw),
		Sections:   len(store.Sections()),
		Keys:       store.Len(),
		RecordedBy: "arca-confd",
		SessionID:  w.sessionID,
	}

	snapshotID, err := w.arc.RecordSnapshot(ctx, req)
	if err != nil {
		return err
	}

	oldText := ""
	if latest != nil {
		oldText = latest.ConfigText
	}
	added, removed := countChanges(archive.CompareTexts(oldText, string(raw)))

	w.log.Info("Snapshot recorded",
		slog.String("path", w.path),
		slog.String("snapshot_id", snapshotID),
		slog.Int("lines_added", added),
		slog.Int("lines_removed", removed),
	)

	return nil
}

// countChanges tallies added and removed lines in a rendered diff.
func countChanges(result *archive.DiffResult) (added, removed int) {
	if result == nil || !result.HasChanges {
		return 0, 0
	}
	for _, line := range strings.Split(result.DiffText, "\n") {
		switch {
		case strings.HasPrefix(line, "+ "):
			added++
		case strings.HasPrefix(line, "- "):
			removed++
		}
	}
	return added, removed
}
