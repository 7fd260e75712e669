package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/raido/internal/naming"
	"github.com/starford/raido/internal/store"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, filename string)

// Watch starts an fsnotify watcher on the sessions directory and
// processes file change events until ctx is cancelled. The directory
// is flat: session files never live in subdirectories, so only the
// root is watched. Rename events trigger a debounced reconciliation
// pass that repairs any entries the individual events missed.
func Watch(ctx context.Context, db *DB, st *store.Store, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(st.Dir()); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", st.Dir()))

	// reconcileTimer debounces reconciliation after rename bursts.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, st, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			filename := filepath.Base(ev.Name)
			if _, valid := naming.Parse(filename); !valid {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				sess, found := st.GetByID(filename, false)
				if !found {
					continue
				}
				content, found := st.Read(sess.SessionPath)
				if !found {
					continue
				}
				if idxErr := indexSession(db, *sess, content); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("path", filename), slog.String("error", idxErr.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("path", filename), slog.String("op", kind))
				if cb != nil {
					cb(kind, filename)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.Delete(filename); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", filename), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("path", filename))
				if cb != nil {
					cb("deleted", filename)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only; the new
				// path arrives as a separate Create event. Drop the
				// old entry now and reconcile shortly after to catch
				// stragglers.
				if delErr := db.Delete(filename); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", filename), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("path", filename))
					if cb != nil {
						cb("deleted", filename)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile re-syncs the index against the directory after a rename
// burst, logging but not failing on individual errors.
func reconcile(db *DB, st *store.Store, logger *slog.Logger, cb EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]struct{})
	for _, sess := range st.All() {
		disk[sess.Filename] = struct{}{}

		content, found := st.Read(sess.SessionPath)
		if !found {
			continue
		}
		if checksums[sess.Filename] == checksumOf(content) {
			continue
		}
		if idxErr := indexSession(db, sess, content); idxErr == nil {
			logger.Debug("reconcile: indexed", slog.String("path", sess.Filename))
			if cb != nil {
				cb("created", sess.Filename)
			}
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if delErr := db.Delete(p); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("path", p))
				if cb != nil {
					cb("deleted", p)
				}
			}
		}
	}
}
