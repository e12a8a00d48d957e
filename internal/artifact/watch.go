package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recall/internal/timestamp"
)

// WatchFunc receives text artifacts as they land on disk.
type WatchFunc func(Artifact)

// watchMemory bounds how many recently reported paths Watch remembers to
// suppress duplicate Create/Write events for the same content.
const watchMemory = 64

// recentContent remembers the last reported content of the most recently
// reported paths, evicting the oldest path once full.
type recentContent struct {
	limit int
	order []string
	last  map[string]string
}

func newRecentContent(limit int) *recentContent {
	return &recentContent{limit: limit, last: make(map[string]string, limit)}
}

// seen reports whether text was already reported for path, and records it
// otherwise.
func (r *recentContent) seen(path, text string) bool {
	prev, ok := r.last[path]
	if ok && prev == text {
		return true
	}
	if !ok {
		if len(r.order) == r.limit {
			delete(r.last, r.order[0])
			r.order = r.order[1:]
		}
		r.order = append(r.order, path)
	}
	r.last[path] = text
	return false
}

func (r *recentContent) size() int {
	return len(r.last)
}

// Watch reports text artifacts written to any category directory until ctx
// is cancelled. Both directories are created if missing so the watch can be
// started before the first capture arrives. A recently reported file is
// reported again only when its content changes.
func (s *Store) Watch(ctx context.Context, fn WatchFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("artifact: create watcher: %w", err)
	}
	defer watcher.Close()

	dirs := make(map[string]Category, 2)
	for _, c := range Categories() {
		dir, err := s.ensureDir(c)
		if err != nil {
			return err
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("artifact: watch %s: %w", dir, err)
		}
		dirs[dir] = c
	}

	recent := newRecentContent(watchMemory)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			c, ok := dirs[filepath.Dir(ev.Name)]
			if !ok {
				continue
			}
			ts, ok := timestamp.StripExtension(filepath.Base(ev.Name))
			if !ok {
				continue
			}
			b, err := os.ReadFile(ev.Name)
			if err != nil {
				s.logger.Debug("skipping unreadable artifact", zap.String("path", ev.Name), zap.Error(err))
				continue
			}
			text := string(b)
			if text == "" || recent.seen(ev.Name, text) {
				continue
			}
			fn(Artifact{Category: c, Timestamp: ts, Text: text})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("artifact watcher error", zap.Error(err))
		}
	}
}
