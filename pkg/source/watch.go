package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/chatvault/pkg/archive"
	"github.com/papercomputeco/chatvault/pkg/logger"
)

// Handler receives the conversations decoded from one export file.
type Handler func(ctx context.Context, origin string, convs []archive.Conversation)

// WatcherConfig configures an inbox Watcher.
type WatcherConfig struct {
	// Dir is the inbox directory. It is created when missing.
	Dir string

	// Reader decodes export files.
	Reader *Reader

	// Handler is called once per successfully decoded file version.
	Handler Handler

	// SkipExisting ignores files already in Dir when Run starts.
	SkipExisting bool

	// Logger defaults to a no-op logger.
	Logger *slog.Logger
}

// Watcher archives every JSON export written into an inbox directory.
type Watcher struct {
	dir          string
	reader       *Reader
	handler      Handler
	skipExisting bool
	logger       *slog.Logger

	mu   sync.Mutex
	seen map[string]fileVersion
}

type fileVersion struct {
	size    int64
	modTime time.Time
}

// NewWatcher validates c and prepares the inbox directory.
func NewWatcher(c WatcherConfig) (*Watcher, error) {
	if c.Dir == "" {
		return nil, errors.New("watch directory is required")
	}
	if c.Handler == nil {
		return nil, errors.New("handler is required")
	}

	dir, err := filepath.Abs(c.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolving watch directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating watch directory: %w", err)
	}

	rd := c.Reader
	if rd == nil {
		rd = &Reader{}
	}
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Watcher{
		dir:          dir,
		reader:       rd,
		handler:      c.Handler,
		skipExisting: c.SkipExisting,
		logger:       log,
		seen:         make(map[string]fileVersion),
	}, nil
}

// Dir returns the absolute inbox directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run watches the inbox until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating inbox watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching inbox dir: %w", err)
	}

	if err := w.scan(ctx); err != nil {
		return err
	}

	w.logger.Info("watching inbox", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.process(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("inbox watcher error: %w", err)
		}
	}
}

// scan handles files already present in the inbox, or only marks them as seen
// when SkipExisting is set.
func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading inbox dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isExport(entry.Name()) {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if w.skipExisting {
			if v, ok := version(path); ok {
				w.mark(path, v)
			}
			continue
		}
		w.process(ctx, path)
	}
	return nil
}

// process decodes path and hands it to the handler once per file version.
// Decode errors are expected while a file is still being written, so they
// only log at debug and the next write event retries.
func (w *Watcher) process(ctx context.Context, path string) {
	if !isExport(path) {
		return
	}

	v, ok := version(path)
	if !ok || w.unchanged(path, v) {
		return
	}

	convs, err := w.reader.ReadFile(path)
	if err != nil {
		w.logger.Debug("skipping unreadable export",
			"path", path,
			"error", err,
		)
		return
	}

	w.mark(path, v)
	w.logger.Info("export received",
		"path", path,
		"conversations", len(convs),
	)
	w.handler(ctx, path, convs)
}

func (w *Watcher) unchanged(path string, v fileVersion) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev, ok := w.seen[path]
	return ok && prev.size == v.size && prev.modTime.Equal(v.modTime)
}

func (w *Watcher) mark(path string, v fileVersion) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seen[path] = v
}

func version(path string) (fileVersion, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fileVersion{}, false
	}
	return fileVersion{size: info.Size(), modTime: info.ModTime()}, true
}

func isExport(name string) bool {
	base := filepath.Base(name)
	return strings.EqualFold(filepath.Ext(base), ".json") && !strings.HasPrefix(base, ".")
}
