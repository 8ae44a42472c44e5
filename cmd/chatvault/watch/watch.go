// Package watchcmder provides the watch command, which archives every export
// written into an inbox directory.
package watchcmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatvault/cmd/chatvault/stack"
	"github.com/papercomputeco/chatvault/pkg/archive"
	"github.com/papercomputeco/chatvault/pkg/config"
	"github.com/papercomputeco/chatvault/pkg/source"
	"github.com/papercomputeco/chatvault/pkg/worker"
)

type watchCommander struct {
	flags     stack.Values
	workers   uint
	queueSize uint

	dir           string
	defaultSource string
	skipExisting  bool

	logger *slog.Logger
}

const watchLongDesc string = `Watch an inbox directory and archive every export written into it.

Exports already in the directory are archived when the watch starts unless
--skip-existing is set. A file is archived again whenever it is rewritten.
Conversations are archived by a background worker pool so slow embedding
calls do not hold up the watcher.

The inbox defaults to .chatvault/inbox.

Examples:
  chatvault watch
  chatvault watch ~/Downloads/chat-exports --workers 4
  chatvault watch --skip-existing --source claude`

const watchShortDesc string = "Archive exports dropped into an inbox directory"

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{}

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cmder.dir = args[0]
			}

			var err error
			cmder.logger, err = stack.Logger(cmd)
			if err != nil {
				return err
			}
			return cmder.run(cmd)
		},
	}

	stack.AddStorageFlags(cmd, &cmder.flags)
	config.AddUintFlag(cmd, stack.Flags, config.FlagWorkers, &cmder.workers)
	config.AddUintFlag(cmd, stack.Flags, config.FlagQueueSize, &cmder.queueSize)
	cmd.Flags().StringVar(&cmder.defaultSource, "source", "", "Source tag for exports that carry none")
	cmd.Flags().BoolVar(&cmder.skipExisting, "skip-existing", false, "Ignore exports already in the inbox")

	return cmd
}

func (c *watchCommander) run(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	keys := append([]string{config.FlagWorkers, config.FlagQueueSize}, stack.StorageKeys...)
	cfg, layout, err := stack.Resolve(cmd, keys)
	if err != nil {
		return err
	}

	s, err := stack.Build(ctx, cfg, layout, c.logger)
	if err != nil {
		return err
	}
	defer s.Close()

	s.Reader.DefaultSource = c.defaultSource

	jobTimeout, err := cfg.Worker.JobTimeoutDuration()
	if err != nil {
		return err
	}

	pool, err := worker.NewPool(&worker.Config{
		Archiver:   s.Archiver,
		NumWorkers: cfg.Worker.Workers,
		QueueSize:  cfg.Worker.QueueSize,
		JobTimeout: jobTimeout,
		Metrics:    s.Metrics,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Close()

	dir := c.dir
	if dir == "" {
		dir = layout.InboxDir()
	}

	w, err := NewInboxWatcher(dir, s.Reader, pool, c.skipExisting, c.logger)
	if err != nil {
		return err
	}

	c.logger.Info("starting inbox watch",
		"dir", w.Dir(),
		"workers", cfg.Worker.Workers,
		"namespace", cfg.VectorStore.Namespace,
	)

	if err := w.Run(ctx); err != nil {
		return err
	}

	c.logger.Info("inbox watch stopped, draining queue")
	return nil
}

// NewInboxWatcher creates a watcher over dir that queues every decoded
// conversation on pool.
func NewInboxWatcher(dir string, reader *source.Reader, pool *worker.Pool, skipExisting bool, logger *slog.Logger) (*source.Watcher, error) {
	w, err := source.NewWatcher(source.WatcherConfig{
		Dir:          dir,
		Reader:       reader,
		Handler:      QueueHandler(pool, logger),
		SkipExisting: skipExisting,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating inbox watcher: %w", err)
	}
	return w, nil
}

// QueueHandler enqueues each conversation of an export as its own job.
func QueueHandler(pool *worker.Pool, logger *slog.Logger) source.Handler {
	return func(_ context.Context, origin string, convs []archive.Conversation) {
		for _, conv := range convs {
			pool.Enqueue(worker.Job{
				Conversation: conv,
				Origin:       origin,
				Done: func(rec *archive.MetadataRecord, err error) {
					if err != nil {
						return
					}
					logger.Info("archived conversation",
						"id", rec.ID,
						"title", rec.Title,
						"origin", origin,
					)
				},
			})
		}
	}
}
