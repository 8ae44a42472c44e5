// Package servecmder provides the serve command, which runs the HTTP API with
// the MCP endpoint mounted and optionally watches an inbox.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatvault/api"
	"github.com/papercomputeco/chatvault/api/mcp"
	"github.com/papercomputeco/chatvault/cmd/chatvault/stack"
	watchcmder "github.com/papercomputeco/chatvault/cmd/chatvault/watch"
	"github.com/papercomputeco/chatvault/pkg/config"
	"github.com/papercomputeco/chatvault/pkg/worker"
)

type ServeCommander struct {
	flags     stack.Values
	listen    string
	workers   uint
	queueSize uint

	noMCP    bool
	watch    bool
	watchDir string

	logger *slog.Logger
}

const serveLongDesc string = `Run the chatvault API server.

The server exposes the archive over HTTP:
  POST   /v1/archive               Archive conversations (?async=true queues them)
  GET    /v1/search                Semantic search
  GET    /v1/content/:key          Retrieve archived turns
  GET    /v1/records               List recent records
  GET    /v1/records/:id           Record history of a conversation
  PATCH  /v1/conversations/:id     Retitle a conversation
  DELETE /v1/conversations/:id     Remove a conversation from search
  GET    /metrics                  Prometheus metrics
  POST   /mcp                      MCP tools for agents

With --watch, exports written to the inbox directory are archived too.

Examples:
  chatvault serve
  chatvault serve --api-listen :9000 --watch
  chatvault serve --watch --watch-dir ~/Downloads/chat-exports`

const serveShortDesc string = "Run the chatvault API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.logger, err = stack.Logger(cmd)
			if err != nil {
				return err
			}
			return cmder.run(cmd)
		},
	}

	stack.AddStorageFlags(cmd, &cmder.flags)
	config.AddStringFlag(cmd, stack.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddUintFlag(cmd, stack.Flags, config.FlagWorkers, &cmder.workers)
	config.AddUintFlag(cmd, stack.Flags, config.FlagQueueSize, &cmder.queueSize)
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Do not mount the MCP endpoint")
	cmd.Flags().BoolVar(&cmder.watch, "watch", false, "Also archive exports written to the inbox directory")
	cmd.Flags().StringVar(&cmder.watchDir, "watch-dir", "", "Inbox directory for --watch (default: .chatvault/inbox)")

	return cmd
}

func (c *ServeCommander) run(cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys := append([]string{config.FlagAPIListen, config.FlagWorkers, config.FlagQueueSize}, stack.StorageKeys...)
	cfg, layout, err := stack.Resolve(cmd, keys)
	if err != nil {
		return err
	}

	s, err := stack.Build(ctx, cfg, layout, c.logger)
	if err != nil {
		return err
	}
	defer s.Close()

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

	var mcpHandler http.Handler
	if !c.noMCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Archiver: s.Archiver,
			Reader:   s.Reader,
			Logger:   c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
		mcpHandler = mcpServer.Handler()
	}

	apiServer, err := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
		Reader:     s.Reader,
		Pool:       pool,
		Metrics:    s.Metrics,
		MCP:        mcpHandler,
	}, s.Archiver, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("starting api server",
		"api_addr", cfg.API.Listen,
		"mcp", !c.noMCP,
		"namespace", cfg.VectorStore.Namespace,
	)

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	if c.watch {
		dir := c.watchDir
		if dir == "" {
			dir = layout.InboxDir()
		}
		w, err := watchcmder.NewInboxWatcher(dir, s.Reader, pool, false, c.logger)
		if err != nil {
			_ = apiServer.Shutdown()
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				errChan <- fmt.Errorf("inbox watcher error: %w", err)
			}
		}()
	}

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case runErr = <-errChan:
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	}

	cancel()
	if err := apiServer.Shutdown(); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("shutting down API server: %w", err))
	}
	return runErr
}
