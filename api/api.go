package api

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/chatvault/api/search"
	"github.com/papercomputeco/chatvault/pkg/archive"
	"github.com/papercomputeco/chatvault/pkg/cas"
	"github.com/papercomputeco/chatvault/pkg/records"
	"github.com/papercomputeco/chatvault/pkg/source"
)

// Archiver is the archive surface the API exposes.
type Archiver interface {
	Archive(ctx context.Context, conv archive.Conversation) (*archive.MetadataRecord, error)
	Search(ctx context.Context, q archive.SearchQuery) ([]archive.SearchHit, error)
	RetrieveByReference(ctx context.Context, ref string) ([]cas.Turn, error)
	Forget(ctx context.Context, id string) error
	Retitle(ctx context.Context, id, title string) error
	History(ctx context.Context, id string) ([]*archive.MetadataRecord, error)
	Recent(ctx context.Context, opts records.ListOptions) ([]*archive.MetadataRecord, error)
}

// Server is the API server for the chat archive.
type Server struct {
	config   Config
	archiver Archiver
	searcher *search.Searcher
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates a new API server.
// The archiver is injected to allow sharing with other components
// (e.g., the inbox watcher when run from "chatvault serve --watch").
func NewServer(config Config, archiver Archiver, logger *slog.Logger) (*Server, error) {
	if archiver == nil {
		return nil, errors.New("archiver is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if config.Reader == nil {
		config.Reader = &source.Reader{}
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		archiver: archiver,
		searcher: search.NewSearcher(archiver, logger),
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)

	v1 := app.Group("/v1")
	v1.Post("/archive", s.handleArchive)
	v1.Get("/search", s.handleSearchEndpoint)
	v1.Get("/content/:key", s.handleGetContent)
	v1.Get("/records", s.handleListRecords)
	v1.Get("/records/:id", s.handleGetHistory)
	v1.Delete("/conversations/:id", s.handleForget)
	v1.Patch("/conversations/:id", s.handleRetitle)

	if config.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(config.Metrics.Handler()))
	}

	if config.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCP))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the API server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting API server",
		"listen", listener.Addr().String(),
	)
	return s.app.Listener(listener)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
