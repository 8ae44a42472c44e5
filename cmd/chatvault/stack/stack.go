// Package stack assembles the archive and its drivers from resolved
// configuration. Every chatvault command that touches the archive goes
// through Build so providers are selected in one place.
package stack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/chatvault/pkg/archive"
	"github.com/papercomputeco/chatvault/pkg/cas"
	"github.com/papercomputeco/chatvault/pkg/cas/filesystem"
	casinmemory "github.com/papercomputeco/chatvault/pkg/cas/inmemory"
	cassqlite "github.com/papercomputeco/chatvault/pkg/cas/sqlite"
	"github.com/papercomputeco/chatvault/pkg/config"
	"github.com/papercomputeco/chatvault/pkg/dotdir"
	embeddingutils "github.com/papercomputeco/chatvault/pkg/embeddings/utils"
	"github.com/papercomputeco/chatvault/pkg/eventstream"
	"github.com/papercomputeco/chatvault/pkg/eventstream/kafka"
	"github.com/papercomputeco/chatvault/pkg/eventstream/nop"
	"github.com/papercomputeco/chatvault/pkg/metrics"
	"github.com/papercomputeco/chatvault/pkg/records"
	recordsinmemory "github.com/papercomputeco/chatvault/pkg/records/inmemory"
	"github.com/papercomputeco/chatvault/pkg/records/postgres"
	recordssqlite "github.com/papercomputeco/chatvault/pkg/records/sqlite"
	"github.com/papercomputeco/chatvault/pkg/source"
	vectorutils "github.com/papercomputeco/chatvault/pkg/vector/utils"
)

const (
	ProviderFilesystem = "filesystem"
	ProviderSQLite     = "sqlite"
	ProviderPostgres   = "postgres"
	ProviderInMemory   = "inmemory"
	ProviderNone       = "none"
	ProviderKafka      = "kafka"
	ProviderNop        = "nop"
)

// Stack is a fully wired archive.
type Stack struct {
	Archiver *archive.Archiver
	Metrics  *metrics.Metrics
	Reader   *source.Reader
	Config   *config.Config
	Layout   dotdir.Layout
}

// Close releases every driver held by the archive.
func (s *Stack) Close() error {
	return s.Archiver.Close()
}

// Paths are the resolved on-disk locations used by the stack.
type Paths struct {
	ContentDir string
	SQLitePath string
}

// ResolvePaths fills unset storage paths from the .chatvault/ layout.
func ResolvePaths(cfg *config.Config, layout dotdir.Layout) Paths {
	p := Paths{
		ContentDir: cfg.Storage.ContentDir,
		SQLitePath: cfg.Storage.SQLitePath,
	}
	if p.ContentDir == "" {
		p.ContentDir = layout.ContentDir()
	}
	if p.SQLitePath == "" {
		p.SQLitePath = layout.DatabasePath()
	}
	return p
}

// Build creates every driver named by cfg and the archiver over them.
// Drivers opened before a failure are closed again.
func Build(ctx context.Context, cfg *config.Config, layout dotdir.Layout, logger *slog.Logger) (*Stack, error) {
	paths := ResolvePaths(cfg, layout)

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	store, err := NewContentStore(cfg.Storage.ContentProvider, paths, logger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, store.Close)

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		Dimensions:   int(cfg.Embedding.Dimensions),
		APIKey:       cfg.Embedding.APIKey,
		Logger:       logger,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	closers = append(closers, embedder.Close)

	vectorDriver, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		TargetURL:    cfg.VectorStore.Target,
		SQLitePath:   paths.SQLitePath,
		Collection:   cfg.VectorStore.Collection,
		APIKey:       cfg.VectorStore.APIKey,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       logger,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("creating vector driver: %w", err)
	}
	closers = append(closers, vectorDriver.Close)

	recordStore, err := NewRecordStore(ctx, cfg.Records, paths)
	if err != nil {
		cleanup()
		return nil, err
	}
	if recordStore != nil {
		closers = append(closers, recordStore.Close)
	}

	publisher, err := NewPublisher(cfg.EventStream, logger)
	if err != nil {
		cleanup()
		return nil, err
	}
	closers = append(closers, publisher.Close)

	m := metrics.New()

	archiver, err := archive.NewArchiver(archive.Config{
		Store:        store,
		Embedder:     embedder,
		VectorDriver: vectorDriver,
		Records:      recordStore,
		Publisher:    publisher,
		Metrics:      m,
		Namespace:    cfg.VectorStore.Namespace,
		Logger:       logger,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("creating archiver: %w", err)
	}

	logger.Debug("archive stack ready",
		"content_provider", cfg.Storage.ContentProvider,
		"records_provider", cfg.Records.Provider,
		"vector_provider", cfg.VectorStore.Provider,
		"embedding_provider", cfg.Embedding.Provider,
		"eventstream_provider", cfg.EventStream.Provider,
		"namespace", cfg.VectorStore.Namespace,
	)

	return &Stack{
		Archiver: archiver,
		Metrics:  m,
		Reader: &source.Reader{
			Platforms: cfg.Platforms,
		},
		Config: cfg,
		Layout: layout,
	}, nil
}

// NewContentStore creates the content-addressed store for provider.
func NewContentStore(provider string, paths Paths, logger *slog.Logger) (cas.Store, error) {
	switch provider {
	case ProviderFilesystem:
		store, err := filesystem.NewStore(filesystem.Config{Root: paths.ContentDir}, logger)
		if err != nil {
			return nil, fmt.Errorf("creating filesystem content store: %w", err)
		}
		return store, nil
	case ProviderSQLite:
		store, err := cassqlite.NewStore(paths.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite content store: %w", err)
		}
		return store, nil
	case ProviderInMemory:
		return casinmemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unsupported content provider: %s", provider)
	}
}

// NewRecordStore creates the metadata record store. The "none" provider
// returns a nil store, which disables history.
func NewRecordStore(ctx context.Context, c config.RecordsConfig, paths Paths) (records.Store, error) {
	switch c.Provider {
	case ProviderSQLite:
		store, err := recordssqlite.NewDriver(ctx, paths.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite record store: %w", err)
		}
		return store, nil
	case ProviderPostgres:
		if c.PostgresDSN == "" {
			return nil, errors.New("records.postgres_dsn is required for the postgres provider")
		}
		store, err := postgres.NewDriver(ctx, c.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("creating postgres record store: %w", err)
		}
		return store, nil
	case ProviderInMemory:
		return recordsinmemory.NewStore(), nil
	case ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported records provider: %s", c.Provider)
	}
}

// NewPublisher creates the archive event publisher.
func NewPublisher(c config.EventStreamConfig, logger *slog.Logger) (eventstream.Publisher, error) {
	switch c.Provider {
	case ProviderNop, "":
		return nop.NewPublisher(), nil
	case ProviderKafka:
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers: c.Brokers,
			Topic:   c.Topic,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return pub, nil
	default:
		return nil, fmt.Errorf("unsupported eventstream provider: %s", c.Provider)
	}
}
