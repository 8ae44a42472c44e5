package stack

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatvault/pkg/config"
	"github.com/papercomputeco/chatvault/pkg/dotdir"
)

// Flags is the registry every chatvault command draws its shared flags from.
var Flags = config.FlagSet{
	config.FlagAPIListen: {
		Name:        "api-listen",
		Shorthand:   "a",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
	config.FlagAPIListenStandalone: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
	config.FlagAPITarget: {
		Name:        "api-target",
		ViperKey:    "client.api_target",
		Description: "chatvault API server URL",
	},
	config.FlagContentProv: {
		Name:        "content-provider",
		ViperKey:    "storage.content_provider",
		Description: "Content store provider (filesystem, sqlite, inmemory)",
	},
	config.FlagContentDir: {
		Name:        "content-dir",
		ViperKey:    "storage.content_dir",
		Description: "Directory for the filesystem content store (default: .chatvault/content)",
	},
	config.FlagSQLite: {
		Name:        "sqlite",
		Shorthand:   "s",
		ViperKey:    "storage.sqlite_path",
		Description: "Path to SQLite database (default: .chatvault/chatvault.db)",
	},
	config.FlagRecordsProv: {
		Name:        "records-provider",
		ViperKey:    "records.provider",
		Description: "Metadata record provider (sqlite, postgres, inmemory, none)",
	},
	config.FlagPostgresDSN: {
		Name:        "postgres-dsn",
		ViperKey:    "records.postgres_dsn",
		Description: "PostgreSQL connection string for the postgres records provider",
	},
	config.FlagVectorStoreProv: {
		Name:        "vector-store-provider",
		ViperKey:    "vector_store.provider",
		Description: "Vector store provider (sqlite, chroma, qdrant, inmemory)",
	},
	config.FlagVectorStoreTgt: {
		Name:        "vector-store-target",
		ViperKey:    "vector_store.target",
		Description: "Vector store URL (chroma) or address (qdrant)",
	},
	config.FlagNamespace: {
		Name:        "namespace",
		ViperKey:    "vector_store.namespace",
		Description: "Vector namespace conversations are archived under",
	},
	config.FlagEmbeddingProv: {
		Name:        "embedding-provider",
		ViperKey:    "embedding.provider",
		Description: "Embedding provider (ollama, openai, hashing)",
	},
	config.FlagEmbeddingTgt: {
		Name:        "embedding-target",
		ViperKey:    "embedding.target",
		Description: "Embedding provider URL",
	},
	config.FlagEmbeddingModel: {
		Name:        "embedding-model",
		ViperKey:    "embedding.model",
		Description: "Embedding model name",
	},
	config.FlagEmbeddingDims: {
		Name:        "embedding-dimensions",
		ViperKey:    "embedding.dimensions",
		Description: "Embedding dimensionality",
	},
	config.FlagEventStreamProv: {
		Name:        "eventstream-provider",
		ViperKey:    "eventstream.provider",
		Description: "Archive event publisher (nop, kafka)",
	},
	config.FlagKafkaBrokers: {
		Name:        "kafka-brokers",
		ViperKey:    "eventstream.brokers",
		Description: "Comma separated Kafka broker addresses",
	},
	config.FlagKafkaTopic: {
		Name:        "kafka-topic",
		ViperKey:    "eventstream.topic",
		Description: "Kafka topic for archive events",
	},
	config.FlagWorkers: {
		Name:        "workers",
		ViperKey:    "worker.workers",
		Description: "Number of archival workers",
	},
	config.FlagQueueSize: {
		Name:        "queue-size",
		ViperKey:    "worker.queue_size",
		Description: "Archival queue capacity",
	},
}

// StorageKeys are the flags every command that opens the archive carries.
var StorageKeys = []string{
	config.FlagContentProv,
	config.FlagContentDir,
	config.FlagSQLite,
	config.FlagRecordsProv,
	config.FlagPostgresDSN,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagNamespace,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagEventStreamProv,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

// Values holds the flag targets for StorageKeys. Values are read back
// through viper, so the fields only need to exist for cobra.
type Values struct {
	contentProvider string
	contentDir      string
	sqlitePath      string
	recordsProvider string
	postgresDSN     string
	vectorProvider  string
	vectorTarget    string
	namespace       string
	embedProvider   string
	embedTarget     string
	embedModel      string
	embedDims       uint
	streamProvider  string
	kafkaBrokers    string
	kafkaTopic      string
}

// AddStorageFlags registers StorageKeys on cmd.
func AddStorageFlags(cmd *cobra.Command, v *Values) {
	config.AddStringFlag(cmd, Flags, config.FlagContentProv, &v.contentProvider)
	config.AddStringFlag(cmd, Flags, config.FlagContentDir, &v.contentDir)
	config.AddStringFlag(cmd, Flags, config.FlagSQLite, &v.sqlitePath)
	config.AddStringFlag(cmd, Flags, config.FlagRecordsProv, &v.recordsProvider)
	config.AddStringFlag(cmd, Flags, config.FlagPostgresDSN, &v.postgresDSN)
	config.AddStringFlag(cmd, Flags, config.FlagVectorStoreProv, &v.vectorProvider)
	config.AddStringFlag(cmd, Flags, config.FlagVectorStoreTgt, &v.vectorTarget)
	config.AddStringFlag(cmd, Flags, config.FlagNamespace, &v.namespace)
	config.AddStringFlag(cmd, Flags, config.FlagEmbeddingProv, &v.embedProvider)
	config.AddStringFlag(cmd, Flags, config.FlagEmbeddingTgt, &v.embedTarget)
	config.AddStringFlag(cmd, Flags, config.FlagEmbeddingModel, &v.embedModel)
	config.AddUintFlag(cmd, Flags, config.FlagEmbeddingDims, &v.embedDims)
	config.AddStringFlag(cmd, Flags, config.FlagEventStreamProv, &v.streamProvider)
	config.AddStringFlag(cmd, Flags, config.FlagKafkaBrokers, &v.kafkaBrokers)
	config.AddStringFlag(cmd, Flags, config.FlagKafkaTopic, &v.kafkaTopic)
}

// Resolve loads the effective configuration for cmd, binding the flags
// named by keys so they take precedence over env and config.toml.
func Resolve(cmd *cobra.Command, keys []string) (*config.Config, dotdir.Layout, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, dotdir.Layout{}, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, Flags, keys)

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, dotdir.Layout{}, fmt.Errorf("loading config: %w", err)
	}

	layout, err := dotdir.NewManager().Layout(configDir)
	if err != nil {
		return nil, dotdir.Layout{}, fmt.Errorf("resolving chatvault directory: %w", err)
	}
	return cfg, layout, nil
}
