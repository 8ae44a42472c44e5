package config

import "github.com/papercomputeco/chatvault/pkg/source"

const (
	defaultContentProvider = "filesystem"
	defaultRecordsProvider = "sqlite"

	defaultVectorProvider   = "sqlite"
	defaultVectorCollection = "chatvault"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingModel      = "embeddinggemma"
	defaultEmbeddingDimensions = 768
	defaultEmbeddingTarget     = "http://localhost:11434"

	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "chatvault.archived"

	defaultWorkers    = 3
	defaultQueueSize  = 256
	defaultJobTimeout = "5m"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			ContentProvider: defaultContentProvider,
		},
		Records: RecordsConfig{
			Provider: defaultRecordsProvider,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
		Worker: WorkerConfig{
			Workers:    defaultWorkers,
			QueueSize:  defaultQueueSize,
			JobTimeout: defaultJobTimeout,
		},
		Platforms: source.DefaultPlatforms(),
	}
}
