package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/chatvault/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the CHATVAULT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (CHATVAULT_API_LISTEN, CHATVAULT_EMBEDDING_PROVIDER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: CHATVAULT_API_LISTEN, CHATVAULT_STORAGE_SQLITE_PATH, etc.
	v.SetEnvPrefix("CHATVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.content_provider", d.Storage.ContentProvider)
	v.SetDefault("storage.content_dir", d.Storage.ContentDir)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)

	// Records
	v.SetDefault("records.provider", d.Records.Provider)
	v.SetDefault("records.postgres_dsn", d.Records.PostgresDSN)

	// Vector store
	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)
	v.SetDefault("vector_store.namespace", d.VectorStore.Namespace)
	v.SetDefault("vector_store.collection", d.VectorStore.Collection)
	v.SetDefault("vector_store.api_key", d.VectorStore.APIKey)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.api_key", d.Embedding.APIKey)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)

	// Event stream
	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)

	// Worker pool
	v.SetDefault("worker.workers", d.Worker.Workers)
	v.SetDefault("worker.queue_size", d.Worker.QueueSize)
	v.SetDefault("worker.job_timeout", d.Worker.JobTimeout)
}

// FromViper resolves the effective configuration from v, so flags, env and
// file values all land in one Config.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			ContentProvider: v.GetString("storage.content_provider"),
			ContentDir:      v.GetString("storage.content_dir"),
			SQLitePath:      v.GetString("storage.sqlite_path"),
		},
		Records: RecordsConfig{
			Provider:    v.GetString("records.provider"),
			PostgresDSN: v.GetString("records.postgres_dsn"),
		},
		VectorStore: VectorStoreConfig{
			Provider:   v.GetString("vector_store.provider"),
			Target:     v.GetString("vector_store.target"),
			Namespace:  v.GetString("vector_store.namespace"),
			Collection: v.GetString("vector_store.collection"),
			APIKey:     v.GetString("vector_store.api_key"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
			APIKey:     v.GetString("embedding.api_key"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Client: ClientConfig{
			APITarget: v.GetString("client.api_target"),
		},
		EventStream: EventStreamConfig{
			Provider: v.GetString("eventstream.provider"),
			Brokers:  brokers(v),
			Topic:    v.GetString("eventstream.topic"),
		},
		Worker: WorkerConfig{
			Workers:    v.GetUint("worker.workers"),
			QueueSize:  v.GetUint("worker.queue_size"),
			JobTimeout: v.GetString("worker.job_timeout"),
		},
	}

	if v.IsSet("platforms") {
		if err := v.UnmarshalKey("platforms", &cfg.Platforms); err != nil {
			return nil, fmt.Errorf("reading platforms: %w", err)
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

// brokers accepts both a TOML array and a comma separated flag or env value.
func brokers(v *viper.Viper) []string {
	var out []string
	for _, b := range v.GetStringSlice("eventstream.brokers") {
		out = append(out, SplitList(b)...)
	}
	return out
}
