package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/chatvault/pkg/source"
)

// Config represents the persistent chatvault configuration stored as
// config.toml in the .chatvault/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	Records     RecordsConfig     `toml:"records"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	EventStream EventStreamConfig `toml:"eventstream"`
	Worker      WorkerConfig      `toml:"worker"`
	Platforms   source.Platforms  `toml:"platforms,omitempty"`
}

// StorageConfig holds content store settings.
// Empty paths resolve inside the .chatvault/ directory.
type StorageConfig struct {
	ContentProvider string `toml:"content_provider,omitempty"`
	ContentDir      string `toml:"content_dir,omitempty"`
	SQLitePath      string `toml:"sqlite_path,omitempty"`
}

// RecordsConfig holds metadata record store settings.
type RecordsConfig struct {
	Provider    string `toml:"provider,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Namespace  string `toml:"namespace,omitempty"`
	Collection string `toml:"collection,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// API server (e.g. chatvault search --remote). Values are full URLs.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// EventStreamConfig holds archive event publishing settings.
type EventStreamConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// WorkerConfig holds batch archival worker pool settings.
type WorkerConfig struct {
	Workers   uint `toml:"workers,omitempty"`
	QueueSize uint `toml:"queue_size,omitempty"`

	// JobTimeout bounds one archive job, as a Go duration such as "5m".
	JobTimeout string `toml:"job_timeout,omitempty"`
}

// JobTimeoutDuration parses JobTimeout. An empty value yields zero, which
// leaves the worker pool default in place.
func (w WorkerConfig) JobTimeoutDuration() (time.Duration, error) {
	if w.JobTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(w.JobTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid value for worker.job_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid value for worker.job_timeout: %s is negative", w.JobTimeout)
	}
	return d, nil
}

// SplitList splits a comma separated value, trimming blanks.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.content_provider": stringKey(func(c *Config) *string { return &c.Storage.ContentProvider }),
	"storage.content_dir":      stringKey(func(c *Config) *string { return &c.Storage.ContentDir }),
	"storage.sqlite_path":      stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"records.provider":         stringKey(func(c *Config) *string { return &c.Records.Provider }),
	"records.postgres_dsn":     stringKey(func(c *Config) *string { return &c.Records.PostgresDSN }),
	"vector_store.provider":    stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":      stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.namespace":   stringKey(func(c *Config) *string { return &c.VectorStore.Namespace }),
	"vector_store.collection":  stringKey(func(c *Config) *string { return &c.VectorStore.Collection }),
	"vector_store.api_key":     stringKey(func(c *Config) *string { return &c.VectorStore.APIKey }),
	"embedding.provider":       stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":         stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":          stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions":     uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),
	"embedding.api_key":        stringKey(func(c *Config) *string { return &c.Embedding.APIKey }),
	"api.listen":               stringKey(func(c *Config) *string { return &c.API.Listen }),
	"client.api_target":        stringKey(func(c *Config) *string { return &c.Client.APITarget }),
	"eventstream.provider":     stringKey(func(c *Config) *string { return &c.EventStream.Provider }),
	"eventstream.brokers": {
		get: func(c *Config) string { return strings.Join(c.EventStream.Brokers, ",") },
		set: func(c *Config, v string) error { c.EventStream.Brokers = SplitList(v); return nil },
	},
	"eventstream.topic": stringKey(func(c *Config) *string { return &c.EventStream.Topic }),
	"worker.workers":    uintKey("worker.workers", func(c *Config) *uint { return &c.Worker.Workers }),
	"worker.queue_size": uintKey("worker.queue_size", func(c *Config) *uint { return &c.Worker.QueueSize }),
	"worker.job_timeout": {
		get: func(c *Config) string { return c.Worker.JobTimeout },
		set: func(c *Config, v string) error {
			if _, err := (WorkerConfig{JobTimeout: v}).JobTimeoutDuration(); err != nil {
				return err
			}
			c.Worker.JobTimeout = v
			return nil
		},
	},
}
