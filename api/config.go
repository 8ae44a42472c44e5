// Package api provides an HTTP API server for archiving, searching and
// retrieving chat conversations.
package api

import (
	"net/http"

	"github.com/papercomputeco/chatvault/pkg/metrics"
	"github.com/papercomputeco/chatvault/pkg/source"
	"github.com/papercomputeco/chatvault/pkg/worker"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// Reader decodes POST /v1/archive bodies. A zero Reader accepts any
	// source tag.
	Reader *source.Reader

	// Pool enables ?async=true archiving when set.
	Pool *worker.Pool

	// Metrics is served on /metrics when set.
	Metrics *metrics.Metrics

	// MCP is mounted on /mcp when set.
	MCP http.Handler
}
