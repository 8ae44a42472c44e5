// Package mcp provides an MCP (Model Context Protocol) server for the chat archive.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/chatvault/api/search"
	"github.com/papercomputeco/chatvault/pkg/archive"
	"github.com/papercomputeco/chatvault/pkg/cas"
	"github.com/papercomputeco/chatvault/pkg/source"
	"github.com/papercomputeco/chatvault/pkg/utils"
)

// Archiver is the archive surface exposed as MCP tools.
type Archiver interface {
	Archive(ctx context.Context, conv archive.Conversation) (*archive.MetadataRecord, error)
	Search(ctx context.Context, q archive.SearchQuery) ([]archive.SearchHit, error)
	RetrieveByReference(ctx context.Context, ref string) ([]cas.Turn, error)
}

type Config struct {
	// Archiver backs every tool
	Archiver Archiver

	// Reader validates source tags of conversations passed to the archive
	// tool. A zero Reader accepts any tag.
	Reader *source.Reader

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	searcher  *search.Searcher
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the archive, search and retrieve tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "chatvault",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)
	s.mcpServer = mcpServer

	if !c.Noop {
		if c.Archiver == nil {
			return nil, errors.New("archiver is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}
		if s.config.Reader == nil {
			s.config.Reader = &source.Reader{}
		}
		s.searcher = search.NewSearcher(c.Archiver, c.Logger)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        searchToolName,
			Description: searchDescription,
		}, s.handleSearch)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        archiveToolName,
			Description: archiveDescription,
		}, s.handleArchive)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        retrieveToolName,
			Description: retrieveDescription,
		}, s.handleRetrieve)
	}

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// toolError builds an error result the calling model can read.
func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
