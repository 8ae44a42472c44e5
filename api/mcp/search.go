package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/chatvault/api/search"
)

var (
	searchToolName    = "search_archive"
	searchDescription = "Search archived chat conversations using semantic search. Returns the most relevant conversations for the query text with their title, summary, source platform and a reference that retrieve_conversation accepts."
)

// handleSearch processes a search request.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input search.Input) (*mcp.CallToolResult, search.Output, error) {
	logger := s.config.Logger

	output, err := s.searcher.Search(ctx, input)
	if err != nil {
		logger.Error("MCP search failed", "error", err)
		return toolError(fmt.Sprintf("Search failed: %v", err)), search.Output{}, nil
	}

	// Serialize the structured output as JSON for the text field
	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal search output", "error", err)
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), search.Output{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, *output, nil
}
