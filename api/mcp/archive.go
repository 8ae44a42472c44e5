package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/chatvault/api/ingest"
	"github.com/papercomputeco/chatvault/pkg/archive"
	"github.com/papercomputeco/chatvault/pkg/cas"
	"github.com/papercomputeco/chatvault/pkg/source"
)

var (
	archiveToolName    = "archive_conversations"
	archiveDescription = "Archive one or more chat conversations. Each conversation is stored by content, summarized, and indexed for semantic search. Re-archiving identical messages reuses the stored content."

	retrieveToolName    = "retrieve_conversation"
	retrieveDescription = "Retrieve the full messages of an archived conversation by its content key or reference path, as returned by search_archive."
)

// Message is one turn of a conversation passed to the archive tool.
type Message struct {
	Role      string `json:"role" jsonschema:"speaker role, e.g. user or assistant"`
	Content   string `json:"content" jsonschema:"message text"`
	Timestamp string `json:"timestamp,omitempty" jsonschema:"when the message was sent"`
}

// ConversationInput is a conversation passed to the archive tool.
type ConversationInput struct {
	ID        string    `json:"id" jsonschema:"stable conversation identifier on its platform"`
	Title     string    `json:"title,omitempty" jsonschema:"conversation title"`
	Source    string    `json:"source" jsonschema:"platform the conversation came from, e.g. claude or chatgpt"`
	ScrapedAt string    `json:"scraped_at,omitempty" jsonschema:"when the conversation was captured"`
	Messages  []Message `json:"messages" jsonschema:"ordered conversation turns"`
}

// ArchiveInput represents the input arguments for the archive tool.
type ArchiveInput struct {
	Conversations []ConversationInput `json:"conversations" jsonschema:"conversations to archive"`
}

// RetrieveInput represents the input arguments for the retrieve tool.
type RetrieveInput struct {
	Reference string `json:"reference" jsonschema:"content key or reference path of an archived conversation"`
}

// RetrieveOutput carries the archived turns.
type RetrieveOutput struct {
	Reference string     `json:"reference"`
	Messages  []cas.Turn `json:"messages"`
	Count     int        `json:"count"`
}

func (c ConversationInput) export() source.Export {
	turns := make([]cas.Turn, len(c.Messages))
	for i, m := range c.Messages {
		turns[i] = cas.Turn{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp}
	}
	return source.Export{
		ID:       c.ID,
		Title:    c.Title,
		Messages: turns,
		Metadata: source.ExportMetadata{
			Source:    c.Source,
			ScrapedAt: c.ScrapedAt,
		},
	}
}

// handleArchive archives every conversation in the request. Conversations
// that fail validation are reported in the output instead of failing the call.
func (s *Server) handleArchive(ctx context.Context, _ *mcp.CallToolRequest, input ArchiveInput) (*mcp.CallToolResult, ingest.Output, error) {
	if len(input.Conversations) == 0 {
		return toolError("at least one conversation is required"), ingest.Output{}, nil
	}

	var rejected []ingest.Failure
	convs := make([]archive.Conversation, 0, len(input.Conversations))
	for _, ci := range input.Conversations {
		conv, err := s.config.Reader.Convert(ci.export())
		if err != nil {
			rejected = append(rejected, ingest.Failure{
				ID:    ci.ID,
				Kind:  "InvalidInput",
				Error: err.Error(),
			})
			continue
		}
		convs = append(convs, conv)
	}

	output := ingest.Archive(ctx, s.config.Archiver, convs, s.config.Logger)
	output.Failed = append(output.Failed, rejected...)

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), ingest.Output{}, nil
	}

	return &mcp.CallToolResult{
		IsError: output.Count == 0,
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, *output, nil
}

// handleRetrieve returns the archived turns behind a reference.
func (s *Server) handleRetrieve(ctx context.Context, _ *mcp.CallToolRequest, input RetrieveInput) (*mcp.CallToolResult, RetrieveOutput, error) {
	if input.Reference == "" {
		return toolError("reference is required"), RetrieveOutput{}, nil
	}

	turns, err := s.config.Archiver.RetrieveByReference(ctx, input.Reference)
	if err != nil {
		return toolError(fmt.Sprintf("Retrieve failed: %v", err)), RetrieveOutput{}, nil
	}

	output := RetrieveOutput{
		Reference: input.Reference,
		Messages:  turns,
		Count:     len(turns),
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), RetrieveOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
