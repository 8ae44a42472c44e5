// Package ingest archives batches of decoded conversations and reports
// per-conversation outcomes. It is shared by the REST API and the MCP server.
package ingest

import (
	"context"
	"log/slog"

	"github.com/papercomputeco/chatvault/pkg/archive"
)

// Archiver archives a single conversation.
type Archiver interface {
	Archive(ctx context.Context, conv archive.Conversation) (*archive.MetadataRecord, error)
}

// Result describes one archived conversation.
type Result struct {
	ID            string `json:"id"`
	ArchiveID     string `json:"archive_id"`
	Title         string `json:"title"`
	ContentKey    string `json:"content_key"`
	ReferencePath string `json:"reference_path"`
	MessageCount  int    `json:"message_count"`
	TokenCount    int    `json:"token_count"`
}

// Failure describes one conversation that could not be archived.
type Failure struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Output is the outcome of a batch.
type Output struct {
	Archived []Result  `json:"archived"`
	Failed   []Failure `json:"failed"`
	Count    int       `json:"count"`

	errs []error
}

// FirstError returns the error behind the first failure, or nil.
func (o *Output) FirstError() error {
	if o == nil || len(o.errs) == 0 {
		return nil
	}
	return o.errs[0]
}

// Archive archives convs in order. A failure never stops the batch.
func Archive(ctx context.Context, a Archiver, convs []archive.Conversation, logger *slog.Logger) *Output {
	out := &Output{
		Archived: []Result{},
		Failed:   []Failure{},
	}

	for _, conv := range convs {
		rec, err := a.Archive(ctx, conv)
		if err != nil {
			logger.Warn("archive failed",
				"id", conv.ID,
				"source", conv.Source,
				"error", err,
			)
			out.Failed = append(out.Failed, Failure{
				ID:    conv.ID,
				Kind:  archive.KindName(err),
				Error: err.Error(),
			})
			out.errs = append(out.errs, err)
			continue
		}
		out.Archived = append(out.Archived, ResultFromRecord(rec))
	}

	out.Count = len(out.Archived)
	return out
}

// ResultFromRecord summarizes an archived record.
func ResultFromRecord(rec *archive.MetadataRecord) Result {
	return Result{
		ID:            rec.ID,
		ArchiveID:     rec.ArchiveID,
		Title:         rec.Title,
		ContentKey:    rec.ContentKey,
		ReferencePath: rec.ReferencePath,
		MessageCount:  rec.MessageCount,
		TokenCount:    rec.TokenCount,
	}
}
