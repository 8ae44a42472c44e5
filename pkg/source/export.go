// Package source reads conversations exported from chat platforms and hands
// them to the archiver.
//
// Exports use the scraper's JSON shape:
//
//	{
//	  "id": "...",
//	  "title": "...",
//	  "messages": [{"role": "user", "content": "...", "timestamp": "..."}],
//	  "metadata": {"source": "claude", "scraped_at": "2025-02-08T12:00:00Z"}
//	}
//
// A file may hold a single export object or an array of them.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/papercomputeco/chatvault/pkg/archive"
	"github.com/papercomputeco/chatvault/pkg/cas"
)

var (
	// ErrMissingID is returned for an export without a conversation id.
	ErrMissingID = errors.New("export has no conversation id")

	// ErrMissingSource is returned when neither the export nor the reader
	// supplies a source tag.
	ErrMissingSource = errors.New("export has no source")

	// ErrUnknownPlatform is returned for a source tag not in the configured
	// platforms.
	ErrUnknownPlatform = errors.New("unknown platform")
)

// unknownRole is assigned to messages exported without a role.
const unknownRole = "unknown"

// Export is one conversation in the scraper's JSON shape.
type Export struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Messages []cas.Turn     `json:"messages"`
	Metadata ExportMetadata `json:"metadata"`
}

// ExportMetadata is the provenance block of an Export.
type ExportMetadata struct {
	Source    string `json:"source"`
	ScrapedAt string `json:"scraped_at"`
}

// Reader decodes exports into conversations.
type Reader struct {
	// Platforms validates source tags. Empty accepts any tag.
	Platforms Platforms

	// DefaultSource is used for exports that carry no source tag.
	DefaultSource string
}

// Decode reads every export in r, which holds either one export object or an
// array of them.
func (rd *Reader) Decode(r io.Reader) ([]archive.Conversation, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		return nil, err
	}

	var exports []Export
	dec := json.NewDecoder(br)
	switch first {
	case '[':
		if err := dec.Decode(&exports); err != nil {
			return nil, fmt.Errorf("decoding export array: %w", err)
		}
	case '{':
		var e Export
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("decoding export: %w", err)
		}
		exports = []Export{e}
	default:
		return nil, fmt.Errorf("decoding export: unexpected %q, want an object or array", first)
	}

	convs := make([]archive.Conversation, 0, len(exports))
	for i, e := range exports {
		conv, err := rd.Convert(e)
		if err != nil {
			return nil, fmt.Errorf("export %d: %w", i, err)
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

// ReadFile decodes the exports stored in the file at path.
func (rd *Reader) ReadFile(path string) ([]archive.Conversation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	return rd.Decode(f)
}

// Convert validates an export and turns it into a conversation.
func (rd *Reader) Convert(e Export) (archive.Conversation, error) {
	if e.ID == "" {
		return archive.Conversation{}, ErrMissingID
	}

	tag := e.Metadata.Source
	if tag == "" {
		tag = rd.DefaultSource
	}
	src, err := rd.Platforms.Resolve(tag)
	if err != nil {
		return archive.Conversation{}, err
	}

	turns := make([]cas.Turn, len(e.Messages))
	for i, m := range e.Messages {
		if m.Role == "" {
			m.Role = unknownRole
		}
		turns[i] = m
	}

	return archive.Conversation{
		ID:        e.ID,
		Title:     e.Title,
		Turns:     turns,
		Source:    src,
		ScrapedAt: e.Metadata.ScrapedAt,
	}, nil
}

// peekNonSpace returns the first non-whitespace byte without consuming it.
func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, errors.New("decoding export: empty input")
			}
			return 0, err
		}
		if !bytes.ContainsRune([]byte(" \t\r\n"), rune(b)) {
			return b, br.UnreadByte()
		}
	}
}
