package archive

import (
	"github.com/papercomputeco/chatvault/pkg/cas"
	"github.com/papercomputeco/chatvault/pkg/records"
)

// Vector entry metadata keys written by Archive and read back by search.
const (
	MetaTitle         = "title"
	MetaSummary       = "summary"
	MetaSource        = "source"
	MetaReferencePath = "reference_path"
	MetaContentKey    = "content_key"
)

// DefaultSearchLimit is used when a search asks for a non-positive limit.
const DefaultSearchLimit = 5

// Conversation is one raw conversation as delivered by a source.
type Conversation struct {
	// ID is the platform-scoped conversation id.
	ID string `json:"id"`
	// Title is the human-readable conversation title.
	Title string `json:"title"`
	// Turns is the ordered message sequence. It may be empty.
	Turns []cas.Turn `json:"messages"`
	// Source is the platform tag, e.g. "claude" or "chatgpt".
	Source string `json:"source"`
	// ScrapedAt is the source-reported scrape time, kept verbatim.
	ScrapedAt string `json:"scraped_at"`
}

// MetadataRecord is the durable, searchable summary of one archived conversation.
type MetadataRecord = records.Record

// SearchHit is what a similarity search can reconstruct from the vector index.
// It deliberately omits topics, key points and token counts: those live only in
// the MetadataRecord.
type SearchHit struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	Source        string    `json:"source"`
	ReferencePath string    `json:"reference_path"`
	ContentKey    string    `json:"content_key"`
	Score         float32   `json:"score"`
	Embedding     []float32 `json:"embedding,omitempty"`
}

// SearchQuery describes a similarity search.
type SearchQuery struct {
	// Text is embedded and used as the query vector.
	Text string
	// Limit bounds the number of hits. Non-positive selects DefaultSearchLimit.
	Limit int
	// Source keeps only hits from this platform when set.
	Source string
}
