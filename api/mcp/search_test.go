package mcp

import (
	"context"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatvault/api/search"
	"github.com/papercomputeco/chatvault/pkg/archive"
	casinmemory "github.com/papercomputeco/chatvault/pkg/cas/inmemory"
	"github.com/papercomputeco/chatvault/pkg/embeddings/hashing"
	"github.com/papercomputeco/chatvault/pkg/logger"
	"github.com/papercomputeco/chatvault/pkg/source"
	vectorinmemory "github.com/papercomputeco/chatvault/pkg/vector/inmemory"
)

func textOf(result *gomcp.CallToolResult) string {
	Expect(result.Content).To(HaveLen(1))
	text, ok := result.Content[0].(*gomcp.TextContent)
	Expect(ok).To(BeTrue())
	return text.Text
}

var _ = Describe("tools", func() {
	var (
		server *Server
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()

		archiver, err := archive.NewArchiver(archive.Config{
			Store:        casinmemory.NewStore(),
			Embedder:     hashing.NewEmbedder(128),
			VectorDriver: vectorinmemory.NewDriver(),
			Logger:       logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{
			Archiver: archiver,
			Reader:   &source.Reader{Platforms: source.DefaultPlatforms()},
			Logger:   logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	archiveOne := func() string {
		result, out, err := server.handleArchive(ctx, nil, ArchiveInput{
			Conversations: []ConversationInput{{
				ID:     "c1",
				Title:  "Goroutines",
				Source: "claude",
				Messages: []Message{
					{Role: "user", Content: "How do goroutines and channels work?"},
					{Role: "assistant", Content: "Goroutines are lightweight threads. Channels connect them."},
				},
			}},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeFalse())
		Expect(out.Count).To(Equal(1))
		return out.Archived[0].ContentKey
	}

	Describe("archive_conversations", func() {
		It("archives conversations and reports the content key", func() {
			key := archiveOne()
			Expect(key).To(HaveLen(12))
		})

		It("reports conversations with unknown platforms without archiving them", func() {
			result, out, err := server.handleArchive(ctx, nil, ArchiveInput{
				Conversations: []ConversationInput{{ID: "c2", Source: "friendster"}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(out.Count).To(BeZero())
			Expect(out.Failed).To(HaveLen(1))
			Expect(out.Failed[0].ID).To(Equal("c2"))
			Expect(out.Failed[0].Kind).To(Equal("InvalidInput"))
		})

		It("rejects an empty request", func() {
			result, _, err := server.handleArchive(ctx, nil, ArchiveInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(textOf(result)).To(ContainSubstring("at least one conversation"))
		})
	})

	Describe("search_archive", func() {
		It("finds archived conversations", func() {
			archiveOne()

			result, out, err := server.handleSearch(ctx, nil, search.Input{Query: "goroutines channels"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(out.Count).To(Equal(1))
			Expect(out.Results[0].ID).To(Equal("c1"))
			Expect(out.Results[0].Title).To(Equal("Goroutines"))
			Expect(textOf(result)).To(ContainSubstring(`"id":"c1"`))
		})

		It("returns a tool error for a blank query", func() {
			result, _, err := server.handleSearch(ctx, nil, search.Input{Query: " "})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(textOf(result)).To(ContainSubstring("query is required"))
		})
	})

	Describe("retrieve_conversation", func() {
		It("returns archived turns by content key", func() {
			key := archiveOne()

			result, out, err := server.handleRetrieve(ctx, nil, RetrieveInput{Reference: key})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(out.Count).To(Equal(2))
			Expect(out.Messages[0].Role).To(Equal("user"))
		})

		It("returns a tool error for an unknown reference", func() {
			result, _, err := server.handleRetrieve(ctx, nil, RetrieveInput{Reference: "ffffffffffff"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(textOf(result)).To(ContainSubstring("not found"))
		})

		It("requires a reference", func() {
			result, _, err := server.handleRetrieve(ctx, nil, RetrieveInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})
})
