package cliui_test

import (
	"bytes"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatvault/pkg/archive"
	"github.com/papercomputeco/chatvault/pkg/cas"
	"github.com/papercomputeco/chatvault/pkg/cliui"
)

var _ = Describe("cliui", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	Describe("FormatDuration", func() {
		It("formats sub-second durations in milliseconds", func() {
			Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
		})

		It("formats longer durations in seconds", func() {
			Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
		})
	})

	Describe("Mark", func() {
		It("returns distinct marks for success and failure", func() {
			Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
			Expect(cliui.Mark(errors.New("boom"))).To(Equal(cliui.FailMark))
		})
	})

	Describe("IsTerminal", func() {
		It("is false for in-memory buffers", func() {
			Expect(cliui.IsTerminal(buf)).To(BeFalse())
			Expect(cliui.ColorEnabled(buf)).To(BeFalse())
		})
	})

	Describe("Step", func() {
		It("writes a single plain line and returns fn's error", func() {
			err := cliui.Step(buf, "archiving", func() error { return errors.New("nope") })
			Expect(err).To(MatchError("nope"))
			Expect(buf.String()).To(ContainSubstring("✗ archiving"))
			Expect(buf.String()).NotTo(ContainSubstring("\x1b["))
			Expect(strings.Count(buf.String(), "\n")).To(Equal(1))
		})
	})

	Describe("RenderHits", func() {
		It("prints a notice when there are no hits", func() {
			cliui.RenderHits(buf, "q", nil)
			Expect(buf.String()).To(Equal("No results found.\n"))
		})

		It("prints ranked hits without escape codes", func() {
			cliui.RenderHits(buf, "vector search", []archive.SearchHit{
				{ID: "c1", Title: "Vector DB", Summary: "Embedding math", Source: "claude", ContentKey: "abc123def456", Score: 0.9},
				{ID: "c2", Source: "chatgpt", Score: 0.5},
			})

			out := buf.String()
			Expect(out).To(ContainSubstring(`"vector search"`))
			Expect(out).To(ContainSubstring("#1  score: 0.9000  Vector DB"))
			Expect(out).To(ContainSubstring("Embedding math"))
			Expect(out).To(ContainSubstring("c1 · claude · abc123def456"))
			Expect(out).To(ContainSubstring("#2  score: 0.5000  (untitled)"))
			Expect(out).NotTo(ContainSubstring("\x1b["))
		})

		It("truncates long summaries", func() {
			cliui.RenderHits(buf, "q", []archive.SearchHit{
				{ID: "c1", Summary: strings.Repeat("é", 200)},
			})
			Expect(buf.String()).To(ContainSubstring(strings.Repeat("é", 120) + "..."))
			Expect(buf.String()).NotTo(ContainSubstring(strings.Repeat("é", 121)))
		})
	})

	Describe("ConversationMarkdown", func() {
		It("renders a heading per turn", func() {
			md := cliui.ConversationMarkdown("Title", []cas.Turn{
				{Role: "user", Content: "hi", Timestamp: "t1"},
				{Role: "assistant", Content: " hello \n"},
			})
			Expect(md).To(Equal("# Title\n\n## user (t1)\n\nhi\n\n## assistant\n\nhello\n\n"))
		})
	})

	Describe("RenderConversation", func() {
		It("writes raw markdown to non-terminals", func() {
			turns := []cas.Turn{{Role: "user", Content: "hi"}}
			Expect(cliui.RenderConversation(buf, "", turns)).To(Succeed())
			Expect(buf.String()).To(Equal(cliui.ConversationMarkdown("", turns)))
		})
	})

	Describe("RenderHistory", func() {
		It("prints one line per record", func() {
			cliui.RenderHistory(buf, []*archive.MetadataRecord{
				{ArchiveID: "a1", Title: "one", MessageCount: 2, TokenCount: 7},
				{ArchiveID: "a2", Title: "two"},
			})
			Expect(strings.Count(buf.String(), "\n")).To(Equal(2))
			Expect(buf.String()).To(ContainSubstring("2 messages, 7 tokens"))
		})
	})
})
