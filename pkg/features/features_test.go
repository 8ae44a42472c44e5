package features_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatvault/pkg/cas"
	"github.com/papercomputeco/chatvault/pkg/features"
)

func turnsOf(contents ...string) []cas.Turn {
	turns := make([]cas.Turn, len(contents))
	for i, c := range contents {
		turns[i] = cas.Turn{Role: "user", Content: c}
	}
	return turns
}

var _ = Describe("Summary", func() {
	It("returns an empty summary for no turns", func() {
		Expect(features.Summary(nil)).To(BeEmpty())
	})

	It("returns an empty summary for empty content", func() {
		Expect(features.Summary(turnsOf("", ""))).To(BeEmpty())
	})

	It("returns a short plain turn unchanged", func() {
		Expect(features.Summary(turnsOf("hello there"))).To(Equal("hello there"))
	})

	It("keeps the three highest scoring units", func() {
		summary := features.Summary(turnsOf(
			"Nice weather. The function returns 42. This is the main point. Plain words",
		))
		Expect(summary).To(Equal("The function returns 42. This is the main point. Nice weather"))
	})

	It("breaks ties by original order", func() {
		summary := features.Summary(turnsOf("alpha. beta", "gamma. delta"))
		Expect(summary).To(Equal("alpha. beta. gamma"))
	})

	It("matches code keywords case-insensitively", func() {
		summary := features.Summary(turnsOf("plain. A CLASS here"))
		Expect(strings.HasPrefix(summary, "A CLASS here")).To(BeTrue())
	})
})

var _ = Describe("ScoreSentence", func() {
	DescribeTable("scores units",
		func(s string, want int) {
			Expect(features.ScoreSentence(s)).To(Equal(want))
		},
		Entry("plain", "hello", 0),
		Entry("long", strings.Repeat("a", 51), 1),
		Entry("exactly fifty", strings.Repeat("a", 50), 0),
		Entry("code keyword", "write some Code", 2),
		Entry("digit", "version 2", 1),
		Entry("emphasis", "the KEY idea", 1),
		Entry("everything", "The important function 7 "+strings.Repeat("x", 40), 5),
	)
})

var _ = Describe("Topics", func() {
	It("never returns more than five topics", func() {
		topics := features.Topics(turnsOf("a b c d e f g h i j k"))
		Expect(len(topics)).To(BeNumerically("<=", features.MaxTopics))
	})

	It("orders by frequency then first occurrence", func() {
		topics := features.Topics(turnsOf("Go go rust. zig, zig; ZIG python", "java rust"))
		Expect(topics).To(Equal([]string{"zig", "go", "rust", "python", "java"}))
	})

	It("ignores punctuation at the edges", func() {
		Expect(features.Topics(turnsOf("...hello!"))).To(Equal([]string{"hello"}))
	})

	It("returns an empty list for whitespace", func() {
		Expect(features.Topics(turnsOf("   \n\t"))).To(BeEmpty())
	})
})

var _ = Describe("KeyPoints", func() {
	It("extracts bullets and numbered items across turns", func() {
		points := features.KeyPoints(turnsOf(
			"Steps:\n- first\n* second",
			"1. Choose an embedding model\n2. Set up a database\n• last one",
		))
		Expect(points).To(Equal([]string{
			"first", "second", "Choose an embedding model", "Set up a database", "last one",
		}))
	})

	It("ignores numbers that are not list markers", func() {
		Expect(features.KeyPoints(turnsOf("version 1.2 shipped"))).To(BeEmpty())
	})

	It("never returns more than ten points", func() {
		var b strings.Builder
		for range 15 {
			b.WriteString("- item\n")
		}
		Expect(features.KeyPoints(turnsOf(b.String()))).To(HaveLen(features.MaxKeyPoints))
	})

	It("returns an empty list for empty content", func() {
		Expect(features.KeyPoints(nil)).To(BeEmpty())
	})
})

var _ = Describe("TokenCount", func() {
	It("counts whitespace separated fields across turns", func() {
		Expect(features.TokenCount(turnsOf("one two", "  three\nfour  "))).To(Equal(4))
	})

	It("returns zero for whitespace only content", func() {
		Expect(features.TokenCount(turnsOf(" ", "\n"))).To(Equal(0))
	})
})

var _ = Describe("Extract", func() {
	It("joins every derivation", func() {
		turns := []cas.Turn{
			{Role: "user", Content: "How do I implement a vector store?"},
			{Role: "assistant", Content: "1. Choose an embedding model\n2. Set up a database"},
		}

		set, err := features.Extract(context.Background(), turns)
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Summary).NotTo(BeEmpty())
		Expect(set.Topics).NotTo(BeEmpty())
		Expect(set.KeyPoints).To(Equal([]string{"Choose an embedding model", "Set up a database"}))
		Expect(set.TokenCount).To(Equal(17))
	})

	It("returns the context error when cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := features.Extract(ctx, turnsOf("hi"))
		Expect(err).To(MatchError(context.Canceled))
	})
})
