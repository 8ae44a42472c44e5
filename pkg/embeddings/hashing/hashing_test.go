package hashing_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatvault/pkg/embeddings"
	"github.com/papercomputeco/chatvault/pkg/embeddings/hashing"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

var _ = Describe("Embedder", func() {
	var (
		ctx context.Context
		e   *hashing.Embedder
	)

	BeforeEach(func() {
		ctx = context.Background()
		e = hashing.NewEmbedder(64)
	})

	It("defaults the dimension", func() {
		Expect(hashing.NewEmbedder(0).Dimensions()).To(Equal(hashing.DefaultDimensions))
	})

	It("produces fixed size unit vectors", func() {
		vec, err := e.Embed(ctx, "How do I implement a vector store?")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(HaveLen(64))

		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		Expect(math.Sqrt(norm)).To(BeNumerically("~", 1, 1e-5))
	})

	It("is deterministic and case-insensitive", func() {
		a, err := e.Embed(ctx, "Vector Store")
		Expect(err).NotTo(HaveOccurred())
		b, err := e.Embed(ctx, "vector store")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))
	})

	It("scores shared vocabulary above unrelated text", func() {
		wide := hashing.NewEmbedder(4096)
		query, _ := wide.Embed(ctx, "embedding model database")
		related, _ := wide.Embed(ctx, "choose an embedding model and a database")
		unrelated, _ := wide.Embed(ctx, "sourdough bread recipe")

		Expect(cosine(query, related)).To(BeNumerically(">", cosine(query, unrelated)))
	})

	It("returns the zero vector for empty text", func() {
		vec, err := e.Embed(ctx, "  ")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(HaveEach(BeZero()))
	})

	It("fails on a cancelled context", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := e.Embed(cctx, "x")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})
})
