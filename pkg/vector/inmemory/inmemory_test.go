package inmemory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatvault/pkg/vector"
	"github.com/papercomputeco/chatvault/pkg/vector/inmemory"
)

var _ = Describe("Driver", func() {
	var (
		ctx    context.Context
		driver *inmemory.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()

		Expect(driver.Store(ctx, []vector.Entry{
			{ID: "x", Values: []float32{1, 0}, Metadata: map[string]string{"source": "claude"}},
			{ID: "y", Values: []float32{0, 1}, Metadata: map[string]string{"source": "chatgpt"}},
			{ID: "xy", Values: []float32{1, 1}, Metadata: map[string]string{"source": "claude"}, Namespace: "ns"},
		})).To(Succeed())
	})

	It("ranks by cosine similarity", func() {
		results, err := driver.Search(ctx, vector.SearchParams{Vector: []float32{1, 0.1}})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		Expect(results[0].ID).To(Equal("x"))
		Expect(results[1].ID).To(Equal("xy"))
		Expect(results[2].ID).To(Equal("y"))
	})

	It("respects TopK", func() {
		results, err := driver.Search(ctx, vector.SearchParams{Vector: []float32{1, 0}, TopK: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
	})

	It("applies filters and namespaces", func() {
		results, err := driver.Search(ctx, vector.SearchParams{
			Vector: []float32{0, 1},
			Filter: map[string]string{"source": "claude"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))

		results, err = driver.Search(ctx, vector.SearchParams{Vector: []float32{0, 1}, Namespace: "ns"})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].ID).To(Equal("xy"))
	})

	It("keys entries by ID alone across namespaces", func() {
		Expect(driver.Store(ctx, []vector.Entry{{ID: "xy", Values: []float32{1, 0}, Namespace: "other"}})).To(Succeed())
		Expect(driver.Len()).To(Equal(3))

		results, err := driver.Search(ctx, vector.SearchParams{Vector: []float32{1, 0}, Namespace: "ns"})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())

		results, err = driver.Search(ctx, vector.SearchParams{Vector: []float32{1, 0}, Namespace: "other"})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].ID).To(Equal("xy"))
	})

	It("upserts and deletes", func() {
		Expect(driver.Store(ctx, []vector.Entry{{ID: "x", Values: []float32{0, 1}}})).To(Succeed())
		Expect(driver.Len()).To(Equal(3))

		Expect(driver.Delete(ctx, []string{"x", "missing"})).To(Succeed())
		Expect(driver.Len()).To(Equal(2))
	})

	It("merges metadata and reports missing entries", func() {
		Expect(driver.UpdateMetadata(ctx, "x", map[string]string{"title": "T"})).To(Succeed())

		got, err := driver.Get(ctx, []string{"x"})
		Expect(err).NotTo(HaveOccurred())
		Expect(got[0].Metadata).To(Equal(map[string]string{"source": "claude", "title": "T"}))

		Expect(driver.UpdateMetadata(ctx, "nope", nil)).To(MatchError(vector.ErrNotFound))
	})

	It("returns copies", func() {
		got, _ := driver.Get(ctx, []string{"x"})
		got[0].Metadata["source"] = "mutated"

		again, _ := driver.Get(ctx, []string{"x"})
		Expect(again[0].Metadata["source"]).To(Equal("claude"))
	})

	It("computes cosine similarity", func() {
		Expect(inmemory.Cosine([]float32{1, 0}, []float32{1, 0})).To(BeNumerically("~", 1, 1e-6))
		Expect(inmemory.Cosine([]float32{1, 0}, []float32{0, 1})).To(BeNumerically("~", 0, 1e-6))
		Expect(inmemory.Cosine([]float32{0, 0}, []float32{0, 1})).To(BeZero())
		Expect(inmemory.Cosine([]float32{1}, []float32{0, 1})).To(BeZero())
	})
})
