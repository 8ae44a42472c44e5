package ingest_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatvault/api/ingest"
	"github.com/papercomputeco/chatvault/pkg/archive"
	"github.com/papercomputeco/chatvault/pkg/cas"
	"github.com/papercomputeco/chatvault/pkg/cas/inmemory"
	"github.com/papercomputeco/chatvault/pkg/embeddings/hashing"
	"github.com/papercomputeco/chatvault/pkg/logger"
	testutils "github.com/papercomputeco/chatvault/pkg/utils/test"
	vectorinmemory "github.com/papercomputeco/chatvault/pkg/vector/inmemory"
)

var _ = Describe("Archive", func() {
	var (
		archiver *archive.Archiver
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		archiver, err = archive.NewArchiver(archive.Config{
			Store:        inmemory.NewStore(),
			Embedder:     hashing.NewEmbedder(64),
			VectorDriver: vectorinmemory.NewDriver(),
			Logger:       logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("archives every valid conversation and reports failures", func() {
		good := archive.Conversation{
			ID:     "c1",
			Title:  "First",
			Source: "claude",
			Turns:  []cas.Turn{testutils.NewTestTurn("user", "hello there")},
		}
		bad := archive.Conversation{ID: "c2"}

		out := ingest.Archive(ctx, archiver, []archive.Conversation{good, bad}, logger.Nop())
		Expect(out.Count).To(Equal(1))
		Expect(out.Archived).To(HaveLen(1))
		Expect(out.Archived[0].ID).To(Equal("c1"))
		Expect(out.Archived[0].Title).To(Equal("First"))
		Expect(out.Archived[0].ContentKey).To(HaveLen(12))
		Expect(out.Archived[0].MessageCount).To(Equal(1))

		Expect(out.Failed).To(HaveLen(1))
		Expect(out.Failed[0].ID).To(Equal("c2"))
		Expect(out.Failed[0].Kind).To(Equal("InvalidInput"))
		Expect(errors.Is(out.FirstError(), archive.ErrInvalidInput)).To(BeTrue())
	})

	It("returns empty slices for an empty batch", func() {
		out := ingest.Archive(ctx, archiver, nil, logger.Nop())
		Expect(out.Archived).NotTo(BeNil())
		Expect(out.Failed).NotTo(BeNil())
		Expect(out.Count).To(BeZero())
		Expect(out.FirstError()).To(BeNil())
	})
})
