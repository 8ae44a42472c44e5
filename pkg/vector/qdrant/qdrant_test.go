package qdrant_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatvault/pkg/logger"
	"github.com/papercomputeco/chatvault/pkg/vector"
	"github.com/papercomputeco/chatvault/pkg/vector/qdrant"
)

var _ = Describe("Driver", func() {
	Describe("NewDriver", func() {
		It("requires a target", func() {
			_, err := qdrant.NewDriver(context.Background(), qdrant.Config{}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("qdrant target is required")))
		})

		It("rejects a malformed port", func() {
			_, err := qdrant.NewDriver(context.Background(), qdrant.Config{Target: "localhost:grpc"}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("invalid qdrant port")))
		})
	})

	Describe("PointID", func() {
		It("maps entry ids to stable UUIDs", func() {
			a := qdrant.PointID("c1")
			Expect(qdrant.PointID("c1")).To(Equal(a))
			Expect(qdrant.PointID("c2")).NotTo(Equal(a))

			_, err := uuid.Parse(a)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Interface compliance", func() {
		It("implements vector.Driver", func() {
			var _ vector.Driver = (*qdrant.Driver)(nil)
		})
	})
})
