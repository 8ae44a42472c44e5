package mcp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatvault/api/mcp"
	"github.com/papercomputeco/chatvault/pkg/archive"
	casinmemory "github.com/papercomputeco/chatvault/pkg/cas/inmemory"
	"github.com/papercomputeco/chatvault/pkg/logger"
	testutils "github.com/papercomputeco/chatvault/pkg/utils/test"
)

var _ = Describe("MCP Server", func() {
	var (
		server   *mcp.Server
		archiver *archive.Archiver
	)

	BeforeEach(func() {
		var err error
		archiver, err = archive.NewArchiver(archive.Config{
			Store:        casinmemory.NewStore(),
			Embedder:     testutils.NewMockEmbedder(),
			VectorDriver: testutils.NewMockVectorDriver(),
			Logger:       logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())

		server, err = mcp.NewServer(mcp.Config{
			Archiver: archiver,
			Logger:   logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when archiver is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Logger: logger.Nop(),
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("archiver is required"))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Archiver: archiver,
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("creates a server with valid config", func() {
			Expect(server).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			handler := server.Handler()
			Expect(handler).NotTo(BeNil())
		})

		It("creates an empty server when noop is set", func() {
			noop, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(noop.Handler()).NotTo(BeNil())
		})
	})
})
