package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatvault/pkg/embeddings"
	"github.com/papercomputeco/chatvault/pkg/embeddings/ollama"
	"github.com/papercomputeco/chatvault/pkg/logger"
)

var _ = Describe("Embedder", func() {
	var (
		server   *httptest.Server
		received map[string]any
		status   int
		vectors  [][]float32
	)

	BeforeEach(func() {
		received = nil
		status = http.StatusOK
		vectors = [][]float32{{0.1, 0.2, 0.3}}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/api/embed"))
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())

			w.WriteHeader(status)
			if status == http.StatusOK {
				json.NewEncoder(w).Encode(map[string]any{"embeddings": vectors})
			} else {
				w.Write([]byte("model not loaded"))
			}
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("uses defaults when config is empty", func() {
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(e).NotTo(BeNil())
	})

	It("returns the first embedding", func() {
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL, Model: "all-minilm"}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		vec, err := e.Embed(context.Background(), "vector stores")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(Equal([]float32{0.1, 0.2, 0.3}))
		Expect(received["model"]).To(Equal("all-minilm"))
		Expect(received["input"]).To(Equal("vector stores"))
	})

	It("wraps non-200 responses with ErrEmbedding", func() {
		status = http.StatusInternalServerError
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(context.Background(), "x")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(err.Error()).To(ContainSubstring("model not loaded"))
	})

	It("fails when no embeddings are returned", func() {
		vectors = [][]float32{}
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(context.Background(), "x")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})

	It("rejects vectors of the wrong dimension", func() {
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL, Dimensions: 4}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(context.Background(), "x")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(err.Error()).To(ContainSubstring("expected 4 dimensions"))
	})
})
