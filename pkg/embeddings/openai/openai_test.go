package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatvault/pkg/embeddings"
	"github.com/papercomputeco/chatvault/pkg/embeddings/openai"
	"github.com/papercomputeco/chatvault/pkg/logger"
)

var _ = Describe("Embedder", func() {
	var (
		server   *httptest.Server
		received map[string]any
		fail     bool
	)

	BeforeEach(func() {
		received = nil
		fail = false

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/embeddings"))
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer sk-test"))
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())

			w.Header().Set("Content-Type", "application/json")
			if fail {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
				return
			}
			w.Write([]byte(`{
				"object": "list",
				"data": [{"object": "embedding", "index": 0, "embedding": [0.5, -0.5]}],
				"model": "text-embedding-3-small",
				"usage": {"prompt_tokens": 2, "total_tokens": 2}
			}`))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("requires an API key", func() {
		_, err := openai.NewEmbedder(openai.EmbedderConfig{}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	It("returns the embedding from the API", func() {
		e, err := openai.NewEmbedder(openai.EmbedderConfig{APIKey: "sk-test", BaseURL: server.URL}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		vec, err := e.Embed(context.Background(), "hello world")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(Equal([]float32{0.5, -0.5}))
		Expect(received["model"]).To(Equal(string(openai.DefaultEmbeddingModel)))
		Expect(received["input"]).To(ConsistOf("hello world"))
	})

	It("wraps API errors with ErrEmbedding", func() {
		fail = true
		e, err := openai.NewEmbedder(openai.EmbedderConfig{APIKey: "sk-test", BaseURL: server.URL}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(context.Background(), "hello")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})

	Context("when the API stalls", func() {
		var (
			stalled *httptest.Server
			release chan struct{}
		)

		BeforeEach(func() {
			release = make(chan struct{})
			stalled = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				<-release
			}))
		})

		AfterEach(func() {
			close(release)
			stalled.Close()
		})

		It("gives up after the configured timeout", func() {
			e, err := openai.NewEmbedder(openai.EmbedderConfig{
				APIKey:  "sk-test",
				BaseURL: stalled.URL,
				Timeout: 50 * time.Millisecond,
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())

			start := time.Now()
			_, err = e.Embed(context.Background(), "hello")
			Expect(err).To(MatchError(embeddings.ErrEmbedding))
			Expect(time.Since(start)).To(BeNumerically("<", 5*time.Second))
		})
	})
})
