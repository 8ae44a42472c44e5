package searchcmder_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apisearch "github.com/papercomputeco/chatvault/api/search"
	searchcmder "github.com/papercomputeco/chatvault/cmd/chatvault/search"
	"github.com/papercomputeco/chatvault/pkg/archive"
)

var _ = Describe("SearchAPI", func() {
	It("sends the query parameters and parses the response", func() {
		var got *http.Request
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r
			_ = json.NewEncoder(w).Encode(apisearch.Output{
				Query: "rust",
				Results: []archive.SearchHit{
					{ID: "conv-1", Title: "Rust lifetimes", ReferencePath: "content/ab/cd/abcd", Score: 0.9},
				},
				Count: 1,
			})
		}))
		defer server.Close()

		out, err := searchcmder.SearchAPI(context.Background(), server.URL, apisearch.Input{
			Query:  "rust",
			TopK:   3,
			Source: "claude",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Count).To(Equal(1))
		Expect(out.Results[0].ReferencePath).To(Equal("content/ab/cd/abcd"))

		Expect(got.URL.Path).To(Equal("/v1/search"))
		Expect(got.URL.Query().Get("query")).To(Equal("rust"))
		Expect(got.URL.Query().Get("top_k")).To(Equal("3"))
		Expect(got.URL.Query().Get("source")).To(Equal("claude"))
	})

	It("surfaces non-200 responses", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"query parameter is required"}`))
		}))
		defer server.Close()

		_, err := searchcmder.SearchAPI(context.Background(), server.URL, apisearch.Input{Query: " "})
		Expect(err).To(MatchError(ContainSubstring("HTTP 400")))
	})

	It("reports unreachable servers", func() {
		_, err := searchcmder.SearchAPI(context.Background(), "http://127.0.0.1:1", apisearch.Input{Query: "rust"})
		Expect(err).To(MatchError(ContainSubstring("failed to connect to chatvault API")))
	})

	It("has top, source, quiet and remote flags", func() {
		cmd := searchcmder.NewSearchCmd()
		Expect(cmd.Flags().Lookup("top").Shorthand).To(Equal("k"))
		Expect(cmd.Flags().Lookup("source")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("quiet")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("remote")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("api-target").DefValue).To(Equal("http://localhost:8081"))
	})
})
