package metrics_test

import (
	"io"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/papercomputeco/chatvault/pkg/metrics"
)

var _ = Describe("Metrics", func() {
	It("counts archives and tokens", func() {
		m := metrics.New()
		m.RecordArchive("claude", metrics.StatusSuccess, 10*time.Millisecond, 17, true)
		m.RecordArchive("claude", metrics.StatusError, time.Millisecond, 5, false)

		Expect(testutil.ToFloat64(m.ArchivesTotal.WithLabelValues("claude", metrics.StatusSuccess))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.ArchivesTotal.WithLabelValues("claude", metrics.StatusError))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.TokensArchivedTotal)).To(Equal(17.0))
		Expect(testutil.ToFloat64(m.ContentDedupTotal)).To(Equal(1.0))
	})

	It("counts failures by kind", func() {
		m := metrics.New()
		m.RecordFailure("EmbeddingFailure")
		m.RecordFailure("EmbeddingFailure")
		Expect(testutil.ToFloat64(m.ArchiveFailuresTotal.WithLabelValues("EmbeddingFailure"))).To(Equal(2.0))
	})

	It("is safe on a nil receiver", func() {
		var m *metrics.Metrics
		Expect(func() {
			m.RecordArchive("claude", metrics.StatusSuccess, 0, 0, false)
			m.RecordFailure("x")
			m.RecordSearch(metrics.StatusSuccess, 1, 0)
			m.RecordJob(metrics.StatusDropped)
			m.SetQueueDepth(3)
		}).NotTo(Panic())
	})

	It("serves the exposition format", func() {
		m := metrics.New()
		m.RecordSearch(metrics.StatusSuccess, 3, time.Millisecond)

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

		body, err := io.ReadAll(rec.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring("chatvault_searches_total"))
		Expect(string(body)).To(ContainSubstring("chatvault_search_results_total 3"))
	})
})
