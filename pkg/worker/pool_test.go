package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/papercomputeco/chatvault/pkg/archive"
	"github.com/papercomputeco/chatvault/pkg/cas"
	casinmemory "github.com/papercomputeco/chatvault/pkg/cas/inmemory"
	"github.com/papercomputeco/chatvault/pkg/embeddings/hashing"
	"github.com/papercomputeco/chatvault/pkg/metrics"
	testutils "github.com/papercomputeco/chatvault/pkg/utils/test"
	vectorinmemory "github.com/papercomputeco/chatvault/pkg/vector/inmemory"
)

// blockingArchiver holds every call until release is closed.
type blockingArchiver struct {
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingArchiver) Archive(_ context.Context, conv archive.Conversation) (*archive.MetadataRecord, error) {
	b.calls.Add(1)
	<-b.release
	return &archive.MetadataRecord{ID: conv.ID}, nil
}

func conversation(id string) archive.Conversation {
	return archive.Conversation{
		ID:     id,
		Title:  "Conversation " + id,
		Source: "claude",
		Turns: []cas.Turn{
			testutils.NewTestTurn("user", "What is 2+2?"),
			testutils.NewTestTurn("assistant", "- It is 4"),
		},
	}
}

// newTestPool creates a worker pool backed by an in-memory archiver.
// Callers should "wp.Close()" to drain enqueued jobs before asserting state.
func newTestPool(m *metrics.Metrics) (*Pool, *vectorinmemory.Driver) {
	index := vectorinmemory.NewDriver()
	archiver, err := archive.NewArchiver(archive.Config{
		Store:        casinmemory.NewStore(),
		Embedder:     hashing.NewEmbedder(64),
		VectorDriver: index,
	})
	Expect(err).NotTo(HaveOccurred())

	wp, err := NewPool(&Config{
		Archiver: archiver,
		Metrics:  m,
	})
	Expect(err).NotTo(HaveOccurred())

	return wp, index
}

var _ = Describe("Worker Pool", func() {
	Describe("NewPool", func() {
		It("requires an archiver", func() {
			_, err := NewPool(&Config{})
			Expect(err).To(MatchError(ContainSubstring("archiver")))
		})

		It("applies defaults", func() {
			wp, err := NewPool(&Config{Archiver: &blockingArchiver{release: make(chan struct{})}})
			Expect(err).NotTo(HaveOccurred())
			Expect(wp.config.NumWorkers).To(Equal(defaultNumWorkers))
			Expect(cap(wp.queue)).To(Equal(int(defaultJobQueueSize)))
			Expect(wp.config.JobTimeout).To(Equal(defaultJobTimeout))
			wp.Close()
		})
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			wp, _ := newTestPool(nil)
			Expect(wp.Enqueue(Job{Conversation: conversation("c1")})).To(BeTrue())
			wp.Close()
		})

		It("drops jobs when the queue is full", func() {
			m := metrics.New()
			blocker := &blockingArchiver{release: make(chan struct{})}
			wp, err := NewPool(&Config{
				Archiver:   blocker,
				NumWorkers: 1,
				QueueSize:  1,
				Metrics:    m,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(wp.Enqueue(Job{Conversation: conversation("c1")})).To(BeTrue())
			Eventually(blocker.calls.Load).Should(Equal(int32(1)))
			Expect(wp.Enqueue(Job{Conversation: conversation("c2")})).To(BeTrue())
			Expect(wp.Enqueue(Job{Conversation: conversation("c3")})).To(BeFalse())
			Expect(testutil.ToFloat64(m.WorkerJobsTotal.WithLabelValues(metrics.StatusDropped))).To(Equal(1.0))

			close(blocker.release)
			wp.Close()
			Expect(blocker.calls.Load()).To(Equal(int32(2)))
		})

		It("drops jobs after Close", func() {
			wp, _ := newTestPool(nil)
			wp.Close()
			Expect(wp.Enqueue(Job{Conversation: conversation("c1")})).To(BeFalse())
		})
	})

	Describe("processing", func() {
		It("archives every queued conversation before Close returns", func() {
			m := metrics.New()
			wp, index := newTestPool(m)

			for i := range 10 {
				Expect(wp.Enqueue(Job{Conversation: conversation(fmt.Sprintf("c%d", i))})).To(BeTrue())
			}
			wp.Close()

			Expect(index.Len()).To(Equal(10))
			Expect(testutil.ToFloat64(m.WorkerJobsTotal.WithLabelValues(metrics.StatusSuccess))).To(Equal(10.0))
		})

		It("reports outcomes through Done", func() {
			wp, _ := newTestPool(nil)

			var (
				mu      sync.Mutex
				ids     []string
				failure error
			)
			done := func(rec *archive.MetadataRecord, err error) {
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failure = err
					return
				}
				ids = append(ids, rec.ID)
			}

			Expect(wp.Enqueue(Job{Conversation: conversation("ok"), Done: done})).To(BeTrue())
			bad := conversation("bad")
			bad.Source = ""
			Expect(wp.Enqueue(Job{Conversation: bad, Origin: "bad.json", Done: done})).To(BeTrue())
			wp.Close()

			Expect(ids).To(ConsistOf("ok"))
			Expect(failure).To(MatchError(archive.ErrInvalidInput))
		})
	})

	Describe("job timeout", func() {
		It("fails a stalled job instead of holding its worker", func() {
			embedder := testutils.NewMockEmbedder()
			embedder.Delay = time.Hour
			archiver, err := archive.NewArchiver(archive.Config{
				Store:        casinmemory.NewStore(),
				Embedder:     embedder,
				VectorDriver: vectorinmemory.NewDriver(),
			})
			Expect(err).NotTo(HaveOccurred())

			m := metrics.New()
			wp, err := NewPool(&Config{
				Archiver:   archiver,
				NumWorkers: 1,
				JobTimeout: 50 * time.Millisecond,
				Metrics:    m,
			})
			Expect(err).NotTo(HaveOccurred())

			outcome := make(chan error, 1)
			Expect(wp.Enqueue(Job{
				Conversation: conversation("slow"),
				Done:         func(_ *archive.MetadataRecord, err error) { outcome <- err },
			})).To(BeTrue())

			var jobErr error
			Eventually(outcome, 5*time.Second).Should(Receive(&jobErr))
			Expect(jobErr).To(MatchError(archive.ErrEmbedding))
			Expect(jobErr).To(MatchError(context.DeadlineExceeded))

			wp.Close()
			Expect(testutil.ToFloat64(m.WorkerJobsTotal.WithLabelValues(metrics.StatusError))).To(Equal(1.0))
		})
	})

	It("is safe to close twice", func() {
		wp, _ := newTestPool(nil)
		wp.Close()
		Expect(wp.Close).NotTo(Panic())
	})
})
