package testutils

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatvault/pkg/records"
)

// NewTestRecord creates a record for conversation id with a distinct archive id.
func NewTestRecord(archiveID, id, source string) *records.Record {
	return &records.Record{
		ArchiveID:     archiveID,
		ID:            id,
		Title:         "Title " + id,
		Summary:       "summary",
		Topics:        []string{"vector", "store"},
		KeyPoints:     []string{"Choose an embedding model"},
		Source:        source,
		Timestamp:     "2025-02-08T12:00:00Z",
		MessageCount:  2,
		TokenCount:    17,
		Embedding:     []float32{0.1, 0.2, 0.3},
		ReferencePath: "/content/0123456789ab.json",
		ContentKey:    "0123456789ab",
		ArchivedAt:    time.Date(2025, 2, 8, 12, 0, 0, 0, time.UTC),
	}
}

// DescribeRecordStore registers the shared records.Store behaviors against
// the store returned by newStore. newStore is called before each test and
// must return an empty store.
func DescribeRecordStore(newStore func() records.Store) {
	var (
		ctx   context.Context
		store records.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newStore()
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
	})

	It("round trips a record", func() {
		rec := NewTestRecord("a1", "c1", "claude")
		Expect(store.Save(ctx, rec)).To(Succeed())

		got, err := store.Get(ctx, "a1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ArchivedAt).To(BeTemporally("==", rec.ArchivedAt))

		got.ArchivedAt = rec.ArchivedAt
		Expect(got).To(Equal(rec))
	})

	It("rejects a duplicate archive id", func() {
		Expect(store.Save(ctx, NewTestRecord("a1", "c1", "claude"))).To(Succeed())
		err := store.Save(ctx, NewTestRecord("a1", "c1", "claude"))
		Expect(err).To(MatchError(records.ErrDuplicate))
	})

	It("appends history instead of updating", func() {
		first := NewTestRecord("a1", "c1", "claude")
		second := NewTestRecord("a2", "c1", "claude")
		second.Title = "Retitled"
		Expect(store.Save(ctx, first)).To(Succeed())
		Expect(store.Save(ctx, second)).To(Succeed())
		Expect(store.Save(ctx, NewTestRecord("a3", "c2", "claude"))).To(Succeed())

		history, err := store.History(ctx, "c1")
		Expect(err).NotTo(HaveOccurred())
		Expect(history).To(HaveLen(2))
		Expect(history[0].ArchiveID).To(Equal("a1"))
		Expect(history[1].ArchiveID).To(Equal("a2"))

		latest, err := store.Latest(ctx, "c1")
		Expect(err).NotTo(HaveOccurred())
		Expect(latest.Title).To(Equal("Retitled"))
	})

	It("returns an empty history for unknown ids", func() {
		history, err := store.History(ctx, "missing")
		Expect(err).NotTo(HaveOccurred())
		Expect(history).To(BeEmpty())
	})

	It("returns NotFoundError for unknown lookups", func() {
		_, err := store.Get(ctx, "missing")
		Expect(records.IsNotFound(err)).To(BeTrue())

		_, err = store.Latest(ctx, "missing")
		Expect(records.IsNotFound(err)).To(BeTrue())
	})

	It("lists newest first with source and limit", func() {
		Expect(store.Save(ctx, NewTestRecord("a1", "c1", "claude"))).To(Succeed())
		Expect(store.Save(ctx, NewTestRecord("a2", "c2", "chatgpt"))).To(Succeed())
		Expect(store.Save(ctx, NewTestRecord("a3", "c3", "claude"))).To(Succeed())

		all, err := store.List(ctx, records.ListOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(3))
		Expect(all[0].ArchiveID).To(Equal("a3"))

		claude, err := store.List(ctx, records.ListOptions{Source: "claude", Limit: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(claude).To(HaveLen(1))
		Expect(claude[0].ArchiveID).To(Equal("a3"))
	})
}
