package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatvault/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals ConversationArchivedEvent with expected top-level keys", func() {
		event := eventstream.NewConversationArchivedEvent(
			eventstream.EventSource{Platform: "claude", ScrapedAt: "2025-02-08T12:00:00Z"},
			eventstream.EventRecord{
				ArchiveID:    "a1",
				ID:           "c1",
				Title:        "T",
				Topics:       []string{"vector"},
				KeyPoints:    []string{"Choose an embedding model"},
				MessageCount: 2,
				ArchivedAt:   time.Unix(1735689600, 0).UTC(),
			},
			eventstream.EventContent{Key: "0123456789ab", ReferencePath: "/content/0123456789ab.json", Dimensions: 3},
		)

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("record"))
		Expect(got).To(HaveKey("content"))
		Expect(got["event_type"]).To(Equal(eventstream.EventTypeConversationArchived))
	})

	It("assigns unique event ids", func() {
		a := eventstream.NewConversationArchivedEvent(eventstream.EventSource{}, eventstream.EventRecord{}, eventstream.EventContent{})
		b := eventstream.NewConversationArchivedEvent(eventstream.EventSource{}, eventstream.EventRecord{}, eventstream.EventContent{})
		Expect(a.EventID).NotTo(Equal(b.EventID))
		Expect(a.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeConversationArchived).To(Equal("chatvault.conversation.archived"))
	})

	It("provides ErrNilEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilEvent).To(MatchError("nil archive event"))
	})
})
