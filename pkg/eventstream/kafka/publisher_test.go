package kafka_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/chatvault/pkg/eventstream"
	"github.com/papercomputeco/chatvault/pkg/eventstream/kafka"
	"github.com/papercomputeco/chatvault/pkg/logger"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		writer *fakeWriter
		pub    *kafka.Publisher
		event  *eventstream.ConversationArchivedEvent
	)

	BeforeEach(func() {
		writer = &fakeWriter{}
		pub = kafka.NewPublisherWithWriter(writer, "archive-events", logger.Nop())
		event = eventstream.NewConversationArchivedEvent(
			eventstream.EventSource{Platform: "claude"},
			eventstream.EventRecord{ArchiveID: "a1", ID: "c1"},
			eventstream.EventContent{Key: "0123456789ab"},
		)
	})

	It("requires brokers", func() {
		_, err := kafka.NewPublisher(kafka.Config{}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	It("writes the event keyed by conversation id", func() {
		Expect(pub.PublishArchived(context.Background(), event)).To(Succeed())
		Expect(writer.messages).To(HaveLen(1))

		msg := writer.messages[0]
		Expect(string(msg.Key)).To(Equal("c1"))

		var decoded eventstream.ConversationArchivedEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.EventID).To(Equal(event.EventID))
		Expect(decoded.Content.Key).To(Equal("0123456789ab"))
	})

	It("rejects nil events", func() {
		Expect(pub.PublishArchived(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
	})

	It("wraps writer failures", func() {
		writer.err = errors.New("broker down")
		err := pub.PublishArchived(context.Background(), event)
		Expect(err).To(MatchError(ContainSubstring("broker down")))
	})

	It("closes the writer", func() {
		Expect(pub.Close()).To(Succeed())
		Expect(writer.closed).To(BeTrue())
	})
})
