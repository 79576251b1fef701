package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/ggontijo/campus-market/internal/core/domain"
	"github.com/ggontijo/campus-market/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T, async *fakeAsyncProducer) *EventPublisher {
	t.Helper()

	producer := &Producer{
		producer: async,
		logger:   zaptest.NewLogger(t),
		cfg: config.KafkaSettings{
			TopicPrefix: "market",
		},
		errChan: make(chan error, 1),
		done:    make(chan struct{}),
	}

	return NewEventPublisher(producer, config.AppSettings{
		Name: "campus-market",
		Env:  "test",
	}, zaptest.NewLogger(t))
}

func TestPublishListingStatusChanged(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	changedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	event := domain.ListingStatusChangedEvent{
		EventID:    "event-123",
		ListingID:  "listing-456",
		OwnerID:    "identity-789",
		FromStatus: domain.ListingStatusActive,
		ToStatus:   domain.ListingStatusSold,
		Actor:      domain.ActorOwner,
		ActorID:    "identity-789",
		ChangedAt:  changedAt,
	}

	if err := publisher.PublishListingStatusChanged(context.Background(), event); err != nil {
		t.Fatalf("PublishListingStatusChanged returned error: %v", err)
	}

	var message *sarama.ProducerMessage
	select {
	case message = <-asyncProducer.input:
	case <-time.After(time.Second):
		t.Fatal("expected message on producer input channel")
	}

	if message.Topic != "market.listing.status_changed" {
		t.Fatalf("unexpected topic %q", message.Topic)
	}

	raw, err := message.Value.Encode()
	if err != nil {
		t.Fatalf("encode message value: %v", err)
	}

	var envelope struct {
		EventID   string            `json:"event_id"`
		EventType string            `json:"event_type"`
		SubjectID string            `json:"subject_id"`
		Version   string            `json:"version"`
		Metadata  map[string]string `json:"metadata"`
		Payload   struct {
			FromStatus string `json:"from_status"`
			ToStatus   string `json:"to_status"`
			Actor      string `json:"actor"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}

	if envelope.EventID != "event-123" {
		t.Fatalf("unexpected event id %q", envelope.EventID)
	}
	if envelope.SubjectID != "listing-456" {
		t.Fatalf("unexpected subject id %q", envelope.SubjectID)
	}
	if envelope.Version != schemaVersion {
		t.Fatalf("unexpected schema version %q", envelope.Version)
	}
	if envelope.Payload.FromStatus != "ACTIVE" || envelope.Payload.ToStatus != "SOLD" {
		t.Fatalf("unexpected payload statuses %q -> %q", envelope.Payload.FromStatus, envelope.Payload.ToStatus)
	}
	if envelope.Payload.Actor != "owner" {
		t.Fatalf("unexpected actor %q", envelope.Payload.Actor)
	}
	if envelope.Metadata["service"] != "campus-market" {
		t.Fatalf("expected service metadata, got %v", envelope.Metadata)
	}
}

func TestPublishListingCreated_ContextCanceled(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	// Fill the buffered input channel so publish must block.
	asyncProducer.input <- &sarama.ProducerMessage{}

	publisher := newTestPublisher(t, asyncProducer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.PublishListingCreated(ctx, domain.ListingCreatedEvent{
		ListingID: "listing-1",
		OwnerID:   "identity-1",
		CreatedAt: time.Now().UTC(),
	})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
}
