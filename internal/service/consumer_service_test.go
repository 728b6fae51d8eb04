package service

import (
	"context"
	"testing"
	"time"

	"sponsor-advisor-be/internal/pkg/logger"
	"sponsor-advisor-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "RECOMMENDATIONS_SERVED_TEST"

func startConsumer(t *testing.T) (*fakeDB, *gochannel.GoChannel) {
	t.Helper()
	db := newFakeDB()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	consumer := NewConsumerService(pubSub, testTopic, &fakeFactory{db: db}, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))
	return db, pubSub
}

func statFor(db *fakeDB, id uuid.UUID) int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.stats[id]
}

func TestConsumerService_CountsImpressions(t *testing.T) {
	db, pubSub := startConsumer(t)
	publisher := NewPublisherService(testTopic, pubSub)

	a, b := uuid.New(), uuid.New()
	servedAt := time.Now().UTC()
	event := events.BaseEvent{
		Type: events.RecommendationsServed,
		Data: map[string]interface{}{
			"userId":         uuid.NewString(),
			"conversationId": uuid.NewString(),
			"messageId":      uuid.NewString(),
			"packageIds":     []string{a.String(), b.String()},
			"servedAt":       servedAt,
		},
		OccurredAt: servedAt,
	}

	require.NoError(t, publisher.Publish(context.Background(), event))
	require.NoError(t, publisher.Publish(context.Background(), event))

	assert.Eventually(t, func() bool {
		return statFor(db, a) == 2 && statFor(db, b) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestConsumerService_SkipsOtherAndMalformedMessages(t *testing.T) {
	db, pubSub := startConsumer(t)

	other := message.NewMessage(watermill.NewUUID(), []byte(`{"packageIds":["`+uuid.NewString()+`"]}`))
	other.Metadata.Set("event_type", "SOMETHING_ELSE")
	require.NoError(t, pubSub.Publish(testTopic, other))

	malformed := message.NewMessage(watermill.NewUUID(), []byte(`{not json`))
	malformed.Metadata.Set("event_type", events.RecommendationsServed)
	require.NoError(t, pubSub.Publish(testTopic, malformed))

	// A valid message after the bad ones proves the consumer kept going.
	marker := uuid.New()
	valid := message.NewMessage(watermill.NewUUID(), []byte(`{"packageIds":["`+marker.String()+`"],"servedAt":"2026-01-02T03:04:05Z"}`))
	valid.Metadata.Set("event_type", events.RecommendationsServed)
	require.NoError(t, pubSub.Publish(testTopic, valid))

	assert.Eventually(t, func() bool { return statFor(db, marker) == 1 }, time.Second, 10*time.Millisecond)

	db.mu.Lock()
	defer db.mu.Unlock()
	assert.Len(t, db.stats, 1)
}
