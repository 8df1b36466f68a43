package mykafka

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilProducerDropsEvents(t *testing.T) {
	p := NewProducer(nil)
	assert.Nil(t, p)
	assert.NoError(t, p.PublishEvent(context.Background(), TopicActivity, "k", map[string]string{"a": "b"}))
	assert.NoError(t, p.Close())
}

func TestPublishEvent_Kafka(t *testing.T) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("KAFKA_BROKERS not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "activity_events_test"
	p := NewProducer(strings.Split(brokers, ","))
	defer p.Close()

	require.Eventually(t, func() bool {
		return p.PublishEvent(ctx, topic, "u1", map[string]string{"action": "login"}) == nil
	}, 20*time.Second, time.Second)

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   strings.Split(brokers, ","),
		Topic:     topic,
		Partition: 0,
	})
	defer r.Close()
	require.NoError(t, r.SetOffset(kafka.FirstOffset))

	msg, err := r.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", string(msg.Key))
	assert.JSONEq(t, `{"action":"login"}`, string(msg.Value))
}
