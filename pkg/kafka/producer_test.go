package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func newTestProducer(w *fakeWriter) *Producer {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return newProducer(w, Config{EventsTopic: "effectivity-events", DataQualityTopic: "effectivity-data-quality"}, logger)
}

func TestPublishRevisionEvent(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	err := p.PublishRevisionEvent(context.Background(), &RevisionEvent{
		Type:       EventRevisionSeeded,
		RevisionID: 3,
		Revision:   "Rev 12",
		CodeCount:  120,
		RangeCount: 310,
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "effectivity-events", msg.Topic)
	assert.Equal(t, "Rev 12", string(msg.Key))
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, EventRevisionSeeded, string(msg.Headers[0].Value))

	var evt RevisionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &evt))
	assert.Equal(t, int64(3), evt.RevisionID)
	assert.NotEmpty(t, evt.ID)
	assert.False(t, evt.Timestamp.IsZero())
}

func TestPublishDataQuality(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.PublishDataQuality(context.Background(), nil))
	assert.Empty(t, w.messages)

	err := p.PublishDataQuality(context.Background(), []*DataQualityEvent{
		{Revision: "Rev 12", Kind: "empty_code", Code: "D2", Message: "no serial ranges"},
		{Revision: "Rev 12", Kind: "duplicate_code", Code: "A8", Message: "duplicate"},
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 2)
	assert.Equal(t, "effectivity-data-quality", w.messages[1].Topic)
	assert.Equal(t, "Rev 12:A8", string(w.messages[1].Key))

	var evt DataQualityEvent
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &evt))
	assert.Equal(t, EventDataQuality, evt.Type)
	assert.Equal(t, "empty_code", evt.Kind)
}

func TestPublish_WriterError(t *testing.T) {
	p := newTestProducer(&fakeWriter{err: errors.New("broker down")})

	err := p.PublishRevisionEvent(context.Background(), &RevisionEvent{Type: EventRevisionSeeded, Revision: "Rev 1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "effectivity-events")
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, ParseBrokers(" kafka-1:9092, ,kafka-2:9092 "))
	assert.Empty(t, ParseBrokers(""))
}
