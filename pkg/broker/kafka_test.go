package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{writer: w, topic: "booking-status", log: zap.NewNop()}

	err := p.Publish(t.Context(), "42", map[string]string{"to": "accepted"})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "42", string(w.msgs[0].Key))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	assert.Equal(t, "accepted", body["to"])
}

func TestProducer_PublishFailure(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	p := &Producer{writer: w, topic: "booking-status", log: zap.NewNop()}

	err := p.Publish(t.Context(), "42", struct{}{})
	assert.ErrorContains(t, err, "leader not available")
}

func TestProducer_Close(t *testing.T) {
	var nilProducer *Producer
	assert.NoError(t, nilProducer.Close())

	w := &recordingWriter{}
	p := &Producer{writer: w, log: zap.NewNop()}
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
