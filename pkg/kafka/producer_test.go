package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
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

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func headerValue(msg kafka.Message, key string) string {
	return NewHeaderCarrier(&msg.Headers).Get(key)
}

func TestNewEvent(t *testing.T) {
	type tourCreated struct {
		Name string `json:"name"`
	}
	ev, err := NewEvent("tour.created", "tour", "tour-1", "natours-api", tourCreated{Name: "The Forest Hiker"})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, 1, ev.Version)
	assert.Equal(t, "tour-1", ev.AggregateID)

	var got tourCreated
	require.NoError(t, ev.DecodeData(&got))
	assert.Equal(t, "The Forest Hiker", got.Name)
}

func TestNewEvent_UnencodableData(t *testing.T) {
	_, err := NewEvent("x", "tour", "1", "natours-api", make(chan int))
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "natours.booking.created", Topic("booking", "created"))
}

func TestProducer_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, nil, quietLogger())

	ev, err := NewEvent("review.created", "review", "rev-9", "natours-api", map[string]float64{"rating": 4})
	require.NoError(t, err)
	ev.CorrelationID = "req-1"

	require.NoError(t, p.Publish(context.Background(), Topic("review", "created"), ev))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "natours.review.created", msg.Topic)
	assert.Equal(t, []byte("rev-9"), msg.Key)
	assert.Equal(t, "review.created", headerValue(msg, "event_type"))
	assert.Equal(t, "req-1", headerValue(msg, "correlation_id"))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.ID, decoded.ID)
}

func TestProducer_PublishInjectsTraceContext(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "create-booking")
	defer span.End()

	w := &recordingWriter{}
	p := NewProducerWithWriter(w, nil, quietLogger())
	ev, err := NewEvent("booking.created", "booking", "b-1", "natours-api", nil)
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, Topic("booking", "created"), ev))
	assert.Contains(t, headerValue(w.msgs[0], "traceparent"), span.SpanContext().TraceID().String())
}

func TestProducer_PublishError(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	p := NewProducerWithWriter(w, nil, quietLogger())
	ev, err := NewEvent("tour.deleted", "tour", "t-1", "natours-api", nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), Topic("tour", "deleted"), ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "natours.tour.deleted")
}

func TestProducer_Close(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, NewProducerWithWriter(w, nil, quietLogger()).Close())
	assert.True(t, w.closed)
}

func TestPingBrokers_NoneConfigured(t *testing.T) {
	assert.Error(t, PingBrokers(context.Background(), nil))
}

func TestHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "source", Value: []byte("natours-api")}}
	c := NewHeaderCarrier(&headers)

	assert.Equal(t, "natours-api", c.Get("source"))
	assert.Empty(t, c.Get("missing"))

	c.Set("source", "seed")
	c.Set("traceparent", "00-abc")
	assert.Equal(t, "seed", c.Get("source"))
	assert.ElementsMatch(t, []string{"source", "traceparent"}, c.Keys())
	assert.Len(t, headers, 2)
}
