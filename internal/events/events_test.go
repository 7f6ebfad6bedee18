package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/fincoval/creditsync/internal/config"
	"github.com/fincoval/creditsync/internal/reconcile"
)

type fakeWriter struct {
	err    error
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func withFakeWriter(t *testing.T, w *fakeWriter) *appconfig.EventsConfig {
	t.Helper()
	orig := newWriter
	t.Cleanup(func() { newWriter = orig })

	var seen appconfig.EventsConfig
	newWriter = func(cfg appconfig.EventsConfig) messageWriter {
		seen = cfg
		return w
	}
	return &seen
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	seen := withFakeWriter(t, w)

	p := NewPublisher(appconfig.EventsConfig{Brokers: []string{"kafka:9092"}, Topic: "summaries"})
	assert.Equal(t, []string{"kafka:9092"}, seen.Brokers)

	finished := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	s := &reconcile.Summary{
		Pass:       reconcile.PaymentsPull,
		RunID:      "r-9",
		Direction:  reconcile.SourceToLocal,
		FinishedAt: finished,
		Inserted:   4,
		Errors:     []reconcile.RecordError{},
	}
	require.NoError(t, p.Publish(context.Background(), s))

	require.Len(t, w.msgs, 1)
	m := w.msgs[0]
	assert.Equal(t, "payments.pull", string(m.Key))
	assert.Equal(t, finished, m.Time)
	assert.Equal(t, "r-9", header(m, "run_id"))
	assert.Equal(t, "source_to_local", header(m, "direction"))
	assert.Equal(t, "ok", header(m, "result"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(m.Value, &got))
	assert.EqualValues(t, 4, got["inserted"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_FailedPass(t *testing.T) {
	w := &fakeWriter{}
	withFakeWriter(t, w)

	p := NewPublisher(appconfig.EventsConfig{Topic: "t"})
	s := &reconcile.Summary{Pass: reconcile.ClientsPull, RunID: "r", Failure: "fetch clients: timeout"}
	require.NoError(t, p.Publish(context.Background(), s))
	assert.Equal(t, "failed", header(w.msgs[0], "result"))
}

func TestPublisher_WriteError(t *testing.T) {
	withFakeWriter(t, &fakeWriter{err: errors.New("leader not available")})

	p := NewPublisher(appconfig.EventsConfig{Topic: "t"})
	err := p.Publish(context.Background(), &reconcile.Summary{Pass: reconcile.ClientsPull, RunID: "r"})
	require.ErrorContains(t, err, "publish r to t: leader not available")
}

func TestNewWriter_Defaults(t *testing.T) {
	w, ok := newWriter(appconfig.EventsConfig{Brokers: []string{"a:9092", "b:9092"}, Topic: "x"}).(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "x", w.Topic)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
}
