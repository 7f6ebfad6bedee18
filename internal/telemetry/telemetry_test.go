package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fincoval/creditsync/internal/reconcile"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTelemetry() (*Telemetry, *Metrics, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	m := NewMetrics()
	return New(m, tp), m, rec
}

func TestPassObserver(t *testing.T) {
	tel, m, rec := newTelemetry()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &reconcile.Summary{
		Pass:         reconcile.CreditsPush,
		RunID:        "run-1",
		StartedAt:    start,
		FinishedAt:   start.Add(3 * time.Second),
		Exported:     4,
		Errored:      1,
		SkippedBy:    reconcile.SkipCounts{Dependency: 2},
		PeakInFlight: 7,
	}
	ctx := tel.PassStarted(context.Background(), s)
	tel.PassFinished(ctx, s)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.passRuns.WithLabelValues("credits.push", "ok")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.passRecords.WithLabelValues("credits.push", "exported")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.passRecords.WithLabelValues("credits.push", "skipped_dependency")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.passRecords.WithLabelValues("credits.push", "errored")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.passPeak.WithLabelValues("credits.push")))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "pass credits.push", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestPassObserver_Failure(t *testing.T) {
	tel, m, rec := newTelemetry()

	s := &reconcile.Summary{Pass: reconcile.ClientsPull, Failure: "fetch clients: remote unavailable"}
	tel.PassFinished(tel.PassStarted(context.Background(), s), s)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.passRuns.WithLabelValues("clients.pull", "failed")))
	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "fetch clients: remote unavailable", spans[0].Status().Description)
}

func TestJobMetrics(t *testing.T) {
	tel, m, _ := newTelemetry()

	tel.JobStarted("inbound-sync")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRunning.WithLabelValues("inbound-sync")))
	tel.JobDropped("inbound-sync")
	tel.JobFinished("inbound-sync", time.Second, true)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.jobRunning.WithLabelValues("inbound-sync")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobDropped.WithLabelValues("inbound-sync")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("inbound-sync", "failed")))
}

func TestTransport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer ts.Close()

	tel, m, rec := newTelemetry()
	client := &http.Client{Transport: tel.Transport("target")(http.DefaultTransport)}

	res, err := client.Get(ts.URL + "/clientes")
	require.NoError(t, err)
	_ = res.Body.Close()

	assert.Equal(t, 1, testutil.CollectAndCount(m.requests))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("target", "418", "get")))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "target GET", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestHandler(t *testing.T) {
	tel, m, _ := newTelemetry()
	tel.JobDropped("action-sync")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `creditsync_job_triggers_dropped_total{job="action-sync"} 1`)
}

func TestNewTracerProvider_NoEndpoint(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), "creditsync", "")
	require.NoError(t, err)
	assert.NoError(t, tp.Shutdown(context.Background()))
}
