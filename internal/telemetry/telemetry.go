package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fincoval/creditsync/internal/reconcile"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/fincoval/creditsync"

// Telemetry feeds pass summaries, job events and gateway requests into the
// metrics and the tracer.
type Telemetry struct {
	metrics *Metrics
	tracer  trace.Tracer
}

func New(m *Metrics, tp trace.TracerProvider) *Telemetry {
	return &Telemetry{metrics: m, tracer: tp.Tracer(instrumentation)}
}

func (t *Telemetry) PassStarted(ctx context.Context, s *reconcile.Summary) context.Context {
	ctx, _ = t.tracer.Start(ctx, "pass "+string(s.Pass),
		trace.WithAttributes(
			attribute.String("creditsync.pass", string(s.Pass)),
			attribute.String("creditsync.run_id", s.RunID),
			attribute.String("creditsync.direction", string(s.Direction)),
		))
	return ctx
}

func (t *Telemetry) PassFinished(ctx context.Context, s *reconcile.Summary) {
	pass := string(s.Pass)
	result := "ok"
	if s.Failed() {
		result = "failed"
	}

	m := t.metrics
	m.passRuns.WithLabelValues(pass, result).Inc()
	m.passDuration.WithLabelValues(pass).Observe(s.FinishedAt.Sub(s.StartedAt).Seconds())
	m.passPeak.WithLabelValues(pass).Set(float64(s.PeakInFlight))
	for class, n := range map[string]int{
		"inserted":           s.Inserted,
		"updated":            s.Updated,
		"exported":           s.Exported,
		"skipped_dependency": s.SkippedBy.Dependency,
		"skipped_validation": s.SkippedBy.Validation,
		"skipped_unchanged":  s.SkippedBy.Unchanged,
		"skipped_cutoff":     s.SkippedBy.Cutoff,
		"errored":            s.Errored,
	} {
		if n > 0 {
			m.passRecords.WithLabelValues(pass, class).Add(float64(n))
		}
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int("creditsync.inserted", s.Inserted),
		attribute.Int("creditsync.updated", s.Updated),
		attribute.Int("creditsync.exported", s.Exported),
		attribute.Int("creditsync.skipped", s.Skipped),
		attribute.Int("creditsync.errored", s.Errored),
	)
	if s.Failed() {
		span.SetStatus(codes.Error, s.Failure)
	}
	span.End()
}

func (t *Telemetry) JobStarted(job string) {
	t.metrics.jobRunning.WithLabelValues(job).Set(1)
}

func (t *Telemetry) JobFinished(job string, _ time.Duration, failed bool) {
	result := "ok"
	if failed {
		result = "failed"
	}
	t.metrics.jobRunning.WithLabelValues(job).Set(0)
	t.metrics.jobRuns.WithLabelValues(job, result).Inc()
}

func (t *Telemetry) JobDropped(job string) {
	t.metrics.jobDropped.WithLabelValues(job).Inc()
}

// Transport returns middleware that meters and traces the requests a
// gateway sends to system.
func (t *Telemetry) Transport(system string) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return t.metrics.InstrumentTransport(system, &tracingTransport{system: system, tracer: t.tracer, next: next})
	}
}

type tracingTransport struct {
	system string
	tracer trace.Tracer
	next   http.RoundTripper
}

func (tt *tracingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx, span := tt.tracer.Start(r.Context(), tt.system+" "+r.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("server.address", r.URL.Host),
			attribute.String("url.path", r.URL.Path),
		))
	defer span.End()

	res, err := tt.next.RoundTrip(r.WithContext(ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode))
	if res.StatusCode >= 400 {
		span.SetStatus(codes.Error, strconv.Itoa(res.StatusCode))
	}
	return res, nil
}
