package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// TelemetryConfig controls how metrics are exported.
type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	OtlpEndpoint string
	OtlpInsecure bool
}

// Setup builds a Recorder backed by an OpenTelemetry meter provider with a
// Prometheus reader, plus an OTLP reader when an endpoint is configured.
// The returned handler serves the Prometheus registry and is nil when
// telemetry is disabled.
func Setup(ctx context.Context, cfg TelemetryConfig) (*Recorder, http.Handler, func(context.Context) error, error) {
	if !cfg.Enabled {
		return NewRecorder(), nil, func(context.Context) error { return nil }, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "hectoclash"
	}

	reg := prometheus.NewRegistry()
	promExp, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, nil, nil, err
	}
	opts := []sdkmetric.Option{sdkmetric.WithReader(promExp)}

	if cfg.OtlpEndpoint != "" {
		otlpOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.OtlpEndpoint)}
		if cfg.OtlpInsecure {
			otlpOpts = append(otlpOpts, otlpmetrichttp.WithInsecure())
		}
		otlpExp, err := otlpmetrichttp.New(ctx, otlpOpts...)
		if err != nil {
			return nil, nil, nil, err
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(otlpExp, sdkmetric.WithInterval(15*time.Second))))
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, nil, nil, err
	}
	opts = append(opts, sdkmetric.WithResource(res))

	provider := sdkmetric.NewMeterProvider(opts...)
	inst, err := newOtelInstruments(provider, cfg.ServiceName)
	if err != nil {
		return nil, nil, nil, err
	}

	return newRecorder(inst), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), provider.Shutdown, nil
}

type otelInstruments struct {
	ctx               context.Context
	requests          metric.Int64Counter
	requestLatencyMs  metric.Float64Histogram
	puzzles           metric.Int64Counter
	generationMs      metric.Float64Histogram
	verifications     metric.Int64Counter
	sessionsStarted   metric.Int64Counter
	sessionsCompleted metric.Int64Counter
	sessionDurationS  metric.Float64Histogram
	invitations       metric.Int64Counter
	persistenceErrors metric.Int64Counter
}

func newOtelInstruments(provider metric.MeterProvider, name string) (*otelInstruments, error) {
	meter := provider.Meter(name)
	o := &otelInstruments{ctx: context.Background()}

	var err error
	counters := []struct {
		dst  *metric.Int64Counter
		name string
	}{
		{&o.requests, "http_requests_total"},
		{&o.puzzles, "puzzles_generated_total"},
		{&o.verifications, "verifications_total"},
		{&o.sessionsStarted, "sessions_started_total"},
		{&o.sessionsCompleted, "sessions_completed_total"},
		{&o.invitations, "invitations_total"},
		{&o.persistenceErrors, "persistence_failures_total"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name); err != nil {
			return nil, err
		}
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
	}{
		{&o.requestLatencyMs, "http_request_duration_ms"},
		{&o.generationMs, "puzzle_generation_duration_ms"},
		{&o.sessionDurationS, "session_duration_seconds"},
	}
	for _, h := range histograms {
		if *h.dst, err = meter.Float64Histogram(h.name); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *otelInstruments) recordHTTPRequest(method, path string, status int, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrMethod, method),
		attribute.String(AttrPath, path),
		attribute.Int(AttrStatus, status),
	)
	o.requests.Add(o.ctx, 1, attrs)
	o.requestLatencyMs.Record(o.ctx, float64(duration.Milliseconds()), attrs)
}

func (o *otelInstruments) recordGeneration(difficulty string, n int, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrDifficulty, difficulty))
	o.puzzles.Add(o.ctx, int64(n), attrs)
	o.generationMs.Record(o.ctx, float64(duration.Milliseconds()), attrs)
}

func (o *otelInstruments) recordVerification(valid bool) {
	if o == nil {
		return
	}
	o.verifications.Add(o.ctx, 1, metric.WithAttributes(attribute.Bool(AttrValid, valid)))
}

func (o *otelInstruments) recordSessionStarted(gameType, difficulty string) {
	if o == nil {
		return
	}
	o.sessionsStarted.Add(o.ctx, 1, metric.WithAttributes(
		attribute.String(AttrGameType, gameType),
		attribute.String(AttrDifficulty, difficulty),
	))
}

func (o *otelInstruments) recordSessionCompleted(reason string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrReason, reason))
	o.sessionsCompleted.Add(o.ctx, 1, attrs)
	o.sessionDurationS.Record(o.ctx, duration.Seconds(), attrs)
}

func (o *otelInstruments) recordInvitation(outcome string) {
	if o == nil {
		return
	}
	o.invitations.Add(o.ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}

func (o *otelInstruments) recordPersistenceFailure(operation string) {
	if o == nil {
		return
	}
	o.persistenceErrors.Add(o.ctx, 1, metric.WithAttributes(attribute.String(AttrOperation, operation)))
}
