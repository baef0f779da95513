package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"quickbite/internal/common/config"
)

// Observability owns the OpenTelemetry meter and tracer providers for one
// process.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	turnCounter    otelmetric.Int64Counter
}

// New installs a Prometheus-backed meter provider, and a Jaeger tracer
// provider when tracing is enabled. It never fails: a component that cannot
// be built is left out and the error is returned alongside a usable value.
func New(serviceName, version string, tracing config.TracingConfig) (*Observability, error) {
	o := &Observability{tracer: otel.Tracer(serviceName)}
	var errs []error

	exporter, err := prometheus.New()
	if err != nil {
		errs = append(errs, err)
	} else {
		o.meterProvider = metric.NewMeterProvider(
			metric.WithReader(exporter),
			metric.WithResource(newResource(serviceName, version)),
		)
		otel.SetMeterProvider(o.meterProvider)
	}

	if tracing.Enabled {
		tp, err := newTracerProvider(serviceName, version, tracing)
		if err != nil {
			errs = append(errs, err)
		} else {
			o.tracerProvider = tp
			otel.SetTracerProvider(tp)
			o.tracer = tp.Tracer(serviceName)
		}
	}

	o.meter = otel.GetMeterProvider().Meter(serviceName)
	o.jobCounter, _ = o.meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	o.jobDuration, _ = o.meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	o.turnCounter, _ = o.meter.Int64Counter(
		"chat.turns",
		otelmetric.WithDescription("Chat turns answered, by transport"),
	)

	return o, errors.Join(errs...)
}

// Tracer returns the process tracer. It is a no-op tracer unless tracing is
// enabled.
func (o *Observability) Tracer() trace.Tracer {
	return o.tracer
}

// StartSpan starts a span on the process tracer.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

// RecordTurn counts one chat turn. transport is "http" or "zeebe".
func (o *Observability) RecordTurn(ctx context.Context, transport, operation string) {
	if o.turnCounter != nil {
		o.turnCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("transport", transport),
			attribute.String("operation", operation),
		))
	}
}

// Shutdown flushes pending spans and stops the providers.
func (o *Observability) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	if o.tracerProvider != nil {
		errs = append(errs, o.tracerProvider.Shutdown(ctx))
	}
	if o.meterProvider != nil {
		errs = append(errs, o.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
