package groupware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/rbaliyan/groupware"
)

// Operation names used for spans and the "operation" metric attribute.
const (
	opContactGet          = "contact.get"
	opContactList         = "contact.list"
	opContactSearch       = "contact.search"
	opContactCreate       = "contact.create"
	opContactUpdate       = "contact.update"
	opContactDelete       = "contact.delete"
	opContactBulkDelete   = "contact.bulk_delete"
	opContactSimilar      = "contact.similar"
	opContactMerge        = "contact.merge"
	opContactAutocomplete = "contact.autocomplete"
	opContactUse          = "contact.use"
	opContactExport       = "contact.export"
	opContactImport       = "contact.import"
	opContactSetImage     = "contact.set_image"
	opContactLoadImage    = "contact.load_image"

	opAccountList        = "account.list"
	opAccountGet         = "account.get"
	opAccountCreate      = "account.create"
	opAccountUpdate      = "account.update"
	opAccountDelete      = "account.delete"
	opAccountCredentials = "account.credentials"
	opAccountProbe       = "account.probe"
	opAccountUnified     = "account.unified"
	opAccountLookup      = "account.lookup"
)

// otelInstrumentation holds OpenTelemetry instrumentation for the service.
type otelInstrumentation struct {
	enabled bool

	// Tracing
	tracingEnabled bool
	tracer         trace.Tracer

	// Metrics
	metricsEnabled bool

	// Address book operations
	contactLatency metric.Float64Histogram
	contactCount   metric.Int64Counter
	contactErrors  metric.Int64Counter

	// Mail account operations
	accountLatency metric.Float64Histogram
	accountCount   metric.Int64Counter
	accountErrors  metric.Int64Counter
}

// newOtelInstrumentation creates new OTel instrumentation from options.
func newOtelInstrumentation(opts *options) (*otelInstrumentation, error) {
	o := &otelInstrumentation{
		enabled:        opts.tracingEnabled || opts.metricsEnabled,
		tracingEnabled: opts.tracingEnabled,
		metricsEnabled: opts.metricsEnabled,
	}

	if !o.enabled {
		return o, nil
	}

	if opts.tracingEnabled {
		tp := opts.tracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
		o.tracer = tp.Tracer(instrumentationName)
	}

	if opts.metricsEnabled {
		mp := opts.meterProvider
		if mp == nil {
			mp = otel.GetMeterProvider()
		}
		if err := o.initMetrics(mp); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// initMetrics initializes all metric instruments.
func (o *otelInstrumentation) initMetrics(mp metric.MeterProvider) error {
	meter := mp.Meter(instrumentationName)

	var err error

	// Address book metrics
	o.contactLatency, err = meter.Float64Histogram(
		"groupware.contact.duration",
		metric.WithDescription("Duration of address book operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.contactCount, err = meter.Int64Counter(
		"groupware.contact.count",
		metric.WithDescription("Number of address book operations"),
	)
	if err != nil {
		return err
	}

	o.contactErrors, err = meter.Int64Counter(
		"groupware.contact.errors",
		metric.WithDescription("Number of failed address book operations"),
	)
	if err != nil {
		return err
	}

	// Mail account metrics
	o.accountLatency, err = meter.Float64Histogram(
		"groupware.account.duration",
		metric.WithDescription("Duration of mail account operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.accountCount, err = meter.Int64Counter(
		"groupware.account.count",
		metric.WithDescription("Number of mail account operations"),
	)
	if err != nil {
		return err
	}

	o.accountErrors, err = meter.Int64Counter(
		"groupware.account.errors",
		metric.WithDescription("Number of failed mail account operations"),
	)
	return err
}

// startSpan starts a new span if tracing is enabled.
// Returns the context with span and a function to end the span.
func (o *otelInstrumentation) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	if !o.tracingEnabled || o.tracer == nil {
		return ctx, func(error) {}
	}
	ctx, span := o.tracer.Start(ctx, "groupware."+name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// recordContact records address book operation metrics.
func (o *otelInstrumentation) recordContact(ctx context.Context, operation string, duration time.Duration, err error) {
	if !o.metricsEnabled {
		return
	}
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	o.contactLatency.Record(ctx, duration.Seconds(), attrs)
	o.contactCount.Add(ctx, 1, attrs)
	if err != nil {
		o.contactErrors.Add(ctx, 1, attrs)
	}
}

// recordAccount records mail account operation metrics.
func (o *otelInstrumentation) recordAccount(ctx context.Context, operation string, duration time.Duration, err error) {
	if !o.metricsEnabled {
		return
	}
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	o.accountLatency.Record(ctx, duration.Seconds(), attrs)
	o.accountCount.Add(ctx, 1, attrs)
	if err != nil {
		o.accountErrors.Add(ctx, 1, attrs)
	}
}

// trackContact starts a span for an address book operation. The returned
// function ends the span and records metrics; pass it the operation's error.
func (o *otelInstrumentation) trackContact(ctx context.Context, operation, userID string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, endSpan := o.startSpan(ctx, operation, append(attrs, attribute.String("user_id", userID))...)
	start := time.Now()
	return ctx, func(err error) {
		endSpan(err)
		o.recordContact(ctx, operation, time.Since(start), err)
	}
}

// trackAccount is trackContact for mail account operations.
func (o *otelInstrumentation) trackAccount(ctx context.Context, operation, userID string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, endSpan := o.startSpan(ctx, operation, append(attrs, attribute.String("user_id", userID))...)
	start := time.Now()
	return ctx, func(err error) {
		endSpan(err)
		o.recordAccount(ctx, operation, time.Since(start), err)
	}
}
