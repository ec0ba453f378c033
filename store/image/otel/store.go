// Package otel adds OpenTelemetry spans and metrics to an image store.
package otel

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/rbaliyan/groupware/store"
)

const instrumentationName = "github.com/rbaliyan/groupware/store/image/otel"

// Store wraps an ImageFileStore with instrumentation.
type Store struct {
	backend store.ImageFileStore
	opts    *options
	tracer  trace.Tracer

	duration metric.Float64Histogram
	calls    metric.Int64Counter
	errors   metric.Int64Counter
	bytes    metric.Int64Counter
}

var _ store.ImageFileStore = (*Store)(nil)

// New wraps backend.
func New(backend store.ImageFileStore, opts ...Option) (*Store, error) {
	o := &options{
		tracingEnabled: true,
		metricsEnabled: true,
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(o)
	}

	s := &Store{backend: backend, opts: o}
	if o.tracingEnabled {
		s.tracer = o.tracerProvider.Tracer(instrumentationName)
	}
	if o.metricsEnabled {
		if err := s.initMetrics(o.meterProvider.Meter(instrumentationName)); err != nil {
			return nil, fmt.Errorf("init metrics: %w", err)
		}
	}
	return s, nil
}

func (s *Store) initMetrics(meter metric.Meter) error {
	var err error
	if s.duration, err = meter.Float64Histogram("groupware.image.duration",
		metric.WithDescription("Duration of image store operations"),
		metric.WithUnit("s")); err != nil {
		return err
	}
	if s.calls, err = meter.Int64Counter("groupware.image.calls",
		metric.WithDescription("Number of image store operations")); err != nil {
		return err
	}
	if s.errors, err = meter.Int64Counter("groupware.image.errors",
		metric.WithDescription("Number of failed image store operations")); err != nil {
		return err
	}
	s.bytes, err = meter.Int64Counter("groupware.image.bytes",
		metric.WithDescription("Bytes uploaded and loaded"),
		metric.WithUnit("By"))
	return err
}

// op tracks one call. finish must be called exactly once.
type op struct {
	s     *Store
	ctx   context.Context
	name  string
	span  trace.Span
	start time.Time
}

func (s *Store) begin(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *op) {
	o := &op{s: s, name: name, start: time.Now()}
	if s.tracer != nil {
		ctx, o.span = s.tracer.Start(ctx, "image."+name,
			trace.WithAttributes(attrs...),
			trace.WithSpanKind(trace.SpanKindClient))
	}
	o.ctx = ctx
	return ctx, o
}

func (o *op) finish(n int64, err error) {
	s := o.s
	if s.opts.metricsEnabled {
		attrs := metric.WithAttributes(attribute.String("operation", o.name))
		s.duration.Record(o.ctx, time.Since(o.start).Seconds(), attrs)
		s.calls.Add(o.ctx, 1, attrs)
		if n > 0 {
			s.bytes.Add(o.ctx, n, attrs)
		}
		if err != nil {
			s.errors.Add(o.ctx, 1, attrs)
		}
	}
	if o.span != nil {
		if n > 0 {
			o.span.SetAttributes(attribute.Int64("image.bytes", n))
		}
		if err != nil {
			o.span.RecordError(err)
			o.span.SetStatus(codes.Error, err.Error())
		} else {
			o.span.SetStatus(codes.Ok, "")
		}
		o.span.End()
	}
}

// Upload instruments the backend Upload.
func (s *Store) Upload(ctx context.Context, filename, contentType string, content io.Reader) (string, error) {
	ctx, o := s.begin(ctx, "upload",
		attribute.String("image.filename", filename),
		attribute.String("image.content_type", contentType))
	cr := &countingReader{r: content}
	uri, err := s.backend.Upload(ctx, filename, contentType, cr)
	o.finish(cr.n, err)
	return uri, err
}

// Load instruments the backend Load. The span ends when the reader is
// closed.
func (s *Store) Load(ctx context.Context, uri string) (io.ReadCloser, error) {
	ctx, o := s.begin(ctx, "load", attribute.String("image.uri", uri))
	rc, err := s.backend.Load(ctx, uri)
	if err != nil {
		o.finish(0, err)
		return nil, err
	}
	return &tracedReader{rc: rc, op: o}, nil
}

// Delete instruments the backend Delete.
func (s *Store) Delete(ctx context.Context, uri string) error {
	ctx, o := s.begin(ctx, "delete", attribute.String("image.uri", uri))
	err := s.backend.Delete(ctx, uri)
	o.finish(0, err)
	return err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type tracedReader struct {
	rc     io.ReadCloser
	op     *op
	n      int64
	closed bool
}

func (r *tracedReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	r.n += int64(n)
	return n, err
}

func (r *tracedReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.rc.Close()
	r.op.finish(r.n, err)
	return err
}
