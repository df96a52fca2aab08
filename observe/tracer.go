package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CallMeta identifies a governed provider call for telemetry.
type CallMeta struct {
	Subject  string // caller identity: account, API key hash, tenant
	Endpoint string // logical provider operation, e.g. "chat.completions"
	Provider string // upstream provider name, optional
	Model    string // model identifier, optional
}

// Validate reports whether the metadata names an endpoint. Subject may
// be empty for anonymous calls.
func (m CallMeta) Validate() error {
	if m.Endpoint == "" {
		return ErrMissingEndpoint
	}
	return nil
}

// SpanName returns the span name for this call. Two calls to the same
// endpoint always share a name, so backends can group them.
// Format: provider.call.<endpoint>
func (m CallMeta) SpanName() string {
	if m.Endpoint == "" {
		return "provider.call"
	}
	return "provider.call." + m.Endpoint
}

// attributes returns the span attributes derived from the call
// identity. Optional fields are omitted rather than set empty.
func (m CallMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("call.subject", m.Subject),
		attribute.String("call.endpoint", m.Endpoint),
		attribute.Bool("call.error", false),
	}
	if m.Provider != "" {
		attrs = append(attrs, attribute.String("call.provider", m.Provider))
	}
	if m.Model != "" {
		attrs = append(attrs, attribute.String("call.model", m.Model))
	}
	return attrs
}

// Tracer manages spans for governed provider calls.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines and return ctx.Err() when canceled.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan opens a client span named after the call.
	StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span)

	// EndSpan closes the span, recording err when non-nil.
	EndSpan(span trace.Span, err error)
}

type callTracer struct {
	tracer trace.Tracer
}

func newTracer(t trace.Tracer) Tracer {
	return &callTracer{tracer: t}
}

func (t *callTracer) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(meta.attributes()...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (t *callTracer) EndSpan(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("call.error", true))
		span.RecordError(err)
	}
	span.End()
}

// noopTracer keeps span plumbing alive when tracing is disabled.
type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
