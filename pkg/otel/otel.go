// SPDX-License-Identifier: Apache-2.0

package otel

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instrumentation groups the meter and tracer of a component. A nil
// Instrumentation disables instrumentation.
type Instrumentation struct {
	Meter  metric.Meter
	Tracer trace.Tracer
}

func (i *Instrumentation) IsEnabled() bool {
	return i != nil && (i.Meter != nil || i.Tracer != nil)
}

type InstrumentationProvider interface {
	NewInstrumentation(name string) *Instrumentation
	Close() error
}

type noopProvider struct{}

func (p *noopProvider) NewInstrumentation(name string) *Instrumentation { return nil }
func (p *noopProvider) Close() error                                    { return nil }

// NewInstrumentationProvider returns a provider exporting to the configured
// OTLP endpoints, or a noop provider when neither metrics nor traces are
// configured.
func NewInstrumentationProvider(ctx context.Context, cfg *Config, opts ...ProviderOption) (InstrumentationProvider, error) {
	if !cfg.IsEnabled() {
		return &noopProvider{}, nil
	}
	return NewProvider(ctx, cfg, opts...)
}

// StartSpan starts a span with the tracer on input. With a nil tracer the
// context is returned unchanged and the span is nil.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, nil
	}
	return tracer.Start(ctx, name, opts...)
}

// CloseSpan records the error, if any, and ends the span. Nil spans are
// ignored.
func CloseSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "")
	}
	span.End()
}
