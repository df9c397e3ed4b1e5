// SPDX-License-Identifier: Apache-2.0

package otel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// IndexesKey is the resource attribute listing the search indexes of the
// process.
const IndexesKey = attribute.Key("ftsearch.indexes")

// Provider hands out meters and tracers for the configured sections. Metrics
// are exported with a periodic OTLP gRPC reader and traces with a batching
// OTLP gRPC processor, unless replaced with provider options.
type Provider struct {
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	shutdownFns    []func(context.Context) error

	metricReader  sdkmetric.Reader
	spanProcessor sdktrace.SpanProcessor
	views         []sdkmetric.View
	setGlobal     bool
}

type ProviderOption func(*Provider)

// WithMetricReader replaces the OTLP metric exporter, e.g. with a manual
// reader.
func WithMetricReader(r sdkmetric.Reader) ProviderOption {
	return func(p *Provider) {
		p.metricReader = r
	}
}

// WithSpanProcessor replaces the OTLP span exporter.
func WithSpanProcessor(sp sdktrace.SpanProcessor) ProviderOption {
	return func(p *Provider) {
		p.spanProcessor = sp
	}
}

// WithHistogramBuckets sets explicit bucket boundaries on the named
// histogram.
func WithHistogramBuckets(name string, boundaries ...float64) ProviderOption {
	return func(p *Provider) {
		p.views = append(p.views, sdkmetric.NewView(
			sdkmetric.Instrument{Name: name, Kind: sdkmetric.InstrumentKindHistogram},
			sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{Boundaries: boundaries}},
		))
	}
}

// WithoutGlobal keeps the providers out of the otel globals.
func WithoutGlobal() ProviderOption {
	return func(p *Provider) {
		p.setGlobal = false
	}
}

func NewProvider(ctx context.Context, cfg *Config, opts ...ProviderOption) (*Provider, error) {
	p := &Provider{setGlobal: true}
	for _, opt := range opts {
		opt(p)
	}

	res := newResource(cfg)
	if err := p.initMeterProvider(ctx, cfg.Metrics, res); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if err := p.initTracerProvider(ctx, cfg.Traces, res); err != nil {
		p.Close()
		return nil, fmt.Errorf("traces: %w", err)
	}

	if p.setGlobal {
		otel.SetMeterProvider(p.meterProvider)
		otel.SetTracerProvider(p.tracerProvider)
	}
	return p, nil
}

func (p *Provider) Meter(name string) metric.Meter {
	return p.meterProvider.Meter(name)
}

func (p *Provider) Tracer(name string) trace.Tracer {
	return p.tracerProvider.Tracer(name)
}

func (p *Provider) NewInstrumentation(name string) *Instrumentation {
	return &Instrumentation{
		Meter:  p.Meter(name),
		Tracer: p.Tracer(name),
	}
}

// Close flushes and shuts down every configured section, even when one of
// them fails.
func (p *Provider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	for _, shutdownFn := range p.shutdownFns {
		errs = append(errs, shutdownFn(ctx))
	}
	return errors.Join(errs...)
}

func (p *Provider) initMeterProvider(ctx context.Context, cfg *MetricsConfig, res *resource.Resource) error {
	if cfg == nil && p.metricReader == nil {
		p.meterProvider = metricnoop.NewMeterProvider()
		return nil
	}

	reader := p.metricReader
	if reader == nil {
		exporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithTemporalitySelector(deltaSelector),
			otlpmetricgrpc.WithInsecure(),
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint))
		if err != nil {
			return err
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.collectionInterval()))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithView(p.views...))
	p.shutdownFns = append(p.shutdownFns, mp.Shutdown)
	p.meterProvider = mp
	return nil
}

func (p *Provider) initTracerProvider(ctx context.Context, cfg *TracesConfig, res *resource.Resource) error {
	if cfg == nil && p.spanProcessor == nil {
		p.tracerProvider = tracenoop.NewTracerProvider()
		return nil
	}

	processor := p.spanProcessor
	if processor == nil {
		exporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.Endpoint))
		if err != nil {
			return err
		}
		processor = sdktrace.NewBatchSpanProcessor(exporter)
	}

	sampler := sdktrace.AlwaysSample()
	if cfg != nil {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithSampler(sampler))
	p.shutdownFns = append(p.shutdownFns, tp.Shutdown)
	p.tracerProvider = tp
	return nil
}

func newResource(cfg *Config) *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(cfg.serviceName()),
		semconv.ServiceVersionKey.String(version()),
	}
	if len(cfg.Indexes) > 0 {
		attrs = append(attrs, IndexesKey.StringSlice(cfg.Indexes))
	}
	return resource.NewSchemaless(attrs...)
}

// deltaSelector exports counters and histograms with delta temporality and
// up/down counters as cumulative.
func deltaSelector(kind sdkmetric.InstrumentKind) metricdata.Temporality {
	switch kind {
	case sdkmetric.InstrumentKindUpDownCounter,
		sdkmetric.InstrumentKindObservableUpDownCounter:
		return metricdata.CumulativeTemporality
	default:
		return metricdata.DeltaTemporality
	}
}
