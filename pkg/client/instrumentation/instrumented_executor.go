// SPDX-License-Identifier: Apache-2.0

package instrumentation

import (
	"context"
	"fmt"
	"time"

	"github.com/xataio/ftsearch/pkg/client"
	"github.com/xataio/ftsearch/pkg/otel"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Metric names recorded by the instrumented executor, with a command
// attribute.
const (
	LatencyMetric = "ftsearch.executor.latency"
	ErrorsMetric  = "ftsearch.executor.errors"
)

// Executor wraps an executor with a span per command, a latency histogram
// and an error counter, both keyed by command name.
type Executor struct {
	inner   client.Executor
	tracer  trace.Tracer
	meter   metric.Meter
	metrics *executorMetrics
}

type executorMetrics struct {
	latency metric.Int64Histogram
	errors  metric.Int64Counter
}

func NewExecutor(inner client.Executor, instrumentation *otel.Instrumentation) (client.Executor, error) {
	if !instrumentation.IsEnabled() {
		return inner, nil
	}

	e := &Executor{
		inner:   inner,
		tracer:  instrumentation.Tracer,
		meter:   instrumentation.Meter,
		metrics: &executorMetrics{},
	}

	if err := e.initMetrics(); err != nil {
		return nil, fmt.Errorf("error initialising executor metrics: %w", err)
	}

	return e, nil
}

func (e *Executor) Execute(ctx context.Context, args []string) (reply any, err error) {
	command := commandName(args)
	attrs := []attribute.KeyValue{attribute.String("command", command)}
	if len(args) > 1 {
		attrs = append(attrs, attribute.String("key", args[1]))
	}

	ctx, span := otel.StartSpan(ctx, e.tracer, "executor.Execute", trace.WithAttributes(attrs...))
	defer func() { otel.CloseSpan(span, err) }()

	start := time.Now()
	reply, err = e.inner.Execute(ctx, args)

	if e.meter != nil {
		cmdAttr := metric.WithAttributes(attribute.String("command", command))
		e.metrics.latency.Record(ctx, time.Since(start).Milliseconds(), cmdAttr)
		if err != nil {
			e.metrics.errors.Add(ctx, 1, cmdAttr)
		}
	}

	return reply, err
}

func (e *Executor) initMetrics() error {
	if e.meter == nil {
		return nil
	}

	var err error
	e.metrics.latency, err = e.meter.Int64Histogram(LatencyMetric,
		metric.WithUnit("ms"),
		metric.WithDescription("Distribution of the time taken to execute a command"))
	if err != nil {
		return err
	}

	e.metrics.errors, err = e.meter.Int64Counter(ErrorsMetric,
		metric.WithUnit("errors"),
		metric.WithDescription("Count of commands that failed to execute"))
	if err != nil {
		return err
	}

	return nil
}

func commandName(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
