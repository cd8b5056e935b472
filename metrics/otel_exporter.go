package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export following OTel standards
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	collector     Collector

	// OTel meters and instruments
	meter             metric.Meter
	queueDepthGauge   metric.Int64ObservableGauge
	sourceDepthGauge  metric.Int64ObservableGauge
	statusCountsGauge metric.Int64ObservableGauge
	deadLetterGauge   metric.Int64ObservableGauge
	throughputGauge   metric.Int64ObservableGauge
	activeWorkers     metric.Int64ObservableGauge
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	// Create Prometheus exporter
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	// Create meter provider
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	// Create meter with service info
	meter := meterProvider.Meter(
		"eventpipe",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		collector:     collector,
		meter:         meter,
	}

	// Register metrics instruments
	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	// Active event set depth
	oe.queueDepthGauge, err = oe.meter.Int64ObservableGauge(
		"eventpipe.queue.depth",
		metric.WithDescription("Number of events in the active queue set"),
		metric.WithUnit("{events}"),
		metric.WithInt64Callback(oe.observeQueueDepth),
	)
	if err != nil {
		return fmt.Errorf("creating queue depth gauge: %w", err)
	}

	// Active set depth broken down per webhook source
	oe.sourceDepthGauge, err = oe.meter.Int64ObservableGauge(
		"eventpipe.queue.depth.by_source",
		metric.WithDescription("Number of active events per webhook source"),
		metric.WithUnit("{events}"),
		metric.WithInt64Callback(oe.observeQueueDepths),
	)
	if err != nil {
		return fmt.Errorf("creating per-source queue depth gauge: %w", err)
	}

	// Lifecycle status counts
	oe.statusCountsGauge, err = oe.meter.Int64ObservableGauge(
		"eventpipe.events.by_status",
		metric.WithDescription("Number of events in each lifecycle status"),
		metric.WithUnit("{events}"),
		metric.WithInt64Callback(oe.observeStatusCounts),
	)
	if err != nil {
		return fmt.Errorf("creating status counts gauge: %w", err)
	}

	// Dead-letter backlog
	oe.deadLetterGauge, err = oe.meter.Int64ObservableGauge(
		"eventpipe.deadletter.count",
		metric.WithDescription("Number of dead-lettered events held for review"),
		metric.WithUnit("{events}"),
		metric.WithInt64Callback(oe.observeDeadLetters),
	)
	if err != nil {
		return fmt.Errorf("creating dead letter gauge: %w", err)
	}

	// Throughput gauge (applied events over time windows)
	oe.throughputGauge, err = oe.meter.Int64ObservableGauge(
		"eventpipe.throughput",
		metric.WithDescription("Number of events applied over time window"),
		metric.WithUnit("{events}"),
		metric.WithInt64Callback(oe.observeThroughput),
	)
	if err != nil {
		return fmt.Errorf("creating throughput gauge: %w", err)
	}

	// Active workers gauge
	oe.activeWorkers, err = oe.meter.Int64ObservableGauge(
		"eventpipe.workers.active",
		metric.WithDescription("Number of dispatcher workers with a live heartbeat"),
		metric.WithUnit("{workers}"),
		metric.WithInt64Callback(oe.observeActiveWorkers),
	)
	if err != nil {
		return fmt.Errorf("creating active workers gauge: %w", err)
	}

	return nil
}

// observeQueueDepth is a callback that reports the active set size
func (oe *OTelExporter) observeQueueDepth(ctx context.Context, observer metric.Int64Observer) error {
	depth, err := oe.collector.GetQueueDepth(ctx)
	if err != nil {
		return err
	}
	observer.Observe(depth)
	return nil
}

// observeQueueDepths is a callback that reports per-source active counts
func (oe *OTelExporter) observeQueueDepths(ctx context.Context, observer metric.Int64Observer) error {
	depths, err := oe.collector.GetQueueDepths(ctx)
	if err != nil {
		return err
	}
	for sourceID, depth := range depths {
		observer.Observe(depth, metric.WithAttributes(
			attribute.String("source", sourceID),
		))
	}
	return nil
}

// observeStatusCounts is a callback that reports lifecycle status counts
func (oe *OTelExporter) observeStatusCounts(ctx context.Context, observer metric.Int64Observer) error {
	counts, err := oe.collector.GetStatusCounts(ctx)
	if err != nil {
		return err
	}
	for status, count := range counts {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("status", status),
		))
	}
	return nil
}

// observeDeadLetters is a callback that reports the dead-letter backlog
func (oe *OTelExporter) observeDeadLetters(ctx context.Context, observer metric.Int64Observer) error {
	count, err := oe.collector.GetDeadLetterCount(ctx)
	if err != nil {
		return err
	}
	observer.Observe(count)
	return nil
}

// observeThroughput is a callback that reports throughput metrics
func (oe *OTelExporter) observeThroughput(ctx context.Context, observer metric.Int64Observer) error {
	throughput, err := oe.collector.GetThroughput(ctx)
	if err != nil {
		return err
	}

	observer.Observe(throughput.LastMinute, metric.WithAttributes(
		attribute.String("time.window", "1m"),
	))
	observer.Observe(throughput.LastFiveMinutes, metric.WithAttributes(
		attribute.String("time.window", "5m"),
	))
	observer.Observe(throughput.LastFifteenMinutes, metric.WithAttributes(
		attribute.String("time.window", "15m"),
	))

	return nil
}

// observeActiveWorkers is a callback that reports active worker counts
func (oe *OTelExporter) observeActiveWorkers(ctx context.Context, observer metric.Int64Observer) error {
	workers, err := oe.collector.GetActiveWorkers(ctx)
	if err != nil {
		return err
	}
	observer.Observe(int64(len(workers)))
	return nil
}

// ServeHTTP serves Prometheus-formatted metrics on the given HTTP handler
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.Handler()
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
