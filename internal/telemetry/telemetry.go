package telemetry

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"familytree/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

const instrumentationName = "familytree"

// Recorder is the set of domain measurements the application reports.
// Tests use Noop.
type Recorder interface {
	RecordMutation(ctx context.Context, operation string, success bool)
	RecordTreeBuild(ctx context.Context, members int, duration time.Duration)
	RecordLoginAttempt(ctx context.Context, success bool, reason string)
}

type Telemetry struct {
	tracerProvider *trace.TracerProvider
	loggerProvider *sdklog.LoggerProvider
	meterProvider  *sdkmetric.MeterProvider
	config         config.TelemetryConfig

	mutations     metric.Int64Counter
	treeBuilds    metric.Float64Histogram
	loginAttempts metric.Int64Counter
}

// New creates a telemetry instance with OTLP gRPC exporters for traces,
// logs and metrics. A disabled config yields an instance whose recorders
// do nothing.
func New(cfg config.TelemetryConfig) (*Telemetry, error) {
	if !cfg.Enabled || cfg.ExporterURL == "" {
		slog.Info("Telemetry disabled or no exporter URL provided")
		return &Telemetry{config: cfg}, nil
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	)

	endpoint, creds := exporterTarget(cfg.ExporterURL)
	ctx := context.Background()

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithTLSCredentials(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	logExporter, err := otlploggrpc.New(ctx,
		otlploggrpc.WithEndpoint(endpoint),
		otlploggrpc.WithTLSCredentials(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithTLSCredentials(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.SamplingRatio))),
	)

	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(10*time.Second))),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	global.SetLoggerProvider(lp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t := &Telemetry{
		tracerProvider: tp,
		loggerProvider: lp,
		meterProvider:  mp,
		config:         cfg,
	}

	if err := t.initMetrics(mp.Meter(instrumentationName)); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	slog.Info("Telemetry initialized successfully",
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"environment", cfg.Environment,
		"endpoint", endpoint,
		"sampling_ratio", cfg.SamplingRatio,
	)

	return t, nil
}

// exporterTarget strips the scheme from the endpoint. Plain gRPC is used
// unless the endpoint was given as https.
func exporterTarget(url string) (string, credentials.TransportCredentials) {
	if strings.HasPrefix(url, "https://") {
		return strings.TrimPrefix(url, "https://"), credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	endpoint := strings.TrimPrefix(url, "grpc://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return endpoint, insecure.NewCredentials()
}

func (t *Telemetry) initMetrics(meter metric.Meter) error {
	var err error

	t.mutations, err = meter.Int64Counter(
		"familytree_member_mutations_total",
		metric.WithDescription("Member add, update and delete operations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create mutations counter: %w", err)
	}

	t.treeBuilds, err = meter.Float64Histogram(
		"familytree_tree_build_duration_seconds",
		metric.WithDescription("Time spent building the display hierarchy"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create tree build histogram: %w", err)
	}

	t.loginAttempts, err = meter.Int64Counter(
		"familytree_login_attempts_total",
		metric.WithDescription("Shared password login attempts"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create login attempts counter: %w", err)
	}

	return nil
}

// Shutdown flushes and stops every provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace provider shutdown: %w", err))
		}
	}

	if t.loggerProvider != nil {
		if err := t.loggerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("log provider shutdown: %w", err))
		}
	}

	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (t *Telemetry) Tracer(name string) oteltrace.Tracer {
	return otel.Tracer(name)
}

func (t *Telemetry) IsEnabled() bool {
	return t.config.Enabled && t.tracerProvider != nil
}

func (t *Telemetry) RecordMutation(ctx context.Context, operation string, success bool) {
	if t.mutations == nil {
		return
	}
	t.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	))
}

func (t *Telemetry) RecordTreeBuild(ctx context.Context, members int, duration time.Duration) {
	if t.treeBuilds == nil {
		return
	}
	t.treeBuilds.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("size", sizeBucket(members)),
	))
}

func (t *Telemetry) RecordLoginAttempt(ctx context.Context, success bool, reason string) {
	if t.loginAttempts == nil {
		return
	}
	t.loginAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
		attribute.String("reason", reason),
	))
}

// sizeBucket keeps the histogram attribute cardinality low.
func sizeBucket(members int) string {
	switch {
	case members < 50:
		return "small"
	case members < 500:
		return "medium"
	default:
		return "large"
	}
}

type Noop struct{}

func (Noop) RecordMutation(context.Context, string, bool)        {}
func (Noop) RecordTreeBuild(context.Context, int, time.Duration) {}
func (Noop) RecordLoginAttempt(context.Context, bool, string)    {}
