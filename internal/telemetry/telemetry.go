package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const logDir = "logs"

// Telemetry bundles the process-wide observability handles.
type Telemetry struct {
	Logger *slog.Logger
	Tracer trace.Tracer
	Meter  metric.Meter

	traceFile  *lumberjack.Logger
	metricFile *lumberjack.Logger
	tp         *sdktrace.TracerProvider
	mp         *sdkmetric.MeterProvider
}

// Init sets up structured JSON logging with rotation plus OTel tracing and
// metrics exported to rotated files under ./logs. The SDK providers are
// registered globally, so an OTel collector can still attach.
func Init(ctx context.Context, serviceName string) (*Telemetry, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(rotatedFile(serviceName+".log"), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceFile := rotatedFile(serviceName + "_traces.log")
	traceExporter, err := stdouttrace.New(
		stdouttrace.WithWriter(traceFile),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricFile := rotatedFile(serviceName + "_metrics.log")
	metricExporter, err := stdoutmetric.New(
		stdoutmetric.WithWriter(metricFile),
		stdoutmetric.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(10*time.Second)),
		),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return &Telemetry{
		Logger:     logger,
		Tracer:     tp.Tracer(serviceName),
		Meter:      mp.Meter(serviceName),
		traceFile:  traceFile,
		metricFile: metricFile,
		tp:         tp,
		mp:         mp,
	}, nil
}

// Shutdown flushes and closes the providers and their files.
func (t *Telemetry) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := t.tp.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown tracer provider", "error", err)
	}
	if err := t.mp.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown meter provider", "error", err)
	}
	if err := t.traceFile.Close(); err != nil {
		slog.Error("failed to close trace file", "error", err)
	}
	if err := t.metricFile.Close(); err != nil {
		slog.Error("failed to close metric file", "error", err)
	}
}

func rotatedFile(name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(logDir, name),
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}
