package log

import (
	"context"
	"os"

	"github.com/hyperdxio/opentelemetry-go/otelzap"
	"github.com/hyperdxio/opentelemetry-logs-go/exporters/otlp/otlplogs"
	sdk "github.com/hyperdxio/opentelemetry-logs-go/sdk/logs"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger writes to stderr so stdout stays free for command output.
// With export enabled log records are also shipped over OTLP.
func InitLogger(ctx context.Context, level string, export bool) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zap.InfoLevel
	}

	consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), lvl),
	}

	if export {
		if core := exportCore(ctx, zap.New(cores[0])); core != nil {
			cores = append(cores, core)
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}

var newLogExporter = func(ctx context.Context) (sdk.LogRecordExporter, error) {
	exporter, err := otlplogs.NewExporter(ctx)
	if err != nil {
		return nil, err
	}
	return exporter, nil
}

// exportCore returns nil when the OTLP exporter cannot be built; the
// failure goes to console.
func exportCore(ctx context.Context, console *zap.Logger) zapcore.Core {
	logExporter, err := newLogExporter(ctx)
	if err != nil {
		console.Warn("Error creating log exporter, logging to console only", zap.Error(err))
		return nil
	}
	loggerProvider := sdk.NewLoggerProvider(
		sdk.WithBatcher(logExporter),
	)
	return otelzap.NewOtelCore(loggerProvider)
}

func LoggerWithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	spanContext := trace.SpanContextFromContext(ctx)
	if !spanContext.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", spanContext.TraceID().String()),
		zap.String("span_id", spanContext.SpanID().String()),
	)
}
