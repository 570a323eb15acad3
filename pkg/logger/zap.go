package logger

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tilvane/accountd/pkg/constants"
)

type zapLogger struct {
	l *zap.Logger
}

// NewZap creates a JSON-encoded zap-backed Logger at the given level
// ("debug", "info", "warn", "error").
func NewZap(level string) (Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		lvl,
	)

	return &zapLogger{l: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}, nil
}

func (z *zapLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	z.l.Debug(msg, z.convert(ctx, fields)...)
}

func (z *zapLogger) Info(ctx context.Context, msg string, fields ...Field) {
	z.l.Info(msg, z.convert(ctx, fields)...)
}

func (z *zapLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	z.l.Warn(msg, z.convert(ctx, fields)...)
}

func (z *zapLogger) Error(ctx context.Context, msg string, err error, fields ...Field) {
	if err != nil {
		fields = append(fields, Err(err))
	}
	z.l.Error(msg, z.convert(ctx, fields)...)
}

func (z *zapLogger) WithComponent(component string) Logger {
	return &zapLogger{l: z.l.With(zap.String("component", component))}
}

func (z *zapLogger) WithFields(fields ...Field) Logger {
	zf := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		zf = append(zf, zap.Any(f.Key, sanitize(f.Key, f.Value)))
	}
	return &zapLogger{l: z.l.With(zf...)}
}

// convert translates fields, masks sensitive values and attaches request and
// trace correlation ids pulled from the context.
func (z *zapLogger) convert(ctx context.Context, fields []Field) []zap.Field {
	zf := make([]zap.Field, 0, len(fields)+3)

	if ctx != nil {
		if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
			zf = append(zf,
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("span_id", span.SpanContext().SpanID().String()),
			)
		}
		if requestID, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok {
			zf = append(zf, zap.String("request_id", requestID))
		}
	}

	for _, f := range fields {
		zf = append(zf, zap.Any(f.Key, sanitize(f.Key, f.Value)))
	}
	return zf
}
