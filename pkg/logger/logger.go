// Package logger provides structured, context-aware logging for the accountd
// service. The Logger interface decouples callers from the zap backend and
// lets tests plug in a no-op implementation.
package logger

import (
	"context"
	"strings"
	"time"
)

// Field is a key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// String creates a string field.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Int creates an int field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Int64 creates an int64 field.
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Bool creates a bool field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Float64 creates a float64 field.
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Err creates an error field.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Any creates a field with an arbitrary value.
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Logger is the structured logging interface.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, err error, fields ...Field)

	// WithComponent returns a logger tagged with a component name.
	WithComponent(component string) Logger
	// WithFields returns a logger carrying additional base fields.
	WithFields(fields ...Field) Logger
}

// sensitive lists lowercase substrings of field keys whose values are masked.
var sensitive = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"api-key",
	"authorization",
	"private_key",
	"cookie",
}

// sanitize masks values of sensitive-looking keys.
func sanitize(key string, value any) any {
	lower := strings.ToLower(key)
	for _, s := range sensitive {
		if strings.Contains(lower, s) {
			if str, ok := value.(string); ok && len(str) > 8 {
				return str[:4] + "***" + str[len(str)-4:]
			}
			return "***REDACTED***"
		}
	}
	return value
}

// nopLogger discards everything. Used in tests.
type nopLogger struct{}

// NewNop returns a Logger that discards all entries.
func NewNop() Logger { return nopLogger{} }

func (nopLogger) Debug(context.Context, string, ...Field)        {}
func (nopLogger) Info(context.Context, string, ...Field)         {}
func (nopLogger) Warn(context.Context, string, ...Field)         {}
func (nopLogger) Error(context.Context, string, error, ...Field) {}
func (n nopLogger) WithComponent(string) Logger                  { return n }
func (n nopLogger) WithFields(...Field) Logger                   { return n }
