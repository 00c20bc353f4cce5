package eventlog

import (
	"context"
	"log/slog"
	"sync"

	"logship/internal/logging"
)

// Logger is the capability set shared by the local and remote variants.
// Every method is safe to call from any failure state; none propagates an
// internal error to the caller.
type Logger interface {
	// LogOperation records an operational event. It always writes to the
	// local sink; the remote variant additionally enqueues a redacted entry
	// of category operation when the backend is healthy.
	LogOperation(message string, level slog.Level, extra Fields)
	// LogMetadata records a metadata document. A nil mapping is rejected
	// with a local warning and skipped for remote persistence.
	LogMetadata(metadata Fields)
	// LogModelResults records a model invocation: input description and
	// result payload. Nil mappings are normalized to empty ones.
	LogModelResults(inputInfo, results, extra Fields)
	// WithContext merges fields into the logger's persistent context
	// (last-write-wins) and returns the same logger for chaining.
	WithContext(fields Fields) Logger

	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
	Debug(message string, args ...any)

	// FlushAll forces delivery attempts for every non-empty buffer
	// regardless of batch size. A no-op on the local variant.
	FlushAll()
	// Close flushes best-effort and releases owned resources.
	Close() error
}

// LocalLogger writes every event to the local sink only. It is always
// available and serves as the fallback when remote delivery cannot be
// constructed.
type LocalLogger struct {
	name     string
	tag      string
	sink     *slog.Logger
	redactor *Redactor

	mu      sync.Mutex
	context Fields
}

// NewLocalLogger builds a local-only logger over the given sink.
func NewLocalLogger(name, tag string, sink *slog.Logger, redactor *Redactor) *LocalLogger {
	if sink == nil {
		sink = logging.NewNop()
	}
	if redactor == nil {
		redactor = NewRedactor(nil)
	}
	return &LocalLogger{
		name:     name,
		tag:      tag,
		sink:     sink,
		redactor: redactor,
		context:  Fields{},
	}
}

func (l *LocalLogger) LogOperation(message string, level slog.Level, extra Fields) {
	l.write(level, message, extra)
}

func (l *LocalLogger) LogMetadata(metadata Fields) {
	if metadata == nil {
		l.sink.Warn("invalid metadata; nothing to record")
		return
	}
	l.sink.Warn("metadata persistence unavailable in local-only mode",
		logging.Args(logging.Any("metadata_keys", sortedKeys(metadata)))...)
}

func (l *LocalLogger) LogModelResults(inputInfo, results, extra Fields) {
	if results == nil {
		results = Fields{}
	}
	l.sink.Warn("model result persistence unavailable in local-only mode",
		logging.Args(logging.Int("result_fields", len(results)))...)
}

func (l *LocalLogger) WithContext(fields Fields) Logger {
	l.mergeContext(fields)
	return l
}

func (l *LocalLogger) Info(message string, args ...any)  { l.sink.Info(message, args...) }
func (l *LocalLogger) Warn(message string, args ...any)  { l.sink.Warn(message, args...) }
func (l *LocalLogger) Error(message string, args ...any) { l.sink.Error(message, args...) }
func (l *LocalLogger) Debug(message string, args ...any) { l.sink.Debug(message, args...) }

func (l *LocalLogger) FlushAll() {}

func (l *LocalLogger) Close() error { return nil }

// write renders one line to the local sink with the persistent context and
// redacted extra fields attached.
func (l *LocalLogger) write(level slog.Level, message string, extra Fields) {
	fields := l.contextSnapshot()
	for key, value := range l.redactor.Apply(extra) {
		fields[key] = value
	}

	args := make([]any, 0, len(fields))
	for _, key := range sortedKeys(fields) {
		args = append(args, slog.Any(key, fields[key]))
	}
	l.sink.Log(context.Background(), level, message, args...)
}

func (l *LocalLogger) mergeContext(fields Fields) {
	redacted := l.redactor.Apply(fields)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, value := range redacted {
		l.context[key] = value
	}
}

func (l *LocalLogger) contextSnapshot() Fields {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyFields(l.context)
}
