package eventlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"logship/internal/backend"
	"logship/internal/logging"
)

// maxLogDepth caps re-entrant LogOperation calls before the recursion guard
// drops the call with a direct sink write.
const maxLogDepth = 3

// Journal receives batches discarded after retry exhaustion.
type Journal interface {
	Record(ctx context.Context, category string, docs []backend.Document, reason string) error
}

// RemoteOptions configures a RemoteLogger. Zero values fall back to the
// documented defaults.
type RemoteOptions struct {
	Name           string
	Tag            string
	Sink           *slog.Logger
	Backend        BulkBackend
	Redactor       *Redactor
	Journal        Journal
	BatchSize      int
	RetryCount     int
	BackoffBase    time.Duration
	RequestTimeout time.Duration
	Registerer     prometheus.Registerer

	// DirectWriter receives recursion-guard bypass writes. Defaults to
	// stderr.
	DirectWriter io.Writer
	// Sleep is the backoff delay function; tests inject a recorder.
	Sleep func(time.Duration)
}

// Stats is a snapshot of remote delivery activity.
type Stats struct {
	Enqueued   uint64
	Delivered  uint64
	Dropped    uint64
	Suppressed uint64
}

type categoryBuffer struct {
	buf batchBuffer
	// flushMu serializes flushes for the category: a flush completes
	// (success or exhausted retries) before the next one may start.
	flushMu sync.Mutex
}

// RemoteLogger writes every event to the local sink and, while healthy,
// buffers redacted entries per category for bulk delivery. Flushes run
// synchronously on the enqueuing call that crosses the batch threshold.
type RemoteLogger struct {
	local      *LocalLogger
	redactor   *Redactor
	name       string
	tag        string
	uniqueName string
	instanceID string

	buffers map[Category]*categoryBuffer
	sender  *bulkSender
	health  *healthState
	journal Journal
	metrics *metrics
	direct  io.Writer

	depth atomic.Int32

	enqueued   atomic.Uint64
	delivered  atomic.Uint64
	dropped    atomic.Uint64
	suppressed atomic.Uint64

	closeOnce sync.Once
	closeErr  error
}

// NewRemoteLogger builds the composite remote logger. The backend is
// assumed probed by the selector; a logger built against an unreachable
// backend simply degrades on its first flush.
func NewRemoteLogger(opts RemoteOptions) *RemoteLogger {
	if opts.Sink == nil {
		opts.Sink = logging.NewNop()
	}
	if opts.Redactor == nil {
		opts.Redactor = NewRedactor(nil)
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 50
	}
	if opts.RetryCount < 1 {
		opts.RetryCount = 3
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.DirectWriter == nil {
		opts.DirectWriter = os.Stderr
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}

	uniqueName := opts.Name
	if opts.Tag != "" {
		uniqueName = opts.Name + "_" + opts.Tag
	}

	health := &healthState{}
	m := newMetrics(opts.Registerer)

	r := &RemoteLogger{
		local:      NewLocalLogger(opts.Name, opts.Tag, opts.Sink, opts.Redactor),
		redactor:   opts.Redactor,
		name:       opts.Name,
		tag:        opts.Tag,
		uniqueName: uniqueName,
		instanceID: uuid.NewString(),
		buffers:    make(map[Category]*categoryBuffer, len(Categories)),
		health:     health,
		journal:    opts.Journal,
		metrics:    m,
		direct:     opts.DirectWriter,
	}
	for _, category := range Categories {
		r.buffers[category] = &categoryBuffer{buf: batchBuffer{limit: opts.BatchSize}}
	}
	r.sender = &bulkSender{
		backend:     opts.Backend,
		retries:     opts.RetryCount,
		backoffBase: opts.BackoffBase,
		timeout:     opts.RequestTimeout,
		sleep:       opts.Sleep,
		sink:        opts.Sink,
		health:      health,
		metrics:     m,
	}
	return r
}

func (r *RemoteLogger) LogOperation(message string, level slog.Level, extra Fields) {
	depth := r.depth.Add(1)
	defer r.depth.Add(-1)
	if depth > maxLogDepth {
		fmt.Fprintf(r.direct, "logship: recursion ceiling reached, dropping operation log: %s\n", message)
		return
	}
	defer r.absorb("log operation")

	r.local.LogOperation(message, level, extra)

	if !r.remoteReady() {
		return
	}
	entry := r.newEntry(CategoryOperation, Fields{
		"message": message,
		"level":   levelName(level),
	}, extra)
	r.enqueue(CategoryOperation, entry)
}

func (r *RemoteLogger) LogMetadata(metadata Fields) {
	defer r.absorb("log metadata")

	if metadata == nil {
		r.local.Warn("invalid metadata; skipping remote persistence")
		return
	}
	r.local.Debug("metadata recorded",
		logging.Args(logging.Any("metadata_keys", sortedKeys(metadata)))...)

	if !r.remoteReady() {
		return
	}
	entry := r.newEntry(CategoryMetadata, Fields{"metadata": copyFields(metadata)}, nil)
	r.enqueue(CategoryMetadata, entry)
}

func (r *RemoteLogger) LogModelResults(inputInfo, results, extra Fields) {
	defer r.absorb("log model results")

	if inputInfo == nil {
		inputInfo = Fields{}
	}
	if results == nil {
		results = Fields{}
	}
	r.local.Debug("model results recorded",
		logging.Args(logging.Int("result_fields", len(results)))...)

	if !r.remoteReady() {
		return
	}
	entry := r.newEntry(CategoryResult, Fields{
		"input_info": copyFields(inputInfo),
		"results":    copyFields(results),
	}, extra)
	r.enqueue(CategoryResult, entry)
}

func (r *RemoteLogger) WithContext(fields Fields) Logger {
	r.local.mergeContext(fields)
	return r
}

func (r *RemoteLogger) Info(message string, args ...any)  { r.local.Info(message, args...) }
func (r *RemoteLogger) Warn(message string, args ...any)  { r.local.Warn(message, args...) }
func (r *RemoteLogger) Error(message string, args ...any) { r.local.Error(message, args...) }
func (r *RemoteLogger) Debug(message string, args ...any) { r.local.Debug(message, args...) }

// FlushAll forces a delivery attempt for every non-empty buffer regardless
// of the batch size threshold.
func (r *RemoteLogger) FlushAll() {
	defer r.absorb("flush all")
	for _, category := range Categories {
		r.flush(category)
	}
}

// Close flushes best-effort and releases the dead-letter journal.
func (r *RemoteLogger) Close() error {
	r.closeOnce.Do(func() {
		r.FlushAll()
		if closer, ok := r.journal.(io.Closer); ok && closer != nil {
			r.closeErr = closer.Close()
		}
	})
	return r.closeErr
}

// Healthy reports whether remote delivery is currently attempted.
func (r *RemoteLogger) Healthy() bool { return r.health.healthy() }

// InstanceID identifies this logger instance in every shipped entry.
func (r *RemoteLogger) InstanceID() string { return r.instanceID }

// Pending returns the number of buffered entries for a category.
func (r *RemoteLogger) Pending(category Category) int {
	cb, ok := r.buffers[category]
	if !ok {
		return 0
	}
	return cb.buf.size()
}

// Stats snapshots delivery activity counters.
func (r *RemoteLogger) Stats() Stats {
	return Stats{
		Enqueued:   r.enqueued.Load(),
		Delivered:  r.delivered.Load(),
		Dropped:    r.dropped.Load(),
		Suppressed: r.suppressed.Load(),
	}
}

func (r *RemoteLogger) remoteReady() bool {
	if r.health.healthy() {
		return true
	}
	r.suppressed.Add(1)
	r.metrics.suppressed.Inc()
	return false
}

func (r *RemoteLogger) newEntry(category Category, base, extra Fields) Entry {
	fields := copyFields(base)
	if fields == nil {
		fields = Fields{}
	}
	fields[logging.FieldInstanceID] = r.instanceID
	return newEntry(r.name, r.uniqueName, category, r.redactor, r.local.contextSnapshot(), fields, extra)
}

func (r *RemoteLogger) enqueue(category Category, entry Entry) {
	r.enqueued.Add(1)
	r.metrics.enqueued.WithLabelValues(string(category)).Inc()
	if r.buffers[category].buf.add(entry) {
		r.tryFlush(category)
	}
}

// tryFlush runs a threshold-triggered flush unless one is already in
// progress for the category. A sink handler that logs back into this logger
// while a flush reports its failure would otherwise re-acquire the flush
// mutex on the same goroutine and never return; skipping leaves the entry
// buffered for the next threshold crossing or FlushAll.
func (r *RemoteLogger) tryFlush(category Category) {
	cb := r.buffers[category]
	if !cb.flushMu.TryLock() {
		return
	}
	defer cb.flushMu.Unlock()
	r.flushLocked(cb, category)
}

func (r *RemoteLogger) flush(category Category) {
	cb := r.buffers[category]
	cb.flushMu.Lock()
	defer cb.flushMu.Unlock()
	r.flushLocked(cb, category)
}

func (r *RemoteLogger) flushLocked(cb *categoryBuffer, category Category) {
	entries := cb.buf.takeAll()
	if len(entries) == 0 {
		return
	}

	index := indexName(r.name, r.tag, category)
	docs := make([]backend.Document, len(entries))
	for i, entry := range entries {
		docs[i] = backend.Document{Index: index, Source: entry.Document()}
	}

	if err := r.sender.deliver(category, docs); err != nil {
		r.dropped.Add(uint64(len(docs)))
		if r.journal != nil {
			if jerr := r.journal.Record(context.Background(), string(category), docs, err.Error()); jerr != nil {
				r.local.Warn("dead-letter journal write failed", logging.Args(logging.Error(jerr))...)
			}
		}
		return
	}
	r.delivered.Add(uint64(len(docs)))
}

// absorb keeps internal panics from crossing the facade boundary. The
// report bypasses the normal logging path.
func (r *RemoteLogger) absorb(op string) {
	if rec := recover(); rec != nil {
		fmt.Fprintf(r.direct, "logship: recovered during %s: %v\n", op, rec)
	}
}
