package eventlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"logship/internal/backend"
	"logship/internal/logging"
)

// BulkBackend is the transport batches are delivered through.
// *backend.Client satisfies it.
type BulkBackend interface {
	Bulk(ctx context.Context, docs []backend.Document) error
}

// bulkSender delivers one batch with bounded retries and exponential
// backoff. Failure after exhaustion is terminal for the batch: the health
// state degrades, the loss is reported locally, and the error returned to
// the flush path marks the batch for the dead-letter journal.
type bulkSender struct {
	backend     BulkBackend
	retries     int
	backoffBase time.Duration
	timeout     time.Duration
	sleep       func(time.Duration)
	sink        *slog.Logger
	health      *healthState
	metrics     *metrics
}

func (s *bulkSender) deliver(category Category, docs []backend.Document) error {
	batchID := uuid.NewString()

	for attempt := 1; attempt <= s.retries; attempt++ {
		err := s.attempt(docs)
		if err == nil {
			if s.health.markHealthy() {
				s.sink.Info("indexing backend recovered",
					logging.Args(logging.String(logging.FieldBatchID, batchID))...)
			}
			s.metrics.flushes.WithLabelValues(string(category), "success").Inc()
			return nil
		}

		s.sink.Error("bulk delivery failed", logging.Args(
			logging.String(logging.FieldCategory, string(category)),
			logging.String(logging.FieldBatchID, batchID),
			logging.Int(logging.FieldAttempt, attempt),
			logging.Int("max_attempts", s.retries),
			logging.Error(err),
		)...)

		if attempt < s.retries {
			s.metrics.retries.Inc()
			s.sleep(s.backoffBase << (attempt - 1))
		}
	}

	s.health.markDegraded()
	s.metrics.flushes.WithLabelValues(string(category), "failure").Inc()
	s.metrics.dropped.WithLabelValues(string(category)).Add(float64(len(docs)))
	s.sink.Error("discarding batch after exhausting retries", logging.Args(
		logging.String(logging.FieldCategory, string(category)),
		logging.String(logging.FieldBatchID, batchID),
		logging.Int(logging.FieldLost, len(docs)),
	)...)
	return fmt.Errorf("deliver %s batch: %d entries lost after %d attempts", category, len(docs), s.retries)
}

func (s *bulkSender) attempt(docs []backend.Document) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.backend.Bulk(ctx, docs)
}
