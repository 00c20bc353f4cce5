package logging

const (
	// FieldLoggerName is the structured key the line handler lifts into the
	// fixed logger-name position of every rendered line.
	FieldLoggerName = "logger_name"
	// FieldCategory is the standardized key for event categories.
	FieldCategory = "category"
	// FieldBatchID is the standardized key for bulk delivery batch identifiers.
	FieldBatchID = "batch_id"
	// FieldInstanceID is the standardized key for per-process logger instance IDs.
	FieldInstanceID = "instance_id"
	// FieldAttempt is the standardized key for delivery attempt numbers.
	FieldAttempt = "attempt"
	// FieldLost is the standardized key for counts of entries lost to a
	// discarded batch.
	FieldLost = "lost"
)
