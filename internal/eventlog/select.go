package eventlog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"logship/internal/backend"
	"logship/internal/config"
	"logship/internal/deadletter"
	"logship/internal/logging"
)

// Variant identifies which logger implementation the selector chose.
type Variant string

const (
	VariantLocal  Variant = "local"
	VariantRemote Variant = "remote"
)

// Selection is the outcome of logger construction.
type Selection struct {
	Logger  Logger
	Variant Variant
	// Reason explains a local-only selection; empty when remote is active.
	Reason string
}

// Select constructs the process logger. It never fails: configuration
// problems, a missing backend, or a failed connectivity probe all fall back
// to a local-only logger, and each fallback path reports itself through the
// best layer still functioning. Later delivery failures degrade health but
// never change the selected variant.
func Select(cfg *config.Config, sink *slog.Logger, reg prometheus.Registerer) Selection {
	if sink == nil {
		sink = logging.NewNop()
	}
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	if err := cfg.Validate(); err != nil {
		sink.Warn("invalid logging configuration; using local-only logger",
			logging.Args(logging.Error(err))...)
		defaults := config.Default()
		redactor := NewRedactor(defaults.Redaction.SensitiveFields)
		return Selection{
			Logger:  NewLocalLogger(defaults.Logger.Name, "", sink, redactor),
			Variant: VariantLocal,
			Reason:  "configuration invalid",
		}
	}

	redactor := NewRedactor(cfg.Redaction.SensitiveFields)
	local := NewLocalLogger(cfg.Logger.Name, cfg.Logger.Tag, sink, redactor)

	if cfg.Logger.Handler == config.HandlerLocal {
		sink.Info("local-only event logging selected by configuration")
		return Selection{Logger: local, Variant: VariantLocal, Reason: "configured"}
	}
	if len(cfg.Backend.Hosts) == 0 {
		sink.Warn("no indexing backend hosts configured; using local-only logger")
		return Selection{Logger: local, Variant: VariantLocal, Reason: "no backend hosts configured"}
	}

	timeout := time.Duration(cfg.Backend.RequestTimeout) * time.Second
	client, err := backend.New(backend.Options{
		Hosts:              cfg.Backend.Hosts,
		Timeout:            timeout,
		DisableCompression: cfg.Backend.DisableCompression,
	})
	if err != nil {
		sink.Warn("indexing backend client construction failed; using local-only logger",
			logging.Args(logging.Error(err))...)
		return Selection{Logger: local, Variant: VariantLocal, Reason: "backend client construction failed"}
	}

	probeCtx, cancel := context.WithTimeout(context.Background(), timeout)
	err = client.Ping(probeCtx)
	cancel()
	if err != nil {
		sink.Warn("indexing backend unreachable; using local-only logger",
			logging.Args(logging.Error(err))...)
		return Selection{Logger: local, Variant: VariantLocal, Reason: "connectivity probe failed"}
	}

	// Template installation is best-effort; its failure must not prevent
	// logging.
	templateCtx, cancel := context.WithTimeout(context.Background(), timeout)
	err = client.EnsureTemplate(templateCtx, indexPrefix(cfg.Logger.Name, cfg.Logger.Tag))
	cancel()
	if err != nil {
		sink.Warn("index template installation failed; continuing",
			logging.Args(logging.Error(err))...)
	}

	var journal Journal
	if path := strings.TrimSpace(cfg.Delivery.DeadLetterPath); path != "" {
		store, err := deadletter.Open(path)
		if err != nil {
			sink.Warn("dead-letter journal unavailable; discarded batches will not be journaled",
				logging.Args(logging.Error(err))...)
		} else {
			journal = store
		}
	}

	var registerer prometheus.Registerer
	if cfg.Metrics.Enabled {
		registerer = reg
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
	}

	remote := NewRemoteLogger(RemoteOptions{
		Name:           cfg.Logger.Name,
		Tag:            cfg.Logger.Tag,
		Sink:           sink,
		Backend:        client,
		Redactor:       redactor,
		Journal:        journal,
		BatchSize:      cfg.Delivery.BatchSize,
		RetryCount:     cfg.Delivery.RetryCount,
		BackoffBase:    time.Duration(cfg.Delivery.BackoffBaseMS) * time.Millisecond,
		RequestTimeout: timeout,
		Registerer:     registerer,
	})

	sink.Info("remote event logging active", logging.Args(
		logging.String(logging.FieldInstanceID, remote.InstanceID()),
		logging.String("backend_hosts", strings.Join(cfg.Backend.Hosts, ",")),
		logging.Int("batch_size", cfg.Delivery.BatchSize),
	)...)
	return Selection{Logger: remote, Variant: VariantRemote}
}
