package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"logship/internal/config"
	"logship/internal/eventlog"
	"logship/internal/logging"
)

func newEmitCommand(configFlag *string) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Emit sample events through the selected logger and report delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			sink, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init local sink: %w", err)
			}

			selection := eventlog.Select(cfg, sink, nil)
			logger := selection.Logger
			logger.WithContext(eventlog.Fields{"source": "logship emit"})

			for i := 1; i <= count; i++ {
				logger.LogOperation(fmt.Sprintf("sample operation %d", i), slog.LevelInfo,
					eventlog.Fields{"sequence": i})
				logger.LogMetadata(eventlog.Fields{
					"emitter":  "logship",
					"sequence": i,
				})
				logger.LogModelResults(
					eventlog.Fields{"query": fmt.Sprintf("sample query %d", i)},
					eventlog.Fields{"matches": i},
					nil,
				)
			}
			logger.FlushAll()
			closeErr := logger.Close()

			rows := summaryRows(selection, count, closeErr)
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 3, "Number of sample event triples to emit")
	return cmd
}

func summaryRows(selection eventlog.Selection, count int, closeErr error) [][]string {
	rows := [][]string{
		{"variant", string(selection.Variant)},
		{"events emitted", strconv.Itoa(count * 3)},
	}
	if selection.Reason != "" {
		rows = append(rows, []string{"local reason", selection.Reason})
	}
	if remote, ok := selection.Logger.(*eventlog.RemoteLogger); ok {
		stats := remote.Stats()
		rows = append(rows,
			[]string{"enqueued", strconv.FormatUint(stats.Enqueued, 10)},
			[]string{"delivered", strconv.FormatUint(stats.Delivered, 10)},
			[]string{"dropped", strconv.FormatUint(stats.Dropped, 10)},
			[]string{"suppressed", strconv.FormatUint(stats.Suppressed, 10)},
			[]string{"healthy", strconv.FormatBool(remote.Healthy())},
		)
	}
	if closeErr != nil {
		rows = append(rows, []string{"close error", closeErr.Error()})
	}
	return rows
}
