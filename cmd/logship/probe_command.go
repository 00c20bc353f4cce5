package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"logship/internal/backend"
	"logship/internal/config"
)

func newProbeCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check connectivity to the configured indexing backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := config.Load(*configFlag)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"config", displayPath(path)},
				{"handler", cfg.Logger.Handler},
				{"backend hosts", strings.Join(cfg.Backend.Hosts, ", ")},
			}

			switch {
			case cfg.Logger.Handler == config.HandlerLocal:
				rows = append(rows, []string{"probe", "skipped (local handler configured)"})
				rows = append(rows, []string{"selection", "local"})
			case len(cfg.Backend.Hosts) == 0:
				rows = append(rows, []string{"probe", "skipped (no hosts configured)"})
				rows = append(rows, []string{"selection", "local"})
			default:
				timeout := time.Duration(cfg.Backend.RequestTimeout) * time.Second
				result, selection := runProbe(cmd.Context(), cfg, timeout)
				rows = append(rows, []string{"probe", result})
				rows = append(rows, []string{"selection", selection})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows))
			return nil
		},
	}
}

func runProbe(ctx context.Context, cfg *config.Config, timeout time.Duration) (result, selection string) {
	client, err := backend.New(backend.Options{
		Hosts:              cfg.Backend.Hosts,
		Timeout:            timeout,
		DisableCompression: cfg.Backend.DisableCompression,
	})
	if err != nil {
		return fmt.Sprintf("client error: %v", err), "local"
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	if err := client.Ping(probeCtx); err != nil {
		return fmt.Sprintf("failed: %v", err), "local"
	}
	return fmt.Sprintf("ok (%s)", time.Since(start).Round(time.Millisecond)), "remote"
}

func displayPath(path string) string {
	if strings.TrimSpace(path) == "" {
		return "(defaults)"
	}
	return path
}
