package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "logship",
		Short:         "Resilient structured-event logging for the indexing backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newProbeCommand(&configFlag))
	rootCmd.AddCommand(newEmitCommand(&configFlag))
	rootCmd.AddCommand(newConfigCommand(&configFlag))

	return rootCmd
}
