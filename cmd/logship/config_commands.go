package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"logship/internal/config"
)

func newConfigCommand(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or initialize logship configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a commented sample config to the default location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *configFlag
			if path == "" {
				defaultPath, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			if err := config.WriteSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote sample config to %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the embedded sample configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), config.Sample())
			return nil
		},
	})

	return cmd
}
