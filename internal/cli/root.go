// Package cli implements taskctl, an operator console that drives the task
// services directly against the configured backends.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:          "taskctl",
	Short:        "Operate the task store from the command line",
	Long:         "taskctl runs task operations against the storage, queue and blob backends selected by the service config.",
	SilenceUsage: true,
}

// ExecuteContext runs the root command; ctx reaches every RunE through
// cmd.Context().
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return checkFormat(outputFormat)
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatTable, "output format: table, json, yaml")

	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(cleanupCmd)
}
