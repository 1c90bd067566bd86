package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cleanupDays int
	reportType  string
	runAsync    bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the task table or run the database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		if err := s.components.Migrate(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s storage %q is ready\n", styleOK.Render("✓"), s.cfg.Storage.Driver)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarise tasks by status and priority",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		if runAsync {
			return enqueueReport(cmd.Context(), s.components.Enqueuer, cmd.OutOrStdout(), reportType)
		}
		report, err := s.components.Processor.GenerateReport(cmd.Context())
		if err != nil {
			return err
		}
		return renderReport(cmd.OutOrStdout(), outputFormat, report)
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete completed tasks untouched for the given number of days",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		days := cleanupDays
		if !cmd.Flags().Changed("days") {
			days = s.cfg.Worker.CleanupDaysOld
		}
		if runAsync {
			return enqueueCleanup(cmd.Context(), s.components.Enqueuer, cmd.OutOrStdout(), days)
		}
		deleted, err := s.components.Processor.CleanupCompleted(cmd.Context(), days)
		fmt.Fprintf(cmd.OutOrStdout(), "%s deleted %d completed task(s)\n", styleOK.Render("✓"), deleted)
		return err
	},
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 30, "minimum age in days since the last update")
	reportCmd.Flags().StringVar(&reportType, "type", "daily", "report type recorded by the worker (with --async)")
	for _, c := range []*cobra.Command{reportCmd, cleanupCmd} {
		c.Flags().BoolVar(&runAsync, "async", false, "queue the job for the worker instead of running it here")
	}
}
