package cmd

import (
	"fmt"

	"github.com/killallgit/waskita-api/internal/services/cleanup"
	"github.com/spf13/cobra"
)

// cleanupCmd runs the maintenance job once
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Run database maintenance once",
	Long: `Delete orphaned raw records together with their clean records and
classification results, prune old finished scrape jobs and refresh the
statistics row. The server runs the same job on the cleanup schedules.`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	svc := cleanup.NewService(a.db.DB, a.jobs, a.datasets, nil, cfg.Processing.JobRetention, log)
	report, err := svc.RunOnce(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Orphaned records deleted: %d\n", report.OrphanedRecords)
	fmt.Fprintf(out, "Finished jobs pruned:     %d\n", report.DeletedJobs)
	fmt.Fprintf(out, "Took:                     %s\n", report.Duration)
	return nil
}
