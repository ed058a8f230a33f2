package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Manage database migrations for the Waskita API.

The schema is derived from the models, so migrating creates missing tables,
columns and indexes without touching existing data.

Available subcommands:
  up      - Create or update every table
  status  - Show which tables are missing`,
}

// migrateUpCmd applies pending migrations
var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Create or update every table",
	Long: `Apply the model schema to the configured database.

Datasets, raw and clean records, classification results, scrape jobs and the
statistics row are created when missing.`,
	RunE: runMigrateUp,
}

// migrateStatusCmd shows migration status
var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long: `Display the current status of the database schema.

Lists every table the service needs and whether it exists yet.`,
	RunE: runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)

	migrateCmd.PersistentFlags().Bool("dry-run", false, "show what would be done without making changes")
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	pending := db.PendingMigrations()
	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		fmt.Fprintln(out, "Dry run mode - no changes will be made")
		if len(pending) == 0 {
			fmt.Fprintln(out, "All tables exist; columns and indexes would be updated")
			return nil
		}
		fmt.Fprintf(out, "Would create: %s\n", strings.Join(pending, ", "))
		return nil
	}

	if err := db.Migrate(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %s database (%d tables created)\n", db.Driver(), len(pending))
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Database Migration Status")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "Driver: %s\n\n", db.Driver())

	missing := make(map[string]bool)
	for _, t := range db.PendingMigrations() {
		missing[t] = true
	}
	for _, t := range db.Tables() {
		state := "applied"
		if missing[t] {
			state = "pending"
		}
		fmt.Fprintf(out, "  %-28s %s\n", t, state)
	}
	if len(missing) > 0 {
		fmt.Fprintf(out, "\n%d table(s) pending, run 'waskita-api migrate up'\n", len(missing))
	}
	return nil
}
