package cmd

import (
	"strings"
	"testing"
)

func TestMigrateCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedOutput string
	}{
		{
			name:           "migrate command with help",
			args:           []string{"migrate", "--help"},
			expectedOutput: "Manage database migrations",
		},
		{
			name:           "migrate up subcommand",
			args:           []string{"migrate", "up", "--help"},
			expectedOutput: "Apply the model schema",
		},
		{
			name:           "migrate status subcommand",
			args:           []string{"migrate", "status", "--help"},
			expectedOutput: "Display the current status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Errorf("Execute() error = %v", err)
			}
			if !strings.Contains(out, tt.expectedOutput) {
				t.Errorf("Expected output to contain %q, got %q", tt.expectedOutput, out)
			}
		})
	}
}

func TestMigrateUpAndStatus(t *testing.T) {
	useTestEnvironment(t)

	out, err := execute(t, "migrate", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "6 table(s) pending") {
		t.Errorf("Expected every table pending, got %q", out)
	}

	out, err = execute(t, "migrate", "up", "--dry-run")
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(out, "Would create:") || !strings.Contains(out, "scrape_jobs") {
		t.Errorf("Expected planned tables, got %q", out)
	}
	_ = migrateCmd.PersistentFlags().Set("dry-run", "false")

	out, err = execute(t, "migrate", "up")
	if err != nil {
		t.Fatalf("up: %v", err)
	}
	if !strings.Contains(out, "Migrated sqlite database (6 tables created)") {
		t.Errorf("Unexpected up output %q", out)
	}

	out, err = execute(t, "migrate", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if strings.Contains(out, "pending") {
		t.Errorf("Expected no pending tables, got %q", out)
	}
	if !strings.Contains(out, "raw_records") {
		t.Errorf("Expected table listing, got %q", out)
	}
}
