package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// resetHelp clears --help on every command; cobra keeps flag values between runs
func resetHelp(c *cobra.Command) {
	// the flag only exists once the command has run
	_ = c.Flags().Set("help", "false")
	for _, sub := range c.Commands() {
		resetHelp(sub)
	}
}

// execute runs the root command with args and returns its combined output
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	resetHelp(cmd)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// useTestEnvironment points configuration at a throwaway database with classification disabled
func useTestEnvironment(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "waskita.db")
	t.Setenv("WASKITA_DATABASE_PATH", dbPath)
	t.Setenv("WASKITA_CLASSIFIER_WORD2VEC_PATH", filepath.Join(dir, "missing.txt"))
	t.Setenv("WASKITA_CLEANUP_ENABLED", "false")
	t.Setenv("WASKITA_MONITORING_METRICS_ENABLED", "false")
	t.Setenv("WASKITA_LOGGING_LEVEL", "error")
	return dbPath
}

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		wantErr        bool
		expectedOutput string
	}{
		{
			name:           "root command without args shows help",
			args:           []string{},
			wantErr:        false,
			expectedOutput: "Waskita API",
		},
		{
			name:           "root command with --help",
			args:           []string{"--help"},
			wantErr:        false,
			expectedOutput: "Available Commands:",
		},
		{
			name:           "root command with invalid flag",
			args:           []string{"--invalid-flag"},
			wantErr:        true,
			expectedOutput: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Errorf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.expectedOutput != "" && !strings.Contains(out, tt.expectedOutput) {
				t.Errorf("Expected output to contain %q, got %q", tt.expectedOutput, out)
			}
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"serve", "migrate", "scrape", "cleanup", "version"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("Expected %q to be registered, got %v", name, err)
		}
	}
}

func TestLogFlags(t *testing.T) {
	cmd := NewRootCmd()

	logFlag := cmd.PersistentFlags().Lookup("log-level")
	if logFlag == nil {
		t.Fatal("Expected log-level flag to be registered")
	}
	// empty means the logging config section decides
	if logFlag.DefValue != "" {
		t.Errorf("Expected empty default log-level, got %s", logFlag.DefValue)
	}

	if cmd.PersistentFlags().Lookup("json-logs") == nil {
		t.Error("Expected json-logs flag to be registered")
	}
}
