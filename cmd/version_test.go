package cmd

import (
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		checkOutput func(string) bool
	}{
		{
			name: "version command shows version info",
			args: []string{"version"},
			checkOutput: func(output string) bool {
				return strings.Contains(output, "Waskita API") &&
					strings.Contains(output, "Version:      v"+Version) &&
					strings.Contains(output, "OS/Arch:")
			},
		},
		{
			// runs last: the flag value sticks to the shared command
			name: "version command with --short flag",
			args: []string{"version", "--short"},
			checkOutput: func(output string) bool {
				return output == "v"+Version+"\n"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if !tt.checkOutput(out) {
				t.Errorf("Unexpected output %q", out)
			}
		})
	}
	_ = versionCmd.Flags().Set("short", "false")
}

func TestVersionCommandFlags(t *testing.T) {
	cmd := NewRootCmd()
	versionCmd, _, err := cmd.Find([]string{"version"})
	if err != nil {
		t.Fatalf("Failed to find version command: %v", err)
	}

	shortFlag := versionCmd.Flags().Lookup("short")
	if shortFlag == nil {
		t.Fatal("Expected short flag to be registered")
	}
	if shortFlag.Shorthand != "s" {
		t.Errorf("Expected shorthand 's', got %q", shortFlag.Shorthand)
	}
}
