package main

// Notes:
// - run: we test dispatch, help and version through observable output and
//   the error returned; command bodies are tested in their own files.
// - hasVerboseFlag: we test short and long spellings.
// - writeTestConfig points the plugin state file into t.TempDir() so tests
//   never touch the working directory.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Test Infrastructure
// ---------------------------------------------------------------------------

func newTestEnv() (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Environment{
		Now:    func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

// writeTestConfig writes a config file whose state file lives in dir and
// returns the config path.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "htmlexport.yaml")
	content := fmt.Sprintf("plugins:\n  state_file: %s\nlog:\n  level: error\n",
		filepath.Join(dir, "plugins.json"))
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// ---------------------------------------------------------------------------
// TestRun - Command dispatch
// ---------------------------------------------------------------------------

func TestRun_Dispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantErr    error
		wantStdout string
		wantStderr string
	}{
		{"no command", []string{"htmlexport"}, ErrUnknownCommand, "", "Usage: htmlexport"},
		{"unknown command", []string{"htmlexport", "convert"}, ErrUnknownCommand, "", "Commands:"},
		{"version", []string{"htmlexport", "version"}, nil, "htmlexport " + Version, ""},
		{"help", []string{"htmlexport", "help"}, nil, "Commands:", ""},
		{"help pdf", []string{"htmlexport", "help", "pdf"}, nil, "pdf_export plugin", ""},
		{"help serve", []string{"htmlexport", "help", "serve"}, nil, "/export/{feature}", ""},
		{"help unknown", []string{"htmlexport", "help", "nope"}, ErrUnknownCommand, "", "Usage:"},
		{"flag help is not an error", []string{"htmlexport", "docx", "-h"}, nil, "", "Usage: htmlexport docx"},
		{"bad flag", []string{"htmlexport", "docx", "--nope"}, ErrUsage, "", ""},
		{"docx without input", []string{"htmlexport", "docx"}, ErrNoInput, "", "Usage: htmlexport docx"},
		{"completion", []string{"htmlexport", "completion", "bash"}, nil, "complete -o filenames", ""},
		{"help completion", []string{"htmlexport", "help", "completion"}, nil, "Supported shells:", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := newTestEnv()
			err := run(context.Background(), tt.args, env)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("run() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestHasVerboseFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"pdf", "a.html", "-v"}, true},
		{[]string{"serve", "--verbose"}, true},
		{[]string{"pdf", "-o", "v.pdf"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := hasVerboseFlag(tt.args); got != tt.want {
			t.Errorf("hasVerboseFlag(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
