package main

import (
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRunConfig
// ---------------------------------------------------------------------------

func TestRunConfig_PrintsEffectiveConfig(t *testing.T) {
	t.Parallel()

	cfg := writeTestConfig(t, t.TempDir())
	env, stdout, _ := newTestEnv()
	if err := runConfig([]string{"-c", cfg}, env); err != nil {
		t.Fatalf("runConfig() error = %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"page_size: a4", "state_file:", "level: error"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunConfig_RejectsArguments(t *testing.T) {
	t.Parallel()

	env, _, _ := newTestEnv()
	if err := runConfig([]string{"extra"}, env); !errors.Is(err, ErrUsage) {
		t.Errorf("runConfig() error = %v, want ErrUsage", err)
	}
}
