package main

import (
	"errors"
	"testing"
	"time"

	htmlexport "github.com/alnah/go-htmlexport"
	"github.com/alnah/go-htmlexport/internal/config"
)

// ---------------------------------------------------------------------------
// TestOpenSession and exporter options
// ---------------------------------------------------------------------------

func TestOpenSession_BuildsExporter(t *testing.T) {
	t.Parallel()

	env, _, _ := newTestEnv()
	sess, err := openSession(commonFlags{config: writeTestConfig(t, t.TempDir())}, env.Stderr)
	if err != nil {
		t.Fatalf("openSession() error = %v", err)
	}
	defer sess.Close()

	for _, timeout := range []time.Duration{0, 5 * time.Second} {
		exp, err := htmlexport.New(sess.exporterOptions(timeout)...)
		if err != nil {
			t.Fatalf("New(exporterOptions(%s)) error = %v", timeout, err)
		}
		_ = exp.Close()
	}
}

func TestOpenSession_MissingConfig(t *testing.T) {
	t.Parallel()

	env, _, _ := newTestEnv()
	_, err := openSession(commonFlags{config: "/nonexistent/dir/htmlexport.yaml"}, env.Stderr)
	if !errors.Is(err, config.ErrConfigNotFound) {
		t.Errorf("openSession() error = %v, want ErrConfigNotFound", err)
	}
}

func TestPageSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		size     string
		margin   float64
		wantSize string
	}{
		{"default size", "", 2, htmlexport.PageSizeA4},
		{"case folded", "Letter", 1.5, htmlexport.PageSizeLetter},
		{"legal", "legal", 0, htmlexport.PageSizeLegal},
	}
	for _, tt := range tests {
		cfg := config.DefaultConfig()
		cfg.PDF.PageSize = tt.size
		cfg.PDF.MarginCM = tt.margin

		got := pageSettings(cfg)
		if got.Size != tt.wantSize || got.MarginCM != tt.margin {
			t.Errorf("%s: pageSettings() = %+v", tt.name, got)
		}
		if err := got.Validate(); err != nil {
			t.Errorf("%s: Validate() = %v", tt.name, err)
		}
	}
}

func TestParseTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"45s", 45 * time.Second, false},
		{"2m", 2 * time.Minute, false},
		{"0s", 0, true},
		{"-1s", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := parseTimeout(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTimeout(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrUsage) {
			t.Errorf("parseTimeout(%q) error should wrap ErrUsage", tt.in)
		}
		if got != tt.want {
			t.Errorf("parseTimeout(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
