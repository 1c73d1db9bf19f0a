package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	htmlexport "github.com/alnah/go-htmlexport"
	"github.com/alnah/go-htmlexport/internal/config"
)

// ---------------------------------------------------------------------------
// TestHintFor - Error to hint mapping
// ---------------------------------------------------------------------------

func TestHintFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"browser connect", fmt.Errorf("pdf export (assembled): %w", htmlexport.ErrBrowserConnect), "htmlexport doctor"},
		{"timeout", fmt.Errorf("pdf export: %w", context.DeadlineExceeded), "--timeout"},
		{"not installed", htmlexport.ErrFeatureNotInstalled, "plugins install pdf_export"},
		{"config", config.ErrConfigNotFound, "--config"},
		{"output dir", ErrWriteOutput, "parent directory"},
		{"extension", ErrInvalidExtension, ".markdown"},
		{"no hint", errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := hintFor(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("hintFor() = %q, want none", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("hintFor() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
