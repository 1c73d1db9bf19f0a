package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alnah/go-htmlexport/internal/pdfinfo"
)

// inspectResult is the --json shape of the inspect command.
type inspectResult struct {
	Path  string   `json:"path"`
	Pages int      `json:"pages"`
	Size  int      `json:"size"`
	Text  []string `json:"text,omitempty"`
}

// runInspect validates a PDF and reports its page count, optionally with
// the text of every page.
func runInspect(args []string, env *Environment) error {
	flags, positional, err := parseInspectFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		printInspectUsage(env.Stderr)
		return ErrNoInput
	}

	path := positional[0]
	data, err := os.ReadFile(path) // #nosec G304 -- path is user-provided
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	info, err := pdfinfo.Validate(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	result := inspectResult{Path: path, Pages: info.Pages, Size: info.Size}

	if flags.text {
		text, err := pdfinfo.ExtractTextBytes(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		result.Text = pdfinfo.Pages(text)
	}

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printInspectResult(env.Stdout, &result)
	return nil
}

func printInspectResult(w io.Writer, r *inspectResult) {
	fmt.Fprintf(w, "%s: %s, %d bytes\n", r.Path, pluralize(r.Pages, "page"), r.Size)
	for i, page := range r.Text {
		fmt.Fprintf(w, "\n--- page %d ---\n", i+1)
		fmt.Fprintln(w, strings.TrimSpace(page))
	}
}
