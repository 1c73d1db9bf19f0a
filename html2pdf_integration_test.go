//go:build integration

package htmlexport

// Notes:
// - These tests start a real headless Chrome through go-rod. Rod downloads
//   Chromium on first run unless ROD_BROWSER_BIN points at a local binary.
// - Run with: go test -tags integration ./...

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/alnah/go-htmlexport/internal/pdfinfo"
)

func assertValidPDF(t *testing.T, data []byte) {
	t.Helper()

	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("data does not have PDF magic bytes, got prefix: %q", data[:min(10, len(data))])
	}
	if len(data) < 100 {
		t.Errorf("PDF data suspiciously small: %d bytes", len(data))
	}
}

func TestRodConverter_ToPDF_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	converter := newRodConverter(defaultTimeout, nil)
	defer converter.Close()

	html := `<!DOCTYPE html><html><head><title>Test</title></head>
<body><h1>Hello, World!</h1><p>This is a test document.</p></body></html>`

	data, err := converter.ToPDF(context.Background(), html, &pdfOptions{Page: DefaultPageSettings()})
	if err != nil {
		t.Fatalf("ToPDF() error = %v", err)
	}
	assertValidPDF(t, data)
}

func TestExportPDF_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	exp, err := New(WithMathRenderer(&fakeMath{err: errUnreachable}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer exp.Close()

	src := `<div class="markdown-content"><h1>Integration</h1>
<div class="markdown-alert markdown-alert-tip"><p class="markdown-alert-title">Tip</p><p>Printed alert</p></div>
<p>Emoji 🚀 survive.</p></div>`

	res, err := exp.ExportPDF(context.Background(), src)
	if err != nil {
		t.Fatalf("ExportPDF() error = %v", err)
	}
	assertValidPDF(t, res.PDF)
	if res.Pages < 1 {
		t.Errorf("pages = %d", res.Pages)
	}

	text, err := pdfinfo.ExtractTextBytes(res.PDF)
	if err != nil {
		t.Fatalf("ExtractTextBytes() error = %v", err)
	}
	for _, want := range []string{"Integration", "Printed alert"} {
		if !strings.Contains(text, want) {
			t.Errorf("pdf text missing %q", want)
		}
	}
}

func TestExporterPool_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	pool := NewExporterPool(min(ResolvePoolSize(0), 2), WithMathRenderer(&fakeMath{err: errUnreachable}))
	defer pool.Close()

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := pool.ExportPDF(context.Background(), "<p>parallel</p>")
			done <- err
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Errorf("ExportPDF() error = %v", err)
		}
	}
}
