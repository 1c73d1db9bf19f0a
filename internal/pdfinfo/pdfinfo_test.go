package pdfinfo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Notes:
// - minimalPDF builds a small but well-formed PDF with a correct xref
//   table, so tests need neither a browser nor fixture files.

func minimalPDF(pages ...string) []byte {
	var objs []string
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+i*2)
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)
	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>", 5+i*2),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return []byte(b.String())
}

// ---------------------------------------------------------------------------
// TestValidate - Structural validation
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		pdf       []byte
		wantPages int
		wantErr   error
	}{
		{"one page", minimalPDF("Hello"), 1, nil},
		{"three pages", minimalPDF("a", "b", "c"), 3, nil},
		{"empty", nil, 0, ErrEmpty},
		{"not a pdf", []byte("<html></html>"), 0, ErrInvalid},
		{"truncated", minimalPDF("Hello")[:60], 0, ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info, err := Validate(tt.pdf)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if info.Pages != tt.wantPages {
				t.Errorf("Pages = %d, want %d", info.Pages, tt.wantPages)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExtractText - Text layer extraction
// ---------------------------------------------------------------------------

func TestExtractText(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, minimalPDF("Hello", "World"), 0o644); err != nil {
		t.Fatal(err)
	}

	text, err := ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	pages := Pages(text)
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2 (%q)", len(pages), text)
	}
	if !strings.Contains(pages[0], "Hello") || !strings.Contains(pages[1], "World") {
		t.Errorf("pages = %q", pages)
	}
}

func TestExtractTextBytes(t *testing.T) {
	t.Parallel()

	text, err := ExtractTextBytes(minimalPDF("Inline"))
	if err != nil {
		t.Fatalf("ExtractTextBytes() error = %v", err)
	}
	if !strings.Contains(text, "Inline") {
		t.Errorf("text = %q", text)
	}

	if _, err := ExtractTextBytes(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty error = %v, want ErrEmpty", err)
	}
}

func TestExtractText_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := ExtractText(filepath.Join(t.TempDir(), "absent.pdf")); !errors.Is(err, ErrInvalid) {
		t.Errorf("ExtractText() error = %v, want ErrInvalid", err)
	}
}
