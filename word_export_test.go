package htmlexport

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/alnah/go-htmlexport/internal/docxconv"
	"github.com/alnah/go-htmlexport/internal/htmltree"
)

// documentXML unpacks word/document.xml from a .docx archive.
func documentXML(t *testing.T, data []byte) string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("not a zip: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		return string(b)
	}
	t.Fatal("missing word/document.xml")
	return ""
}

func pngDataURI(t *testing.T) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.NRGBA{B: 255, A: 128})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// ---------------------------------------------------------------------------
// TestExportWord - End to end
// ---------------------------------------------------------------------------

func TestExportWord_Document(t *testing.T) {
	t.Parallel()

	exp := newTestExporter(t, &fakePDF{}, WithBaseDir(t.TempDir()))
	src := `<html><head><style>p{}</style></head><body>
		<nav>Site menu</nav>
		<div id="documentContent">
			<div class="toc-container"><div class="toc-header">Contents</div><ul><li><a href="#setup">Setup</a></li></ul></div>
			<div class="markdown-content">
				<h2 id="setup">Setup</h2>
				<p>Install it. <img src="` + pngDataURI(t) + `" alt="dot"></p>
				<p><img src="missing.png" alt="Missing pic"></p>
				<script>track()</script>
			</div>
		</div>
	</body></html>`

	res, err := exp.ExportWord(context.Background(), src)
	if err != nil {
		t.Fatalf("ExportWord() error = %v", err)
	}
	if res.Failure != nil {
		t.Errorf("Failure = %v", res.Failure)
	}
	doc := documentXML(t, res.DOCX)

	for _, want := range []string{
		"Contents",
		"Install it.",
		"Missing pic",
		`w:type="page"`,
		`w:name="setup"`,
		`w:anchor="setup"`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document.xml missing %q", want)
		}
	}
	for _, unwanted := range []string{"Site menu", "track()", "PAGE_BREAK"} {
		if strings.Contains(doc, unwanted) {
			t.Errorf("document.xml should not contain %q", unwanted)
		}
	}

	if res.Images.Resolved != 1 || res.Images.Replaced != 1 {
		t.Errorf("image stats = %+v, want 1 resolved and 1 replaced", res.Images)
	}
	if res.Stats.Images != 1 {
		t.Errorf("embedded images = %d, want 1", res.Stats.Images)
	}
	if res.Stats.Bookmarks != 1 || res.Stats.AnchorLinks != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.Report == nil || len(res.Report.Passes) == 0 {
		t.Error("report should list the passes that ran")
	}
}

func TestExportWord_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		opts  []Option
		want  error
	}{
		{"too large", "<p>0123456789</p>", []Option{WithMaxHTMLSize(10)}, ErrInputTooLarge},
		{"empty", "\n\t ", nil, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exp := newTestExporter(t, &fakePDF{}, tt.opts...)
			_, err := exp.ExportWord(context.Background(), tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("ExportWord() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExportWord_DisplayMathFallsBack(t *testing.T) {
	t.Parallel()

	exp := newTestExporter(t, &fakePDF{})
	res, err := exp.ExportWord(context.Background(), `<div class="arithmatex">\[x^2\]</div>`)
	if err != nil {
		t.Fatalf("ExportWord() error = %v", err)
	}
	if !strings.Contains(documentXML(t, res.DOCX), "x^2") {
		t.Error("unrenderable formula should survive as its source")
	}
}

func TestExportWord_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exp := newTestExporter(t, &fakePDF{})
	_, err := exp.ExportWord(ctx, "<p>x</p>")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ExportWord() error = %v, want context.Canceled", err)
	}
}

// Not parallel: it points TMPDIR at a private directory.
func TestExportWord_RemovesTempDir(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	exp := newTestExporter(t, &fakePDF{})
	if _, err := exp.ExportWord(context.Background(), `<p><img src="`+pngDataURI(t)+`"></p>`); err != nil {
		t.Fatalf("ExportWord() error = %v", err)
	}
	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "htmlexport-img") {
			t.Errorf("temp dir %s left behind", e.Name())
		}
	}
}

// ---------------------------------------------------------------------------
// TestSelectWordContent - Content selection
// ---------------------------------------------------------------------------

func TestSelectWordContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name: "toc then page break then content",
			input: `<p>chrome</p><div id="documentContent">
				<div class="toc-container"><div class="toc-header">Contents</div><ol><li>A</li></ol></div>
				<div class="markdown-content"><p>Body</p></div></div>`,
			want: `<div class="toc-container"><h2 style="` + tocHeaderStyle + `">Contents</h2><ol><li>A</li></ol></div>` +
				`<p>` + htmlEscape(docxconv.PageBreakMarker) + `</p><div class="markdown-content"><p>Body</p></div>`,
		},
		{
			name:  "document content without toc",
			input: `<div id="documentContent"><div class="markdown-content"><p>Body</p></div></div>`,
			want:  `<div class="markdown-content"><p>Body</p></div>`,
		},
		{
			name:  "document content without markdown container",
			input: `<p>x</p><div id="documentContent"><p>All</p></div>`,
			want:  `<div id="documentContent"><p>All</p></div>`,
		},
		{
			name:  "markdown content only",
			input: `<p>x</p><div class="markdown-content"><p>Body</p></div>`,
			want:  `<div class="markdown-content"><p>Body</p></div>`,
		},
		{
			name:  "whole body",
			input: `<p>one</p><p>two</p>`,
			want:  `<p>one</p><p>two</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := htmltree.Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got, err := htmltree.RenderChildren(selectWordContent(doc.Body()))
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if normalizeSpace(got) != normalizeSpace(tt.want) {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func htmlEscape(s string) string {
	return strings.NewReplacer("<", "&lt;", ">", "&gt;").Replace(s)
}

// normalizeSpace drops whitespace between tags.
func normalizeSpace(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		b.WriteString(strings.TrimSpace(line))
	}
	return strings.ReplaceAll(b.String(), ">\t", ">")
}

// ---------------------------------------------------------------------------
// TestHeadingAnchors
// ---------------------------------------------------------------------------

func TestHeadingAnchors(t *testing.T) {
	t.Parallel()

	doc, err := htmltree.Parse(`
		<h1 id="top">Title   here</h1>
		<h2><a name="legacy"></a>Legacy</h2>
		<h3><span id="inner">Inner</span></h3>
		<h2>Notes<sup id="fnref:1"><a href="#fn:1">1</a></sup></h2>
		<h2> <a id="anchored" href="#anchored">Anchored</a> heading</h2>
		<h2>No id</h2>
		<h2 id="first">Twice</h2>
		<h2 id="second">Twice</h2>`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got := headingAnchors(doc.Root)

	want := map[string]string{
		"Title here":       "top",
		"Legacy":           "legacy",
		"Anchored heading": "anchored",
		"Twice":            "second",
	}
	if len(got) != len(want) {
		t.Errorf("anchors = %v, want %v", got, want)
	}
	for text, id := range want {
		if got[text] != id {
			t.Errorf("anchors[%q] = %q, want %q", text, got[text], id)
		}
	}
}
