package transform

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/htmltree"
)

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

var errUnreachable = errors.New("dial tcp: connection refused")

// fakeMath records every TeX string it is asked to render.
type fakeMath struct {
	mu    sync.Mutex
	calls []string
	data  []byte
	err   error
}

func (f *fakeMath) Render(_ context.Context, tex string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, tex)
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func (f *fakeMath) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeRasterizer returns a fixed PNG, or err for clusters listed in fail.
type fakeRasterizer struct {
	data []byte
	fail map[string]bool
}

func (f *fakeRasterizer) Rasterize(cluster string) ([]byte, error) {
	if f.fail[cluster] {
		return nil, errUnreachable
	}
	return f.data, nil
}

// testPNG encodes a blank w x h image.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// runEngine parses src, runs an engine over it and renders the result.
func runEngine(t *testing.T, target Target, src string, opts ...Option) (string, *Report, error) {
	t.Helper()
	doc, err := htmltree.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	report, runErr := New(target, opts...).Run(context.Background(), doc.Root)
	out, err := doc.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return out, report, runErr
}

// runPasses applies passes directly and returns the rendered tree.
func runPasses(t *testing.T, target Target, src string, passes ...Pass) string {
	t.Helper()
	out, _, err := runEngine(t, target, src,
		WithPasses(passes...),
		WithRasterizer(&fakeRasterizer{data: []byte("png")}),
	)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return out
}

func parseTree(t *testing.T, out string) *html.Node {
	t.Helper()
	doc, err := htmltree.Parse(out)
	if err != nil {
		t.Fatalf("Parse(output) error = %v", err)
	}
	return doc.Root
}

func assertContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q\n%s", w, out)
		}
	}
}

func assertExcludes(t *testing.T, out string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(out, u) {
			t.Errorf("output should not contain %q\n%s", u, out)
		}
	}
}
