package main

// Notes:
// - The router is tested with httptest against a registry of fake features;
//   real exporters are covered by the library tests. serveOptions is the
//   exception: it runs a real Word export to observe the image policy.
// - serve is tested on a loopback listener to check graceful shutdown on
//   context cancellation.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	htmlexport "github.com/alnah/go-htmlexport"
	"github.com/alnah/go-htmlexport/internal/registry"
)

func newTestServer(t *testing.T, maxBody int64) *server {
	t.Helper()

	echo := func(_ context.Context, html string) ([]byte, error) {
		return []byte("DOC:" + html), nil
	}
	fail := func(err error) registry.Handler {
		return func(context.Context, string) ([]byte, error) { return nil, err }
	}

	reg := registry.New()
	err := reg.RegisterAll(
		registry.Feature{Name: "docx", Label: "Word", Extension: "docx", Kind: registry.KindExportHandler, Tier: registry.TierStandard, Installed: true, Handler: echo},
		registry.Feature{Name: "pdf_export", Extension: "pdf", Kind: registry.KindExportHandler, Tier: registry.TierExperimental, Handler: fail(htmlexport.ErrFeatureNotInstalled)},
		registry.Feature{Name: "broken", Extension: "bin", Kind: registry.KindExportHandler, Handler: fail(errors.New("renderer crashed"))},
		registry.Feature{Name: "picky", Extension: "txt", Kind: registry.KindExportHandler, Handler: fail(htmlexport.ErrInvalidInput)},
		registry.Feature{Name: "toolbar", Kind: registry.KindUIExtension},
	)
	if err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	reg.Freeze()
	return newServer(reg, zap.NewNop(), maxBody)
}

// ---------------------------------------------------------------------------
// TestServer - Routes
// ---------------------------------------------------------------------------

func TestServer_Health(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestServer(t, 1<<10).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("GET /healthz = %d %s", rec.Code, rec.Body)
	}
}

func TestServer_Features(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestServer(t, 1<<10).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/features", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /features = %d", rec.Code)
	}

	var body struct {
		Features []featureView `json:"features"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.Features) != 5 {
		t.Fatalf("features = %d, want 5", len(body.Features))
	}
	first := body.Features[0]
	if first.Name != "docx" || first.Tier != "standard" || !first.Installed || first.Kind != "export_handler" {
		t.Errorf("first feature = %+v", first)
	}
	if body.Features[1].Installed {
		t.Error("pdf_export should be reported uninstalled")
	}
}

func TestServer_Export(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		feature    string
		body       string
		wantStatus int
		wantType   string
		wantBody   string
	}{
		{"success", "docx", "<p>hi</p>", http.StatusOK, contentTypes["docx"], "DOC:<p>hi</p>"},
		{"unknown feature", "odt", "x", http.StatusNotFound, "application/json", "feature not found"},
		{"not an export handler", "toolbar", "x", http.StatusBadRequest, "application/json", "does not export"},
		{"not installed", "pdf_export", "x", http.StatusConflict, "application/json", "not installed"},
		{"invalid input", "picky", "x", http.StatusBadRequest, "application/json", "error"},
		{"handler failure", "broken", "x", http.StatusInternalServerError, "application/json", "renderer crashed"},
		{"body too large", "docx", strings.Repeat("a", 65), http.StatusRequestEntityTooLarge, "application/json", "error"},
	}

	srv := newTestServer(t, 64)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/export/"+tt.feature, strings.NewReader(tt.body))
			srv.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantType)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body, tt.wantBody)
			}
		})
	}
}

func TestServer_ExportSetsFilename(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestServer(t, 1<<10).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export/docx", strings.NewReader("x")))
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="export.docx"` {
		t.Errorf("Content-Disposition = %q", got)
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestServer(t, 1<<10).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/docx", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /export/docx = %d, want 405", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// TestStatusFor
// ---------------------------------------------------------------------------

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{htmlexport.ErrInvalidInput, http.StatusBadRequest},
		{htmlexport.ErrInputTooLarge, http.StatusRequestEntityTooLarge},
		{htmlexport.ErrFeatureNotInstalled, http.StatusConflict},
		{htmlexport.ErrPoolClosed, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{htmlexport.ErrPDFGeneration, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestServe - Lifecycle
// ---------------------------------------------------------------------------

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback unavailable: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, ln, newTestServer(t, 1<<10), zap.NewNop(), 1) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

// ---------------------------------------------------------------------------
// TestServeOptions - Local images in server mode
// ---------------------------------------------------------------------------

func TestServeOptions_LocalImages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	local := filepath.Join(dir, "a.png")
	if err := os.WriteFile(local, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	input := `<div class="markdown-content"><p><img src="` + local + `" alt="a"></p></div>`

	tests := []struct {
		name         string
		baseDir      string
		wantResolved int
	}{
		{name: "no base dir", baseDir: "", wantResolved: 0},
		{name: "base dir", baseDir: dir, wantResolved: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _, _ := newTestEnv()
			sess, err := openSession(commonFlags{config: writeTestConfig(t, t.TempDir())}, env.Stderr)
			if err != nil {
				t.Fatalf("openSession() error = %v", err)
			}
			defer sess.Close()
			sess.cfg.Word.BaseDir = tt.baseDir

			exp, err := htmlexport.New(sess.serveOptions()...)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer exp.Close()

			res, err := exp.ExportWord(context.Background(), input)
			if err != nil {
				t.Fatalf("ExportWord() error = %v", err)
			}
			if res.Images.Resolved != tt.wantResolved || res.Images.Replaced != 1-tt.wantResolved {
				t.Errorf("Images = %+v, want %d resolved", res.Images, tt.wantResolved)
			}
		})
	}
}
