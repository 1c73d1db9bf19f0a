package fileutil_test

// Notes:
// - WriteString/Close failure branches of WriteTempFile are not exercised;
//   forcing disk write failures is platform-specific.
// - ResolveUnder is tested on observable results (joined path or
//   ErrOutsideBaseDir), not on how the prefix check is computed.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-htmlexport/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestValidateExtension - Extension validation
// ---------------------------------------------------------------------------

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extension string
		wantErr   error
	}{
		{name: "html", extension: "html"},
		{name: "png", extension: "png"},
		{name: "empty", extension: "", wantErr: fileutil.ErrExtensionEmpty},
		{name: "forward slash", extension: "../etc/passwd", wantErr: fileutil.ErrExtensionPathTraversal},
		{name: "backslash", extension: `..\windows`, wantErr: fileutil.ErrExtensionPathTraversal},
		{name: "null byte", extension: "html\x00exe", wantErr: fileutil.ErrExtensionPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateExtension(tt.extension)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtension(%q) = %v, want %v", tt.extension, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWriteTempFile - Temporary file creation and cleanup
// ---------------------------------------------------------------------------

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	path, cleanup, err := fileutil.WriteTempFile("<p>hello</p>", "html")
	if err != nil {
		t.Fatalf("WriteTempFile() error = %v", err)
	}

	if !strings.HasSuffix(path, ".html") {
		t.Errorf("path = %q, want .html suffix", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading temp file: %v", err)
	}
	if string(got) != "<p>hello</p>" {
		t.Errorf("content = %q, want %q", got, "<p>hello</p>")
	}

	cleanup()
	if fileutil.FileExists(path) {
		t.Error("file still exists after cleanup")
	}
}

func TestWriteTempFile_InvalidExtension(t *testing.T) {
	t.Parallel()

	_, _, err := fileutil.WriteTempFile("x", "")
	if !errors.Is(err, fileutil.ErrExtensionEmpty) {
		t.Errorf("error = %v, want ErrExtensionEmpty", err)
	}
}

// ---------------------------------------------------------------------------
// TestTempDir - Scoped scratch directories
// ---------------------------------------------------------------------------

func TestTempDir(t *testing.T) {
	t.Parallel()

	dir, cleanup, err := fileutil.TempDir("export")
	if err != nil {
		t.Fatalf("TempDir() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.png"), []byte("x"), 0o600); err != nil {
		t.Fatalf("writing into temp dir: %v", err)
	}

	cleanup()
	cleanup()

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("temp dir still present after cleanup: %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestIsURL / TestHasScheme / TestIsRelativeRef - Reference classification
// ---------------------------------------------------------------------------

func TestIsURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.com/a.png", true},
		{"HTTP://EXAMPLE.COM", true},
		{"ftp://example.com", false},
		{"images/a.png", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := fileutil.IsURL(tt.in); got != tt.want {
				t.Errorf("IsURL(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestHasScheme(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"mailto:a@b.c", true},
		{"data:image/png;base64,AA", true},
		{"tel:+123", true},
		{"C:/docs/a.md", false},
		{"page.md", false},
		{"Some Page", false},
		{":nope", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := fileutil.HasScheme(tt.in); got != tt.want {
				t.Errorf("HasScheme(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsRelativeRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"images/a.png", true},
		{"./a.png", true},
		{"Other Page", true},
		{"#section", false},
		{"//cdn.example.com/a.png", false},
		{"https://example.com", false},
		{"/abs/a.png", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := fileutil.IsRelativeRef(tt.in); got != tt.want {
				t.Errorf("IsRelativeRef(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestResolveUnder - Path joining with traversal protection
// ---------------------------------------------------------------------------

func TestResolveUnder(t *testing.T) {
	t.Parallel()

	base := t.TempDir()

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr error
	}{
		{name: "simple", ref: "img/a.png", want: filepath.Join(base, "img", "a.png")},
		{name: "escaped space", ref: "my%20img.png", want: filepath.Join(base, "my img.png")},
		{name: "query stripped", ref: "a.png?v=2", want: filepath.Join(base, "a.png")},
		{name: "traversal", ref: "../../etc/passwd", wantErr: fileutil.ErrOutsideBaseDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := fileutil.ResolveUnder(base, tt.ref)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ResolveUnder() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got != tt.want {
				t.Errorf("ResolveUnder() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestConfineUnder - Absolute paths kept inside a base directory
// ---------------------------------------------------------------------------

func TestConfineUnder(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.png")
	if err := os.WriteFile(secret, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(base, "link.png")
	if err := os.Symlink(secret, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "inside", path: filepath.Join(base, "img", "a.png")},
		{name: "outside", path: secret, wantErr: fileutil.ErrOutsideBaseDir},
		{name: "dot dot", path: filepath.Join(base, "..", "x.png"), wantErr: fileutil.ErrOutsideBaseDir},
		{name: "symlink out", path: link, wantErr: fileutil.ErrOutsideBaseDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := fileutil.ConfineUnder(base, tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ConfineUnder(%q) error = %v, want %v", tt.path, err, tt.wantErr)
			}
			if tt.wantErr == nil && got != tt.path {
				t.Errorf("ConfineUnder() = %q, want %q", got, tt.path)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestLocalPath - file URLs and plain paths
// ---------------------------------------------------------------------------

func TestLocalPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref    string
		want   string
		wantOK bool
	}{
		{ref: "img/a.png", want: "img/a.png", wantOK: true},
		{ref: "/etc/passwd", want: filepath.FromSlash("/etc/passwd"), wantOK: true},
		{ref: "file:///etc/passwd", want: filepath.FromSlash("/etc/passwd"), wantOK: true},
		{ref: "FILE://localhost/tmp/a.png", want: filepath.FromSlash("/tmp/a.png"), wantOK: true},
		{ref: "file://server/share/a.png", wantOK: false},
		{ref: "https://example.com/a.png", wantOK: false},
		{ref: "//example.com/a.png", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			t.Parallel()

			got, ok := fileutil.LocalPath(tt.ref)
			if ok != tt.wantOK {
				t.Fatalf("LocalPath(%q) ok = %v, want %v", tt.ref, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("LocalPath(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestPathToFileURL(t *testing.T) {
	t.Parallel()

	got := fileutil.PathToFileURL("/docs/img/a.png")
	if got != "file:///docs/img/a.png" {
		t.Errorf("PathToFileURL() = %q, want %q", got, "file:///docs/img/a.png")
	}
}
