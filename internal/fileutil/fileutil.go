// Package fileutil provides file, path and URL helpers shared by the export
// pipelines.
package fileutil

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
	ErrOutsideBaseDir         = errors.New("path escapes base directory")
)

// WriteTempFile creates a temporary file with the given content and extension.
// Returns the file path and a cleanup function to remove the file.
func WriteTempFile(content, extension string) (path string, cleanup func(), err error) {
	if err := ValidateExtension(extension); err != nil {
		return "", nil, err
	}

	tmpFile, err := os.CreateTemp("", "htmlexport-*."+extension)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}

	path = tmpFile.Name()
	cleanup = func() { _ = os.Remove(path) }

	if _, writeErr := tmpFile.WriteString(content); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", writeErr)
	}

	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp file: %w", closeErr)
	}

	return path, cleanup, nil
}

// TempDir creates a scratch directory for one export call. The returned
// cleanup removes it with everything inside and is safe to call twice.
func TempDir(prefix string) (dir string, cleanup func(), err error) {
	dir, err = os.MkdirTemp("", prefix+"-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

// ValidateExtension checks that the extension is safe for use in temp file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsURL returns true if the string is an http or https URL.
func IsURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// HasScheme reports whether ref starts with a URI scheme such as "mailto:",
// "data:" or "https:". Windows drive letters are not schemes.
func HasScheme(ref string) bool {
	colon := strings.IndexByte(ref, ':')
	if colon < 2 {
		return false
	}
	for i, r := range ref[:colon] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// IsRelativeRef reports whether ref is a relative file reference: not empty,
// not an anchor, not protocol-relative, without a scheme and not absolute.
func IsRelativeRef(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "//") {
		return false
	}
	if HasScheme(ref) {
		return false
	}
	return !filepath.IsAbs(ref)
}

// ResolveUnder joins a relative reference onto baseDir and refuses results
// that escape baseDir.
func ResolveUnder(baseDir, ref string) (string, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	joined := filepath.Join(absBase, filepath.FromSlash(ref))
	if !within(joined, absBase) {
		return "", ErrOutsideBaseDir
	}
	return joined, nil
}

// ConfineUnder returns the absolute form of p, or ErrOutsideBaseDir when p
// lies outside baseDir.
func ConfineUnder(baseDir, p string) (string, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if !within(absPath, absBase) {
		return "", ErrOutsideBaseDir
	}
	return absPath, nil
}

// LocalPath returns the filesystem path named by a file:// URL or a plain
// path. It reports false for any other scheme and for file URLs on a
// remote host.
func LocalPath(ref string) (string, bool) {
	if len(ref) >= len("file://") && strings.EqualFold(ref[:len("file://")], "file://") {
		u, err := url.Parse(ref)
		if err != nil || (u.Host != "" && !strings.EqualFold(u.Host, "localhost")) {
			return "", false
		}
		return filepath.FromSlash(u.Path), true
	}
	if HasScheme(ref) || strings.HasPrefix(ref, "//") {
		return "", false
	}
	return ref, true
}

// PathToFileURL converts an absolute path to a file:// URL.
func PathToFileURL(absPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(absPath),
	}
	return u.String()
}

// within checks absPath against dir lexically and, when both exist, again
// after resolving symlinks.
func within(absPath, dir string) bool {
	if !isPathUnderDir(absPath, dir) {
		return false
	}
	realPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return true
	}
	realDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return true
	}
	return isPathUnderDir(realPath, realDir)
}

func isPathUnderDir(absPath, dir string) bool {
	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(dir)

	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(cleanPath+string(filepath.Separator), cleanDir)
}
