// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-htmlexport/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors.
// The renderer only disables the Chrome sandbox when CI=true or an explicit
// binary is configured, so containers need one of the two.
func ForBrowserConnect() string {
	var hints []string

	bin := os.Getenv("ROD_BROWSER_BIN")
	sandboxOff := os.Getenv("CI") == "true" || bin != ""

	if IsInContainer() && !sandboxOff {
		hints = append(hints, "set CI=true or ROD_BROWSER_BIN inside containers to run Chrome without its sandbox")
	}
	if bin == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use an installed Chrome")
	}
	hints = append(hints, "run 'htmlexport doctor' to check the setup")

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large documents, use --timeout or pdf.timeout in the config")
}

// ForConfigNotFound returns hints for config file not found errors.
func ForConfigNotFound() string {
	hint := "use --config /path/to/htmlexport.yaml"
	if os.Getenv("HTMLEXPORT_CONFIG") != "" {
		hint += " or unset HTMLEXPORT_CONFIG"
	}
	return format(hint)
}

// ForFeatureNotInstalled returns the command that installs feature.
func ForFeatureNotInstalled(feature string) string {
	if feature == "" {
		return ""
	}
	return format("run 'htmlexport plugins install " + feature + "'")
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForInputExtension lists the accepted input extensions.
func ForInputExtension(accepted []string) string {
	if len(accepted) == 0 {
		return ""
	}
	return format("accepted: " + strings.Join(accepted, ", "))
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
