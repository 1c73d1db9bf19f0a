package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	htmlexport "github.com/alnah/go-htmlexport"
	"github.com/alnah/go-htmlexport/internal/config"
	"github.com/alnah/go-htmlexport/internal/emoji"
	"github.com/alnah/go-htmlexport/internal/pluginstate"
)

// ErrNotReady is returned when doctor finds blocking problems.
var ErrNotReady = errors.New("environment not ready")

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo `json:"chrome"`
	Fonts    fontInfo   `json:"emoji_fonts"`
	Plugins  pluginInfo `json:"plugins"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// fontInfo lists the emoji fonts present on disk.
type fontInfo struct {
	Available []string `json:"available,omitempty"`
}

// pluginInfo reports the plugin state file.
type pluginInfo struct {
	StateFile string   `json:"state_file"`
	Installed []string `json:"installed"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	jsonOutput := false
	configName := ""
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--json":
			jsonOutput = true
		case "-c", "--config":
			if i+1 < len(args) {
				configName = args[i+1]
				i++
			}
		}
	}

	result := runDoctor(configName)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(configName string) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			BrowserBin: os.Getenv(config.EnvBrowserBin),
		},
	}

	cfg, err := config.Load(configName)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Config: %v", err))
		cfg = config.DefaultConfig()
	}

	checkChrome(result)
	checkEnvironment(result)
	checkFonts(result, cfg.Emoji.FontPaths)
	checkPlugins(result, cfg.Plugins.StateFile)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkChrome detects Chrome/Chromium installation. A missing browser only
// blocks PDF export, so it is reported as a warning.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		// Use rod's launcher to locate Chrome
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found. PDF export needs Chrome or ROD_BROWSER_BIN")
			return
		}
	}

	// Verify it exists
	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	// Get version by running chrome --version
	cmd := exec.Command(chromePath, "--version") // #nosec G204 -- path comes from env or launcher lookup
	out, err := cmd.Output()
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	// The renderer disables the sandbox in CI and for an explicit binary.
	result.Chrome.Sandbox = os.Getenv("CI") != "true" && result.Env.BrowserBin == ""
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if result.Env.Container && result.Chrome.Found && result.Chrome.Sandbox {
		result.Warnings = append(result.Warnings,
			"Container detected with the Chrome sandbox enabled. Set CI=true or ROD_BROWSER_BIN")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	// Explicit override (highest priority)
	if os.Getenv("HTMLEXPORT_CONTAINER") == "1" {
		return true, "HTMLEXPORT_CONTAINER=1"
	}
	// Docker
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	// Kubernetes
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkFonts lists the configured emoji fonts that exist. Without any, the
// embedded fallback font draws monochrome symbols only.
func checkFonts(result *doctorResult, configured []string) {
	paths := configured
	if len(paths) == 0 {
		paths = emoji.DefaultFontPaths
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			result.Fonts.Available = append(result.Fonts.Available, p)
		}
	}
	if len(result.Fonts.Available) == 0 {
		result.Warnings = append(result.Warnings,
			"No emoji font found. Emoji in PDFs will use the built-in fallback font")
	}
}

// checkPlugins reads the plugin state file.
func checkPlugins(result *doctorResult, stateFile string) {
	state := pluginstate.Open(stateFile)
	result.Plugins.StateFile = state.Path()
	result.Plugins.Installed = state.Installed()
	if result.Plugins.Installed == nil {
		result.Plugins.Installed = []string{}
	}
	if !state.IsInstalled(htmlexport.FeaturePDF) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s is not installed. Run 'htmlexport plugins install %s'", htmlexport.FeaturePDF, htmlexport.FeaturePDF))
	}
}

// checkSystem verifies system requirements.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "htmlexport-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "htmlexport doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Emoji fonts")
	for _, p := range r.Fonts.Available {
		fmt.Fprintf(w, "  [OK] %s\n", p)
	}
	if len(r.Fonts.Available) == 0 {
		fmt.Fprintln(w, "  [WARN] None found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Plugins")
	fmt.Fprintf(w, "  [OK] State file: %s\n", r.Plugins.StateFile)
	if len(r.Plugins.Installed) > 0 {
		fmt.Fprintf(w, "  [OK] Installed: %s\n", strings.Join(r.Plugins.Installed, ", "))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to export")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
