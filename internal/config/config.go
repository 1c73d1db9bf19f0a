package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-htmlexport/internal/images"
	"github.com/alnah/go-htmlexport/internal/mathrender"
	"github.com/alnah/go-htmlexport/internal/pluginstate"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// DefaultName is the config name searched when none is given.
const DefaultName = "htmlexport"

// Environment variables that override file settings.
const (
	EnvConfig      = "HTMLEXPORT_CONFIG"
	EnvBrowserBin  = "ROD_BROWSER_BIN"
	EnvStateFile   = "HTMLEXPORT_STATE_FILE"
	EnvLogLevel    = "HTMLEXPORT_LOG_LEVEL"
	EnvMathService = "HTMLEXPORT_MATH_ENDPOINT"
)

// Field length limits.
const (
	MaxPathLength     = 4096
	MaxURLLength      = 2048
	MaxPageSizeLength = 10
	MaxAddrLength     = 255
	MaxFontPaths      = 32
)

// Numeric bounds.
const (
	MaxMarginCM = 10.0
	MaxHTMLMB   = 512
	MinDPI      = 72
	MaxDPI      = 1200
	MaxPoolSize = 64
)

// Config holds all settings for the htmlexport CLI and server.
type Config struct {
	StyleDir string        `yaml:"style_dir"`
	PDF      PDFConfig     `yaml:"pdf"`
	Word     WordConfig    `yaml:"word"`
	Math     MathConfig    `yaml:"math"`
	Emoji    EmojiConfig   `yaml:"emoji"`
	Plugins  PluginsConfig `yaml:"plugins"`
	Log      LogConfig     `yaml:"log"`
	Serve    ServeConfig   `yaml:"serve"`

	// BrowserBin is taken from ROD_BROWSER_BIN only.
	BrowserBin string `yaml:"-"`
}

// PDFConfig controls the browser print step.
type PDFConfig struct {
	PageSize string        `yaml:"page_size"` // "a4", "letter", "legal"
	MarginCM float64       `yaml:"margin_cm"`
	Timeout  time.Duration `yaml:"timeout"`
}

// WordConfig controls the DOCX pipeline.
type WordConfig struct {
	MaxHTMLMB    int           `yaml:"max_html_mb"`
	ImageTimeout time.Duration `yaml:"image_timeout"`
	BaseDir      string        `yaml:"base_dir"` // local image root (empty = working directory)
}

// MathConfig points at the remote TeX renderer.
type MathConfig struct {
	Endpoint string        `yaml:"endpoint"`
	DPI      int           `yaml:"dpi"`
	Timeout  time.Duration `yaml:"timeout"`
}

// EmojiConfig lists color emoji fonts, tried in order.
type EmojiConfig struct {
	FontPaths []string `yaml:"font_paths"`
}

// PluginsConfig locates the installed-plugin state file.
type PluginsConfig struct {
	StateFile string `yaml:"state_file"`
}

// LogConfig defines log verbosity and the optional rotated log file.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// ServeConfig configures the HTTP export server.
type ServeConfig struct {
	Addr     string `yaml:"addr"`
	PoolSize int    `yaml:"pool_size"` // 0 = derived from GOMAXPROCS
}

var pageSizes = map[string]bool{"a4": true, "letter": true, "legal": true}

var logLevels = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		PDF: PDFConfig{
			PageSize: "a4",
			MarginCM: 2,
			Timeout:  30 * time.Second,
		},
		Word: WordConfig{
			MaxHTMLMB:    50,
			ImageTimeout: images.DefaultTimeout,
		},
		Math: MathConfig{
			Endpoint: mathrender.DefaultEndpoint,
			DPI:      mathrender.DefaultDPI,
			Timeout:  mathrender.DefaultTimeout,
		},
		Plugins: PluginsConfig{StateFile: pluginstate.DefaultFileName},
		Log:     LogConfig{Level: "info"},
		Serve:   ServeConfig{Addr: "127.0.0.1:8080"},
	}
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(validateFieldLength("style_dir", c.StyleDir, MaxPathLength))

	add(validateFieldLength("pdf.page_size", c.PDF.PageSize, MaxPageSizeLength))
	if c.PDF.PageSize != "" && !pageSizes[strings.ToLower(c.PDF.PageSize)] {
		add(fmt.Errorf("%w: pdf.page_size must be a4, letter or legal, got %q", ErrInvalidValue, c.PDF.PageSize))
	}
	if c.PDF.MarginCM < 0 || c.PDF.MarginCM > MaxMarginCM {
		add(fmt.Errorf("%w: pdf.margin_cm must be between 0 and %.0f, got %.2f", ErrInvalidValue, MaxMarginCM, c.PDF.MarginCM))
	}
	add(validateDuration("pdf.timeout", c.PDF.Timeout))

	if c.Word.MaxHTMLMB < 0 || c.Word.MaxHTMLMB > MaxHTMLMB {
		add(fmt.Errorf("%w: word.max_html_mb must be between 0 and %d, got %d", ErrInvalidValue, MaxHTMLMB, c.Word.MaxHTMLMB))
	}
	add(validateDuration("word.image_timeout", c.Word.ImageTimeout))
	add(validateFieldLength("word.base_dir", c.Word.BaseDir, MaxPathLength))

	add(validateFieldLength("math.endpoint", c.Math.Endpoint, MaxURLLength))
	if c.Math.Endpoint != "" && !strings.HasPrefix(c.Math.Endpoint, "http://") && !strings.HasPrefix(c.Math.Endpoint, "https://") {
		add(fmt.Errorf("%w: math.endpoint must be an http(s) URL", ErrInvalidValue))
	}
	if c.Math.DPI != 0 && (c.Math.DPI < MinDPI || c.Math.DPI > MaxDPI) {
		add(fmt.Errorf("%w: math.dpi must be between %d and %d, got %d", ErrInvalidValue, MinDPI, MaxDPI, c.Math.DPI))
	}
	add(validateDuration("math.timeout", c.Math.Timeout))

	if len(c.Emoji.FontPaths) > MaxFontPaths {
		add(fmt.Errorf("%w: emoji.font_paths has %d entries (max %d)", ErrInvalidValue, len(c.Emoji.FontPaths), MaxFontPaths))
	}
	for i, p := range c.Emoji.FontPaths {
		add(validateFieldLength(fmt.Sprintf("emoji.font_paths[%d]", i), p, MaxPathLength))
	}

	add(validateFieldLength("plugins.state_file", c.Plugins.StateFile, MaxPathLength))

	if !logLevels[strings.ToLower(c.Log.Level)] {
		add(fmt.Errorf("%w: log.level must be debug, info, warn or error, got %q", ErrInvalidValue, c.Log.Level))
	}
	add(validateFieldLength("log.file", c.Log.File, MaxPathLength))

	add(validateFieldLength("serve.addr", c.Serve.Addr, MaxAddrLength))
	if c.Serve.PoolSize < 0 || c.Serve.PoolSize > MaxPoolSize {
		add(fmt.Errorf("%w: serve.pool_size must be between 0 and %d, got %d", ErrInvalidValue, MaxPoolSize, c.Serve.PoolSize))
	}

	return errors.Join(errs...)
}

// MaxHTMLBytes converts Word.MaxHTMLMB to bytes.
func (c *Config) MaxHTMLBytes() int64 {
	return int64(c.Word.MaxHTMLMB) << 20
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func validateDuration(fieldName string, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: %s must not be negative, got %s", ErrInvalidValue, fieldName, d)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Values absent from the file keep their defaults. Environment overrides are
// applied last.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := unmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load resolves the config the CLI should use. An explicit name or path must
// exist. Otherwise HTMLEXPORT_CONFIG is consulted, then the default name; a
// missing default file yields DefaultConfig with env overrides.
func Load(nameOrPath string) (*Config, error) {
	if nameOrPath != "" {
		return LoadConfig(nameOrPath)
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return LoadConfig(env)
	}

	cfg, err := LoadConfig(DefaultName)
	if errors.Is(err, ErrConfigNotFound) {
		cfg = DefaultConfig()
		cfg.ApplyEnv()
		return cfg, cfg.Validate()
	}
	return cfg, err
}

// ApplyEnv overrides file values with environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvBrowserBin); v != "" {
		c.BrowserBin = v
	}
	if v := os.Getenv(EnvStateFile); v != "" {
		c.Plugins.StateFile = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvMathService); v != "" {
		c.Math.Endpoint = v
	}
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/htmlexport/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "htmlexport", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
