package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	htmlexport "github.com/alnah/go-htmlexport"
	"github.com/alnah/go-htmlexport/internal/config"
	"github.com/alnah/go-htmlexport/internal/logging"
	"github.com/alnah/go-htmlexport/internal/mathrender"
	"github.com/alnah/go-htmlexport/internal/pluginstate"
)

// session bundles what every exporting command needs.
type session struct {
	cfg      *config.Config
	logger   *zap.Logger
	closeLog func() error
}

// openSession loads the config and builds the logger. The console logger
// writes to stderr; quiet raises it to errors only.
func openSession(f commonFlags, stderr io.Writer) (*session, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if f.quiet {
		level = "error"
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:   level,
		Verbose: f.verbose,
		File:    cfg.Log.File,
		Console: stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	}
	return &session{cfg: cfg, logger: logger, closeLog: closeLog}, nil
}

// Close flushes the logger.
func (s *session) Close() error {
	return s.closeLog()
}

// plugins opens the plugin state store named by the config.
func (s *session) plugins() *pluginstate.Store {
	return pluginstate.Open(s.cfg.Plugins.StateFile, pluginstate.WithLogger(s.logger))
}

// exporterOptions maps config settings onto library options. A positive
// timeout overrides the config's PDF timeout.
func (s *session) exporterOptions(timeout time.Duration) []htmlexport.Option {
	cfg := s.cfg
	if timeout <= 0 {
		timeout = cfg.PDF.Timeout
	}

	math := mathrender.New(
		mathrender.WithEndpoint(cfg.Math.Endpoint),
		mathrender.WithDPI(cfg.Math.DPI),
		mathrender.WithTimeout(cfg.Math.Timeout),
		mathrender.WithLogger(s.logger),
	)

	opts := []htmlexport.Option{
		htmlexport.WithLogger(s.logger),
		htmlexport.WithMathRenderer(math),
		htmlexport.WithPage(pageSettings(cfg)),
		htmlexport.WithMaxHTMLSize(cfg.MaxHTMLBytes()),
		htmlexport.WithImageTimeout(cfg.Word.ImageTimeout),
	}
	if timeout > 0 {
		opts = append(opts, htmlexport.WithTimeout(timeout))
	}
	if cfg.StyleDir != "" {
		opts = append(opts, htmlexport.WithStyleDir(cfg.StyleDir))
	}
	if cfg.Word.BaseDir != "" {
		opts = append(opts, htmlexport.WithBaseDir(cfg.Word.BaseDir))
	}
	if len(cfg.Emoji.FontPaths) > 0 {
		opts = append(opts, htmlexport.WithEmojiFonts(cfg.Emoji.FontPaths...))
	}
	return opts
}

// pageSettings reads the PDF page from cfg. An empty size means A4.
func pageSettings(cfg *config.Config) htmlexport.PageSettings {
	page := htmlexport.DefaultPageSettings()
	if cfg.PDF.PageSize != "" {
		page.Size = strings.ToLower(cfg.PDF.PageSize)
	}
	page.MarginCM = cfg.PDF.MarginCM
	return page
}

// parseTimeout parses a --timeout value. Empty means unset.
func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: invalid timeout %q", ErrUsage, s)
	}
	return d, nil
}
