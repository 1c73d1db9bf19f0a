package main

import (
	"errors"
	"os"

	htmlexport "github.com/alnah/go-htmlexport"
	"github.com/alnah/go-htmlexport/internal/config"
	"github.com/alnah/go-htmlexport/internal/pdfinfo"
	"github.com/alnah/go-htmlexport/internal/pluginstate"
)

// Exit codes for the htmlexport CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or input
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, htmlexport.ErrBrowserConnect) ||
		errors.Is(err, htmlexport.ErrPageCreate) ||
		errors.Is(err, htmlexport.ErrPageLoad) ||
		errors.Is(err, htmlexport.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, htmlexport.ErrInvalidInput) ||
		errors.Is(err, htmlexport.ErrInputTooLarge) ||
		errors.Is(err, htmlexport.ErrInvalidPageSize) ||
		errors.Is(err, htmlexport.ErrInvalidMargin) ||
		errors.Is(err, htmlexport.ErrInvalidStyleDir) ||
		errors.Is(err, htmlexport.ErrFeatureNotInstalled) ||
		errors.Is(err, pluginstate.ErrEmptyID) ||
		errors.Is(err, pdfinfo.ErrInvalid) ||
		errors.Is(err, pdfinfo.ErrEmpty) ||
		errors.Is(err, pdfinfo.ErrNoPages) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrUnknownPlugin) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, ErrUsage) {
		return ExitUsage
	}

	return ExitGeneral
}
