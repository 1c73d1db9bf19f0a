package htmlexport

import "errors"

// Sentinel errors for library operations.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrInputTooLarge  = errors.New("input exceeds size limit")
	ErrTransform      = errors.New("HTML transformation aborted")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrWordGeneration = errors.New("Word generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")

	// ErrFeatureNotInstalled is returned by a feature handler whose plugin
	// is not enabled in the plugin state.
	ErrFeatureNotInstalled = errors.New("feature not installed")

	// Page settings validation errors.
	ErrInvalidPageSize = errors.New("invalid page size")
	ErrInvalidMargin   = errors.New("invalid margin")

	// Asset loading errors.
	ErrInvalidStyleDir = errors.New("invalid style directory")
)
