package main

import (
	"context"
	"errors"

	htmlexport "github.com/alnah/go-htmlexport"
	"github.com/alnah/go-htmlexport/internal/config"
	"github.com/alnah/go-htmlexport/internal/hints"
)

// hintFor returns an actionable suggestion to print after err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, htmlexport.ErrBrowserConnect),
		errors.Is(err, htmlexport.ErrPageCreate):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, htmlexport.ErrFeatureNotInstalled):
		return hints.ForFeatureNotInstalled(htmlexport.FeaturePDF)
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound()
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	case errors.Is(err, ErrInvalidExtension):
		return hints.ForInputExtension(inputExtensions)
	default:
		return ""
	}
}
