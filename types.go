package htmlexport

import (
	"fmt"
	"strings"

	"github.com/alnah/go-htmlexport/internal/docxconv"
	"github.com/alnah/go-htmlexport/internal/images"
	"github.com/alnah/go-htmlexport/internal/transform"
)

// Page size constants.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in centimeters.
const (
	MinMarginCM     = 0.0
	MaxMarginCM     = 10.0
	DefaultMarginCM = 2.0
)

// paperInches holds portrait width and height.
var paperInches = map[string][2]float64{
	PageSizeA4:     {8.27, 11.69},
	PageSizeLetter: {8.5, 11},
	PageSizeLegal:  {8.5, 14},
}

// PageSettings configures PDF page dimensions.
type PageSettings struct {
	Size        string  // "a4", "letter", "legal"
	Orientation string  // "portrait", "landscape"
	MarginCM    float64 // applied to all sides
}

// DefaultPageSettings returns A4 portrait with 2 cm margins.
func DefaultPageSettings() PageSettings {
	return PageSettings{
		Size:        PageSizeA4,
		Orientation: OrientationPortrait,
		MarginCM:    DefaultMarginCM,
	}
}

// Validate checks that page settings are valid.
// Does not mutate - uses case-insensitive comparison.
func (p PageSettings) Validate() error {
	if _, ok := paperInches[strings.ToLower(p.Size)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}
	switch strings.ToLower(p.Orientation) {
	case "", OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: orientation %q", ErrInvalidPageSize, p.Orientation)
	}
	if p.MarginCM < MinMarginCM || p.MarginCM > MaxMarginCM {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, p.MarginCM, MinMarginCM, MaxMarginCM)
	}
	return nil
}

// inches returns the paper width and height, swapped for landscape.
// Unknown sizes fall back to A4.
func (p PageSettings) inches() (width, height float64) {
	dims, ok := paperInches[strings.ToLower(p.Size)]
	if !ok {
		dims = paperInches[PageSizeA4]
	}
	if strings.EqualFold(p.Orientation, OrientationLandscape) {
		return dims[1], dims[0]
	}
	return dims[0], dims[1]
}

// PDFResult is the outcome of a successful PDF export.
type PDFResult struct {
	PDF    []byte
	Pages  int
	Report *transform.Report
}

// WordResult is the outcome of a Word export. Failure is set when the
// converter recovered from an error and the document carries an error notice
// instead of (part of) the content.
type WordResult struct {
	DOCX    []byte
	Stats   docxconv.Stats
	Images  images.Stats
	Report  *transform.Report
	Failure error
}
