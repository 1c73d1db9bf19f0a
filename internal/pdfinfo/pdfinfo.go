// Package pdfinfo validates generated PDFs and extracts their text.
package pdfinfo

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Sentinel errors for PDF inspection.
var (
	ErrEmpty   = errors.New("pdf is empty")
	ErrInvalid = errors.New("invalid pdf")
	ErrNoPages = errors.New("pdf has no pages")
)

// pageSeparator splits pages in extracted text.
const pageSeparator = "\f"

// Info describes a validated PDF.
type Info struct {
	Pages int
	Size  int
}

// Validate parses and validates pdf with pdfcpu and reports its page count.
func Validate(pdf []byte) (Info, error) {
	if len(pdf) == 0 {
		return Info{}, ErrEmpty
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		return Info{}, fmt.Errorf("%w: missing header", ErrInvalid)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if ctx.PageCount == 0 {
		return Info{}, ErrNoPages
	}

	return Info{
		Pages: ctx.PageCount,
		Size:  len(pdf),
	}, nil
}

// ExtractText returns the plain text of the PDF at path, one page after
// another separated by form feeds. Pages without a text layer are empty.
func ExtractText(path string) (string, error) {
	f, r, err := pdflib.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	defer f.Close()

	return pagesText(r), nil
}

// ExtractTextBytes is ExtractText for an in-memory PDF.
func ExtractTextBytes(pdf []byte) (string, error) {
	if len(pdf) == 0 {
		return "", ErrEmpty
	}
	r, err := pdflib.NewReader(bytes.NewReader(pdf), int64(len(pdf)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return pagesText(r), nil
}

// Pages splits text produced by ExtractText back into pages.
func Pages(text string) []string {
	return strings.Split(text, pageSeparator)
}

func pagesText(r *pdflib.Reader) string {
	var buf strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if i > 1 {
			buf.WriteString(pageSeparator)
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
	}
	return buf.String()
}
