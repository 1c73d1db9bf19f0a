// Package docxconv walks a transformed HTML tree and builds a Word document
// with go-docx, then applies the layout fixes Word needs (header shading,
// bookmarks, internal links, image sizing).
package docxconv

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/vincent-petithory/dataurl"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// A4 with 2 cm margins.
const (
	PageWidthTwips  = 11906
	PageHeightTwips = 16838
	MarginTwips     = 1134

	emuPerTwip  = 635
	emuPerPixel = 9525

	WritableWidthEMU  = (PageWidthTwips - 2*MarginTwips) * emuPerTwip
	WritableHeightEMU = (PageHeightTwips - 2*MarginTwips) * emuPerTwip
)

// PageBreakMarker is replaced by a hard page break wherever it is the whole
// text of a paragraph.
const PageBreakMarker = "<<<PAGE_BREAK>>>"

// ErrorNotice opens the error block appended when conversion fails midway.
const ErrorNotice = "[Export Error: Document content could not be fully converted.]"

// ImageReader returns the bytes behind an img src.
type ImageReader func(src string) ([]byte, error)

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithImageReader replaces the default reader, which accepts local paths,
// file:// URLs and data URIs.
func WithImageReader(r ImageReader) Option {
	return func(c *Converter) {
		if r != nil {
			c.readImage = r
		}
	}
}

// Converter turns HTML trees into Word documents. It holds no per-document
// state and is safe for concurrent use.
type Converter struct {
	logger    *zap.Logger
	readImage ImageReader
}

// New creates a Converter.
func New(opts ...Option) *Converter {
	c := &Converter{
		logger:    zap.NewNop(),
		readImage: ReadImage,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stats counts what a conversion produced.
type Stats struct {
	Tables      int
	Images      int
	Bookmarks   int
	AnchorLinks int
	ScaledDown  int
}

// Result is a finished document.
type Result struct {
	Doc   *docx.Docx
	Stats Stats
	// Failure is set when the walk stopped early. Doc then ends with an
	// error notice and is still a valid document.
	Failure error
}

// WriteTo writes the .docx archive.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	return r.Doc.WriteTo(w)
}

// Bytes returns the .docx archive.
func (r *Result) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := r.Doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing docx: %w", err)
	}
	return buf.Bytes(), nil
}

// Convert builds a document from root. anchors maps heading text to the
// bookmark name used for internal links. A panic or error while walking the
// tree is recovered into Result.Failure; only a nil tree or a canceled
// context returns an error.
func (c *Converter) Convert(ctx context.Context, root *html.Node, anchors map[string]string) (*Result, error) {
	if root == nil {
		return nil, ErrNilTree
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := &writer{
		ctx:    ctx,
		doc:    newDocument(),
		conv:   c,
		logger: c.logger,
	}
	failure, detail := w.run(root)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Doc: w.doc, Failure: failure}
	if failure != nil {
		c.logger.Warn("word conversion incomplete", zap.Error(failure))
		w.errorNotice(failure, detail)
	}

	res.Stats = postProcess(w.doc, anchors, c.logger)
	res.Stats.Tables = w.stats.Tables
	res.Stats.Images = w.stats.Images
	w.finish()
	return res, nil
}

// ReadImage is the default ImageReader.
func ReadImage(src string) ([]byte, error) {
	switch {
	case src == "":
		return nil, fmt.Errorf("empty image source")
	case strings.HasPrefix(src, "data:"):
		u, err := dataurl.DecodeString(src)
		if err != nil {
			return nil, fmt.Errorf("decoding data URI: %w", err)
		}
		return u.Data, nil
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return nil, fmt.Errorf("remote image not resolved: %s", src)
	}
	path := strings.TrimPrefix(src, "file://")
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the per-export image directory
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return data, nil
}

// writer holds the state of one conversion.
type writer struct {
	ctx    context.Context
	doc    *docx.Docx
	conv   *Converter
	logger *zap.Logger
	stats  Stats
}

func (w *writer) run(root *html.Node) (failure error, detail string) {
	defer func() {
		if r := recover(); r != nil {
			failure = fmt.Errorf("%w: %v", ErrConversion, r)
			detail = string(debug.Stack())
		}
	}()

	b := &block{sink: w.doc}
	if root.Type == html.ElementNode && blockTags[root.Data] {
		w.element(root, b)
	} else {
		w.children(root, b)
	}
	if err := w.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrConversion, err), ""
	}
	return nil, ""
}

// errorNotice appends the notice, the failure message and a small grey
// detail block.
func (w *writer) errorNotice(failure error, detail string) {
	w.doc.AddParagraph().AddText(ErrorNotice).Bold()
	w.doc.AddParagraph().AddText("Details: " + failure.Error())
	if detail != "" {
		p := w.doc.AddParagraph()
		p.Style("ErrorDetail")
		p.AddText(strings.TrimSpace(detail)).Size("16").Color("808080")
	}
}

// finish appends the A4 section properties, which must close the body.
func (w *writer) finish() {
	w.doc.Document.Body.Items = append(w.doc.Document.Body.Items, &docx.SectPr{
		PgSz: &docx.PgSz{W: PageWidthTwips, H: PageHeightTwips},
		PgMar: &docx.PgMar{
			Top:    MarginTwips,
			Left:   MarginTwips,
			Bottom: MarginTwips,
			Right:  MarginTwips,
			Header: MarginTwips / 2,
			Footer: MarginTwips / 2,
		},
	})
}
