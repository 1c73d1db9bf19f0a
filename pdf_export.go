package htmlexport

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/fileutil"
	"github.com/alnah/go-htmlexport/internal/htmltree"
	"github.com/alnah/go-htmlexport/internal/images"
	"github.com/alnah/go-htmlexport/internal/safemode"
	"github.com/alnah/go-htmlexport/internal/transform"
)

// pdfState tracks how far a PDF export got. It is reported in errors.
type pdfState int

const (
	pdfRaw pdfState = iota
	pdfContainerExtracted
	pdfTransformed
	pdfStylesLinked
	pdfAssembled
	pdfDone
	pdfFailed
)

func (s pdfState) String() string {
	switch s {
	case pdfRaw:
		return "raw"
	case pdfContainerExtracted:
		return "container-extracted"
	case pdfTransformed:
		return "transformed"
	case pdfStylesLinked:
		return "styles-linked"
	case pdfAssembled:
		return "assembled"
	case pdfDone:
		return "done"
	case pdfFailed:
		return "failed"
	default:
		return fmt.Sprintf("pdfState(%d)", int(s))
	}
}

// contentSelectors are tried in order; the first match is the document.
var contentSelectors = []string{"#documentContent", ".markdown-content", ".content-area"}

// screenOnly lists what is dropped from a page with no content container.
const screenOnly = "script, button, nav, .top-nav, .toc-sidebar, .edit-actions, .btn, .no-print"

const defaultTitle = "Document"

// ExportPDF renders content to a PDF.
func (e *Exporter) ExportPDF(ctx context.Context, content string) (*PDFResult, error) {
	state := pdfRaw
	fail := func(err error) (*PDFResult, error) {
		e.logger.Warn("pdf export failed", zap.Stringer("state", state), zap.Error(err))
		return nil, fmt.Errorf("pdf export (%s): %w", state, err)
	}

	if strings.TrimSpace(content) == "" {
		return fail(fmt.Errorf("%w: empty HTML", ErrInvalidInput))
	}
	doc, err := htmltree.Parse(content)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	title := documentTitle(doc.Root)

	root := extractContainer(doc.Body())
	state = pdfContainerExtracted

	report, err := e.engine(transform.TargetPDF).Run(ctx, root)
	if err != nil {
		return fail(transformErr(err))
	}
	state = pdfTransformed

	localizeImages(root, e.cfg.baseDir, !e.cfg.noLocalImg, e.logger)

	body, err := htmltree.RenderChildren(root)
	if err != nil {
		return fail(fmt.Errorf("%w: rendering body: %v", ErrPDFGeneration, err))
	}
	css, err := e.styles.LoadStyle(e.cfg.styleName)
	if err != nil {
		return fail(fmt.Errorf("%w: loading style: %v", ErrPDFGeneration, err))
	}
	state = pdfStylesLinked

	page := safemode.Document(title, body, css)
	state = pdfAssembled

	pdf, err := e.pdf.ToPDF(ctx, page, &pdfOptions{Page: e.cfg.page})
	if err != nil {
		return fail(generationErr(err))
	}

	info, err := e.validate(pdf)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrPDFGeneration, err))
	}
	state = pdfDone

	e.logger.Info("pdf exported",
		zap.Int("pages", info.Pages),
		zap.Int("bytes", len(pdf)),
		zap.Int("isolated_failures", len(report.Errors)),
	)
	return &PDFResult{PDF: pdf, Pages: info.Pages, Report: report}, nil
}

// localizeImages points local image sources at absolute file:// URLs. The
// page is printed from a temp file, so relative sources would otherwise
// resolve against the temp directory. Relative sources resolve under baseDir
// (or the working directory), absolute ones must stay under baseDir when it
// is set. Local sources that are refused become alt text. Remote and data:
// sources are left to the browser.
func localizeImages(root *html.Node, baseDir string, allowLocal bool, logger *zap.Logger) {
	for _, img := range htmltree.FindAll(root, "img") {
		src := strings.TrimSpace(htmltree.Attr(img, "src"))
		if src == "" || fileutil.IsURL(src) || strings.HasPrefix(strings.ToLower(src), "data:") {
			continue
		}
		p, ok := fileutil.LocalPath(src)
		if !ok {
			continue
		}

		var err error
		switch {
		case !allowLocal:
			err = images.ErrLocalDisabled
		case !filepath.IsAbs(p):
			base := baseDir
			if base == "" {
				base = "."
			}
			p, err = fileutil.ResolveUnder(base, p)
		case baseDir != "":
			p, err = fileutil.ConfineUnder(baseDir, p)
		}
		if err != nil {
			logger.Debug("image replaced by alt text", zap.String("src", src), zap.Error(err))
			htmltree.Replace(img, images.AltSpan(htmltree.Attr(img, "alt")))
			continue
		}
		htmltree.SetAttr(img, "src", fileutil.PathToFileURL(p))
	}
}

// generationErr makes sure a renderer error matches ErrPDFGeneration while
// keeping the browser sentinels it may already carry.
func generationErr(err error) error {
	if errors.Is(err, ErrPDFGeneration) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPDFGeneration, err)
}

// extractContainer returns the first content container, detached into a
// fresh root. Without one, body is used after removing screen-only chrome.
func extractContainer(body *html.Node) *html.Node {
	for _, sel := range contentSelectors {
		if n := htmltree.Query(body, sel); n != nil {
			root := htmltree.NewFragmentRoot()
			htmltree.Append(root, n)
			return root
		}
	}
	for _, n := range htmltree.QueryAll(body, screenOnly) {
		if n.Parent != nil {
			htmltree.Remove(n)
		}
	}
	return body
}

// documentTitle prefers <title>, then the first h1.
func documentTitle(root *html.Node) string {
	for _, sel := range []string{"title", "h1"} {
		if n := htmltree.Query(root, sel); n != nil {
			if t := strings.Join(strings.Fields(htmltree.TextContent(n)), " "); t != "" {
				return t
			}
		}
	}
	return defaultTitle
}
