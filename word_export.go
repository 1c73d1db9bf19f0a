package htmlexport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/docxconv"
	"github.com/alnah/go-htmlexport/internal/fileutil"
	"github.com/alnah/go-htmlexport/internal/htmltree"
	"github.com/alnah/go-htmlexport/internal/images"
	"github.com/alnah/go-htmlexport/internal/transform"
)

// tocHeaderStyle is applied to the table of contents title in Word output.
const tocHeaderStyle = "font-size: 14pt; color: #4b5563; margin-top: 0;"

// ExportWord converts content to a .docx document. Conversion problems past
// the transformation step end up as an error notice inside the document and
// in WordResult.Failure; only setup errors are returned.
func (e *Exporter) ExportWord(ctx context.Context, content string) (*WordResult, error) {
	if int64(len(content)) > e.cfg.maxHTMLSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(content), e.cfg.maxHTMLSize)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty HTML", ErrInvalidInput)
	}

	doc, err := htmltree.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	body := doc.Body()
	for _, n := range htmltree.QueryAll(body, "script, style, nav") {
		htmltree.Remove(n)
	}
	root := selectWordContent(body)

	report, err := e.engine(transform.TargetWord).Run(ctx, root)
	if err != nil {
		return nil, transformErr(err)
	}
	anchors := headingAnchors(root)

	dir, cleanup, err := fileutil.TempDir("htmlexport-img")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWordGeneration, err)
	}
	defer cleanup()

	ropts := []images.Option{
		images.WithTimeout(e.cfg.imageTimeout),
		images.WithBaseDir(e.cfg.baseDir),
		images.WithLogger(e.logger),
	}
	if e.cfg.noLocalImg {
		ropts = append(ropts, images.WithoutLocalFiles())
	}
	if e.httpClient != nil {
		ropts = append(ropts, images.WithHTTPClient(e.httpClient))
	}
	imgStats := images.New(dir, ropts...).ResolveAll(ctx, root)

	res, err := e.docx.Convert(ctx, root, anchors)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrWordGeneration, err)
	}
	out, err := res.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWordGeneration, err)
	}

	e.logger.Info("word exported",
		zap.Int("bytes", len(out)),
		zap.Int("tables", res.Stats.Tables),
		zap.Int("images", res.Stats.Images),
		zap.Int("images_replaced", imgStats.Replaced),
		zap.Int("isolated_failures", len(report.Errors)),
		zap.Bool("degraded", res.Failure != nil),
	)
	return &WordResult{
		DOCX:    out,
		Stats:   res.Stats,
		Images:  imgStats,
		Report:  report,
		Failure: res.Failure,
	}, nil
}

// selectWordContent picks the part of the page that becomes the document.
// Inside #documentContent, the table of contents is kept ahead of the
// content, its header turned into an h2 and followed by a page break.
func selectWordContent(body *html.Node) *html.Node {
	container := htmltree.Query(body, "#documentContent")
	if container == nil {
		if md := htmltree.Query(body, ".markdown-content"); md != nil {
			root := htmltree.NewFragmentRoot()
			htmltree.Append(root, md)
			return root
		}
		return body
	}

	md := htmltree.Query(container, ".markdown-content")
	toc := htmltree.Query(container, ".toc-container")
	if md == nil {
		root := htmltree.NewFragmentRoot()
		htmltree.Append(root, container)
		return root
	}

	root := htmltree.NewFragmentRoot()
	if toc != nil {
		if hdr := htmltree.Query(toc, ".toc-header"); hdr != nil {
			h2 := htmltree.Element("h2", "style", tocHeaderStyle)
			htmltree.MoveChildren(h2, hdr)
			htmltree.Replace(hdr, h2)
		}
		htmltree.Append(root, toc)
		htmltree.Append(root, htmltree.Wrap("p", htmltree.Text(docxconv.PageBreakMarker)))
	}
	htmltree.Append(root, md)
	return root
}

// headingAnchors maps each heading's normalized text to the id links use to
// reach it. A later heading with the same text wins.
func headingAnchors(root *html.Node) map[string]string {
	anchors := make(map[string]string)
	for _, h := range htmltree.QueryAll(root, "h1, h2, h3, h4, h5, h6") {
		id := htmltree.Attr(h, "id")
		if id == "" {
			if a := leadingAnchor(h); a != nil {
				id = htmltree.Attr(a, "id")
				if id == "" {
					id = htmltree.Attr(a, "name")
				}
			}
		}
		text := strings.Join(strings.Fields(htmltree.TextContent(h)), " ")
		if id == "" || text == "" {
			continue
		}
		anchors[text] = id
	}
	return anchors
}

// leadingAnchor returns the a element opening h, if any. Ids deeper in the
// heading, such as footnote references, do not name the heading.
func leadingAnchor(h *html.Node) *html.Node {
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if htmltree.IsBlank(c) || c.Type == html.CommentNode {
			continue
		}
		if htmltree.IsElement(c, "a") {
			return c
		}
		return nil
	}
	return nil
}
