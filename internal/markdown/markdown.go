// Package markdown renders Markdown into the HTML shape the exporters
// expect from the host application: one document whose content sits in
// #documentContent > .markdown-content, with heading ids, GitHub alert
// blocks, footnotes, definition lists and task lists.
package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// ErrConversion indicates goldmark failed to render the document.
var ErrConversion = errors.New("markdown conversion failed")

const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
<div id="documentContent"><div class="markdown-content">
%s
</div></div>
</body>
</html>`

// Highlight placeholders use Private Use Area runes so ==text== survives
// goldmark without enabling raw HTML.
const (
	markStart = "\uE000"
	markEnd   = "\uE001"
)

var (
	crlfOrCR         = regexp.MustCompile(`\r\n?`)
	highlightPattern = regexp.MustCompile(`==([^=\n]+?)==`)
)

// TOCEntry is one heading of the rendered document.
type TOCEntry struct {
	Level int
	Text  string
	ID    string
}

// Renderer converts Markdown to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a Renderer with GFM, footnotes, definition lists, the
// typographer and chroma highlighting enabled.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.DefinitionList,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithXHTML(),
		),
	)
	return &Renderer{md: md}
}

// Render converts content into a complete HTML document and returns it with
// the table of contents. Goldmark has no context support, so conversion
// runs in a goroutine and Render returns early when ctx is done.
func (r *Renderer) Render(ctx context.Context, content string) (string, []TOCEntry, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	type result struct {
		html string
		toc  []TOCEntry
		err  error
	}
	done := make(chan result, 1)

	go func() {
		src := preprocess(content)
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(src), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrConversion, err)}
			return
		}
		body := strings.NewReplacer(markStart, "<mark>", markEnd, "</mark>").Replace(buf.String())
		body, toc, err := postprocess(body)
		if err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrConversion, err)}
			return
		}
		done <- result{
			html: fmt.Sprintf(documentTemplate, html.EscapeString(title(toc)), body),
			toc:  toc,
		}
	}()

	select {
	case <-ctx.Done():
		return "", nil, ctx.Err()
	case res := <-done:
		return res.html, res.toc, res.err
	}
}

func preprocess(content string) string {
	content = crlfOrCR.ReplaceAllString(content, "\n")
	return highlightPattern.ReplaceAllString(content, markStart+"$1"+markEnd)
}

// title is the first level-one heading, or "Document".
func title(toc []TOCEntry) string {
	for _, e := range toc {
		if e.Level == 1 && e.Text != "" {
			return e.Text
		}
	}
	return "Document"
}
