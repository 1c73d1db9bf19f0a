package docxconv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/cssclean"
	"github.com/alnah/go-htmlexport/internal/htmltree"
)

// Indents in twips.
const (
	listIndent    = 360
	listHanging   = 360
	quoteIndent   = 284
	ddIndent      = 400
	tableFullPct  = 5000 // fiftieths of a percent
	headerFill    = "6366F1"
	headerText    = "FFFFFF"
	tableBorder   = "6366F1"
	cellBorder    = "E5E7EB"
	linkColor     = "0969DA"
	fallbackColor = "666666"
)

var blockTags = map[string]bool{
	"html": true, "body": true, "div": true, "p": true, "section": true,
	"article": true, "main": true, "header": true, "footer": true,
	"aside": true, "figure": true, "figcaption": true, "address": true,
	"center": true, "details": true, "summary": true, "form": true,
	"fieldset": true, "caption": true, "blockquote": true, "pre": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"table": true, "thead": true, "tbody": true, "tfoot": true, "tr": true,
	"td": true, "th": true, "hr": true, "nav": true, "script": true,
	"style": true, "head": true, "noscript": true, "template": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

var bullets = []string{"•", "◦", "▪"}

// sink is anything paragraphs can be appended to: the document body or a
// table cell.
type sink interface {
	AddParagraph() *docx.Paragraph
}

// block is the walking context of one block element. Inline content is
// appended to cur, which is created on first use.
type block struct {
	sink   sink
	style  blockStyle
	run    runStyle
	pre    bool
	inCell bool
	level  int // list nesting

	prefix  string // list marker for the next paragraph
	cur     *docx.Paragraph
	atStart bool // no visible text since the paragraph or last break
	space   bool // the last text ended in a collapsible space
}

// nested returns a child context. A pending list marker moves to the child.
func (b *block) nested(style blockStyle) *block {
	nb := &block{
		sink:   b.sink,
		style:  style,
		run:    b.run,
		pre:    b.pre,
		inCell: b.inCell,
		level:  b.level,
		prefix: b.prefix,
	}
	b.prefix = ""
	b.cur = nil
	return nb
}

// paragraph returns the current paragraph, creating it if needed.
func (w *writer) paragraph(b *block) *docx.Paragraph {
	if b.cur != nil {
		return b.cur
	}
	p := b.sink.AddParagraph()
	p.Properties = b.style.properties()
	b.cur = p
	b.atStart = true

	if b.prefix != "" {
		if p.Properties == nil {
			p.Properties = &docx.ParagraphProperties{}
		}
		p.Properties.Ind = &docx.Ind{Left: b.style.indent, Hanging: listHanging}
		marker := b.run
		marker.vertAlign = ""
		p.Children = append(p.Children, textRun(b.prefix+"\t", marker))
		b.prefix = ""
	}
	return p
}

func textRun(text string, rs runStyle) *docx.Run {
	return &docx.Run{
		RunProperties: rs.properties(),
		Children:      []interface{}{&docx.Text{Text: text, XMLSpace: "preserve"}},
	}
}

func (w *writer) children(n *html.Node, b *block) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if w.ctx.Err() != nil {
			return
		}
		w.node(c, b, b.run)
	}
}

func (w *writer) node(n *html.Node, b *block, rs runStyle) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data, b, rs)
	case html.ElementNode:
		if blockTags[n.Data] {
			b.cur = nil
			w.element(n, b)
			b.cur = nil
			return
		}
		w.inline(n, b, rs)
	case html.DocumentNode:
		w.children(n, b)
	}
}

// element converts one block-level element.
func (w *writer) element(n *html.Node, b *block) {
	style := htmltree.Attr(n, "style")

	switch n.Data {
	case "script", "style", "nav", "head", "noscript", "template":
		return

	case "h1", "h2", "h3", "h4", "h5", "h6":
		nb := b.nested(blockStyle{style: "Heading" + n.Data[1:]}.withAlign(htmltree.Attr(n, "align"), style))
		nb.run = runStyle{}.applyCSS(style)
		w.children(n, nb)

	case "p":
		if strings.TrimSpace(htmltree.TextContent(n)) == PageBreakMarker {
			w.pageBreak(b)
			return
		}
		nb := b.nested(b.style.withAlign(htmltree.Attr(n, "align"), style))
		nb.run = b.run.applyCSS(style)
		w.children(n, nb)

	case "pre":
		nb := b.nested(blockStyle{style: "Code", indent: b.style.indent})
		nb.pre = true
		nb.run = runStyle{}
		w.children(n, nb)
		if nb.cur != nil {
			trimTrailingBreaks(nb.cur)
		}

	case "blockquote":
		bs := blockStyle{style: "Quote"}
		if b.style.indent > 0 {
			bs.indent = b.style.indent + quoteIndent
		}
		w.children(n, b.nested(bs))

	case "ul", "ol":
		w.list(n, b)

	case "li":
		// A stray item outside a list still gets a bullet.
		nb := b.nested(blockStyle{indent: b.style.indent + listIndent})
		nb.prefix = bullets[0]
		w.children(n, nb)

	case "dt":
		nb := b.nested(b.style)
		nb.run.bold = true
		w.children(n, nb)

	case "dd":
		bs := b.style
		bs.indent += ddIndent
		w.children(n, b.nested(bs))

	case "table":
		w.table(n, b)

	case "hr":
		b.cur = nil
		b.sink.AddParagraph().Style("HorizontalRule")

	case "center":
		bs := b.style
		bs.align = "center"
		w.children(n, b.nested(bs))

	case "summary", "caption":
		nb := b.nested(b.style.withAlign(htmltree.Attr(n, "align"), style))
		nb.run.bold = true
		w.children(n, nb)

	case "figcaption":
		bs := b.style
		bs.align = "center"
		nb := b.nested(bs)
		nb.run.italic = true
		w.children(n, nb)

	case "html", "body", "thead", "tbody", "tfoot", "tr", "td", "th":
		w.children(n, b)

	default:
		// div, section and the other generic containers.
		nb := b.nested(b.style.withAlign(htmltree.Attr(n, "align"), style))
		nb.run = b.run.applyCSS(style)
		w.children(n, nb)
	}
}

func (w *writer) pageBreak(b *block) {
	b.cur = nil
	b.sink.AddParagraph().AddPageBreaks()
}

// list converts ul and ol. Items are indented per level and carry a text
// marker, since the template defines no numbering.
func (w *writer) list(n *html.Node, b *block) {
	ordered := n.Data == "ol"
	index := 1
	if ordered {
		if s, err := strconv.Atoi(strings.TrimSpace(htmltree.Attr(n, "start"))); err == nil {
			index = s
		}
	}

	b.cur = nil
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode {
			continue
		}
		if li.Data != "li" {
			w.node(li, b, b.run)
			continue
		}

		nb := b.nested(blockStyle{indent: b.style.indent + listIndent, align: b.style.align})
		nb.level = b.level + 1
		switch {
		case !hasMarker(li):
		case ordered:
			nb.prefix = fmt.Sprintf("%d.", index)
		default:
			nb.prefix = bullets[b.level%len(bullets)]
		}
		w.children(li, nb)
		index++
	}
	b.cur = nil
}

// hasMarker is false for items that draw their own checkbox or opt out with
// list-style: none.
func hasMarker(li *html.Node) bool {
	if htmltree.HasClass(li, "task-item") {
		return false
	}
	for _, d := range cssclean.Parse(htmltree.Attr(li, "style")) {
		p := strings.ToLower(d.Property)
		if (p == "list-style" || p == "list-style-type") && strings.EqualFold(strings.TrimSpace(d.Value), "none") {
			return false
		}
	}
	return true
}

// trimTrailingBreaks drops line breaks at the end of a code paragraph.
func trimTrailingBreaks(p *docx.Paragraph) {
	for len(p.Children) > 0 {
		run, ok := p.Children[len(p.Children)-1].(*docx.Run)
		if !ok || len(run.Children) == 0 {
			return
		}
		if _, isBreak := run.Children[len(run.Children)-1].(*docx.BarterRabbet); !isBreak {
			return
		}
		run.Children = run.Children[:len(run.Children)-1]
		if len(run.Children) == 0 {
			p.Children = p.Children[:len(p.Children)-1]
		}
	}
}
