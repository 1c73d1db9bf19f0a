package docxconv

import (
	"bytes"
	"image"
	_ "image/gif"  // register decoder for image sizing
	_ "image/jpeg" // register decoder for image sizing
	_ "image/png"  // register decoder for image sizing
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/htmltree"
)

// DefaultAlt stands in for an image that cannot be embedded and has no alt.
const DefaultAlt = "Image"

// inline converts a phrasing element and its subtree.
func (w *writer) inline(n *html.Node, b *block, rs runStyle) {
	rs = rs.applyCSS(htmltree.Attr(n, "style"))

	switch n.Data {
	case "br":
		w.lineBreak(b, rs)
		return
	case "img":
		w.image(n, b, rs)
		return
	case "a":
		if w.link(n, b, rs) {
			return
		}
	case "input":
		if strings.EqualFold(htmltree.Attr(n, "type"), "checkbox") {
			box := "[ ] "
			if htmltree.HasAttr(n, "checked") {
				box = "[x] "
			}
			rs.font = CodeFont
			w.addText(b, box, rs)
		}
		return
	case "b", "strong":
		rs.bold = true
	case "i", "em", "cite", "dfn", "var":
		rs.italic = true
	case "u", "ins":
		rs.underline = true
	case "s", "strike", "del":
		rs.strike = true
	case "code", "kbd", "samp", "tt":
		if !b.pre {
			rs.code = true
		}
	case "sup":
		rs.vertAlign = "superscript"
	case "sub":
		rs.vertAlign = "subscript"
	case "mark":
		if rs.highlight == "" && rs.shade == "" {
			rs.highlight = "yellow"
		}
	case "small":
		rs.halfPts = 16
	case "font":
		if hex, ok := ParseColor(htmltree.Attr(n, "color")); ok {
			rs.color = hex
		}
		if face := primaryFont(htmltree.Attr(n, "face")); face != "" {
			rs.font = face
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c, b, rs)
	}
}

// text appends character data. Outside pre, whitespace collapses the way a
// browser would render it.
func (w *writer) text(s string, b *block, rs runStyle) {
	if b.pre {
		for i, line := range strings.Split(s, "\n") {
			if i > 0 {
				w.lineBreak(b, rs)
			}
			if line != "" {
				w.appendRun(b, textRun(line, rs))
			}
		}
		return
	}
	if strings.TrimSpace(s) == PageBreakMarker {
		w.pageBreak(b)
		return
	}
	w.addText(b, collapseSpace(s), rs)
}

func (w *writer) addText(b *block, s string, rs runStyle) {
	if s == "" {
		return
	}
	if b.cur == nil || b.atStart || b.space {
		s = strings.TrimLeft(s, " ")
		if s == "" {
			return
		}
	}
	w.appendRun(b, textRun(s, rs))
	b.space = strings.HasSuffix(s, " ")
}

func (w *writer) appendRun(b *block, r *docx.Run) {
	p := w.paragraph(b)
	p.Children = append(p.Children, r)
	b.atStart = false
	b.space = false
}

func (w *writer) lineBreak(b *block, rs runStyle) {
	p := w.paragraph(b)
	p.Children = append(p.Children, &docx.Run{
		RunProperties: rs.properties(),
		Children:      []interface{}{&docx.BarterRabbet{}},
	})
	b.atStart, b.space = true, false
}

// collapseSpace folds runs of ASCII whitespace to one space. Non-breaking
// spaces are kept.
func collapseSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				sb.WriteByte(' ')
			}
			space = true
		default:
			sb.WriteRune(r)
			space = false
		}
	}
	return sb.String()
}

// link emits a hyperlink run. It reports false when the element should be
// walked as ordinary inline content instead, as for links wrapping images.
func (w *writer) link(n *html.Node, b *block, rs runStyle) bool {
	href := strings.TrimSpace(htmltree.Attr(n, "href"))
	if href == "" || htmltree.Find(n, "img") != nil {
		return false
	}
	text := collapseSpace(htmltree.TextContent(n))
	if b.cur == nil || b.atStart || b.space {
		text = strings.TrimLeft(text, " ")
	}
	if strings.TrimSpace(text) == "" {
		return true
	}

	if rs.color == "" {
		rs.color = linkColor
	}
	rs.underline = true
	props := rs.properties()
	props.RunStyle = &docx.RunStyle{Val: "Hyperlink"}

	p := w.paragraph(b)
	h := p.AddLink(text, href)
	h.Run.InstrText = ""
	h.Run.RunProperties = props
	h.Run.Children = []interface{}{&docx.Text{Text: text, XMLSpace: "preserve"}}
	b.atStart = false
	b.space = strings.HasSuffix(text, " ")
	return true
}

// image embeds an img as an inline drawing sized from its width and height
// attributes or its pixel dimensions. Failures fall back to the alt text.
func (w *writer) image(n *html.Node, b *block, rs runStyle) {
	src := htmltree.Attr(n, "src")
	data, err := w.conv.readImage(src)
	var run *docx.Run
	if err == nil {
		run, err = w.paragraph(b).AddInlineDrawing(data)
	}
	if err != nil {
		w.logger.Debug("image not embedded", zap.String("url", truncate(src, 80)), zap.Error(err))
		alt := strings.TrimSpace(htmltree.Attr(n, "alt"))
		if alt == "" {
			alt = DefaultAlt
		}
		rs.italic = true
		rs.color = fallbackColor
		w.addText(b, alt, rs)
		return
	}
	b.atStart, b.space = false, false
	w.stats.Images++

	cx, cy := imageExtent(n, data)
	if cx > 0 && cy > 0 && len(run.Children) > 0 {
		if d, ok := run.Children[0].(*docx.Drawing); ok && d.Inline != nil {
			d.Inline.Size(cx, cy)
		}
	}
}

// imageExtent returns the display size in EMU, or zeros when unknown.
func imageExtent(n *html.Node, data []byte) (int64, int64) {
	w := pixelAttr(n, "width")
	h := pixelAttr(n, "height")
	if w > 0 && h > 0 {
		return w * emuPerPixel, h * emuPerPixel
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return 0, 0
	}
	nw, nh := int64(cfg.Width), int64(cfg.Height)
	switch {
	case w > 0:
		nh = nh * w / nw
		nw = w
	case h > 0:
		nw = nw * h / nh
		nh = h
	}
	return nw * emuPerPixel, nh * emuPerPixel
}

func pixelAttr(n *html.Node, key string) int64 {
	v := strings.TrimSuffix(strings.TrimSpace(htmltree.Attr(n, key)), "px")
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil || i <= 0 {
		return 0
	}
	return i
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
