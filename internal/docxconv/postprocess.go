package docxconv

import (
	"strings"
	"unicode/utf8"

	"github.com/fumiama/go-docx"
	"go.uber.org/zap"

	"github.com/alnah/go-htmlexport/internal/transform"
)

// Paragraphs holding an image and less text than this are centered.
const captionlessRunes = 5

// postProcess applies the fixes that need the whole document: table header
// and alert shading, heading bookmarks, internal link rewriting and image
// scaling.
func postProcess(doc *docx.Docx, anchors map[string]string, logger *zap.Logger) Stats {
	pp := &postProcessor{doc: doc, anchors: anchors, logger: logger}
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			pp.paragraph(it, false)
		case *docx.Table:
			pp.table(it)
		}
	}
	return pp.stats
}

type postProcessor struct {
	doc     *docx.Docx
	anchors map[string]string
	logger  *zap.Logger
	stats   Stats
	nextID  int
}

func (pp *postProcessor) table(t *docx.Table) {
	if len(t.TableRows) == 0 {
		return
	}
	if theme, ok := alertTheme(t); ok {
		pp.alert(t, theme)
	} else if !borderless(t) {
		header(t.TableRows[0])
	}
	for _, row := range t.TableRows {
		for _, tc := range row.TableCells {
			for _, p := range tc.Paragraphs {
				pp.paragraph(p, true)
			}
			for _, nested := range tc.Tables {
				pp.table(nested)
			}
		}
	}
}

func (pp *postProcessor) paragraph(p *docx.Paragraph, inCell bool) {
	if !inCell {
		pp.bookmark(p)
	}
	pp.links(p)
	pp.images(p)
}

// bookmark wraps a heading's runs in the bookmark its anchor names.
func (pp *postProcessor) bookmark(p *docx.Paragraph) {
	if p.Properties == nil || p.Properties.Style == nil || !strings.HasPrefix(p.Properties.Style.Val, "Heading") {
		return
	}
	name, ok := pp.anchors[normalizeText(paragraphText(p))]
	if !ok || name == "" {
		return
	}
	id := pp.nextID
	pp.nextID++
	children := make([]interface{}, 0, len(p.Children)+2)
	children = append(children, &BookmarkStart{ID: id, Name: name})
	children = append(children, p.Children...)
	children = append(children, &BookmarkEnd{ID: id})
	p.Children = children
	pp.stats.Bookmarks++
}

// links turns hyperlinks whose target is a fragment into anchor links, since
// an external relationship to "#id" does not resolve inside Word.
func (pp *postProcessor) links(p *docx.Paragraph) {
	for i, c := range p.Children {
		h, ok := c.(*docx.Hyperlink)
		if !ok {
			continue
		}
		target, err := pp.doc.ReferTarget(h.ID)
		if err != nil || !strings.HasPrefix(target, "#") || len(target) < 2 {
			continue
		}
		p.Children[i] = &AnchorLink{Anchor: target[1:], History: "1", Run: h.Run}
		pp.stats.AnchorLinks++
	}
}

// images shrinks drawings that overflow the writable area and centers
// paragraphs that are essentially just a picture.
func (pp *postProcessor) images(p *docx.Paragraph) {
	drawings := 0
	textRunes := 0
	for _, c := range p.Children {
		r, ok := c.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range r.Children {
			switch v := rc.(type) {
			case *docx.Drawing:
				if v.Inline == nil || v.Inline.Extent == nil {
					continue
				}
				drawings++
				if fitExtent(v.Inline) {
					pp.stats.ScaledDown++
					pp.logger.Debug("image scaled to page",
						zap.Int64("cx", v.Inline.Extent.CX), zap.Int64("cy", v.Inline.Extent.CY))
				}
			case *docx.Text:
				textRunes += utf8.RuneCountInString(strings.TrimSpace(v.Text))
			}
		}
	}
	if drawings == 0 || textRunes >= captionlessRunes {
		return
	}
	if p.Properties == nil {
		p.Properties = &docx.ParagraphProperties{}
	}
	if p.Properties.Ind == nil {
		p.Properties.Justification = &docx.Justification{Val: "center"}
	}
}

// fitExtent scales an inline drawing to the page width, then the page
// height, keeping its aspect ratio. It reports whether the size changed.
func fitExtent(in *docx.WPInline) bool {
	cx, cy := in.Extent.CX, in.Extent.CY
	if cx <= 0 || cy <= 0 {
		return false
	}
	changed := false
	if cx > WritableWidthEMU {
		cy = cy * WritableWidthEMU / cx
		cx = WritableWidthEMU
		changed = true
	}
	if cy > WritableHeightEMU {
		cx = cx * WritableHeightEMU / cy
		cy = WritableHeightEMU
		changed = true
	}
	if changed {
		in.Size(max(cx, 1), max(cy, 1))
	}
	return changed
}

// alertTheme recognizes an alert by the icon opening its first cell, backed
// by either the kind's title or the theme background on that cell.
func alertTheme(t *docx.Table) (transform.AlertTheme, bool) {
	row := t.TableRows[0]
	if len(row.TableCells) == 0 {
		return transform.AlertTheme{}, false
	}
	first := row.TableCells[0]
	text := strings.TrimSpace(cellText(first))
	lead, _ := utf8.DecodeRuneInString(text)
	for kind, theme := range transform.AlertThemes {
		base, _ := utf8.DecodeRuneInString(theme.Icon)
		if lead != base {
			continue
		}
		if strings.Contains(text, kind.Title()) || hasFill(first, theme.Background) {
			return theme, true
		}
	}
	return transform.AlertTheme{}, false
}

func hasFill(tc *docx.WTableCell, color string) bool {
	want, ok := ParseColor(color)
	if !ok || tc.TableCellProperties == nil || tc.TableCellProperties.Shade == nil {
		return false
	}
	return strings.EqualFold(tc.TableCellProperties.Shade.Fill, want)
}

// alert makes sure every cell carries the theme background and renders the
// icon with an emoji font.
func (pp *postProcessor) alert(t *docx.Table, theme transform.AlertTheme) {
	fill, _ := ParseColor(theme.Background)
	for _, row := range t.TableRows {
		for _, tc := range row.TableCells {
			if tc.TableCellProperties == nil {
				tc.TableCellProperties = &docx.WTableCellProperties{}
			}
			if tc.TableCellProperties.Shade == nil && fill != "" {
				tc.Shade("clear", "auto", fill)
			}
			for _, p := range tc.Paragraphs {
				splitIcon(p, theme.Icon)
			}
		}
	}
}

// splitIcon moves a leading icon into its own run set in the emoji font.
func splitIcon(p *docx.Paragraph, icon string) {
	for i, c := range p.Children {
		r, ok := c.(*docx.Run)
		if !ok || len(r.Children) != 1 {
			continue
		}
		txt, ok := r.Children[0].(*docx.Text)
		if !ok || !strings.HasPrefix(txt.Text, icon) {
			continue
		}
		props := docx.RunProperties{}
		if r.RunProperties != nil {
			props = *r.RunProperties
		}
		props.Fonts = &docx.RunFonts{ASCII: EmojiFont, HAnsi: EmojiFont, EastAsia: EmojiFont}
		iconRun := &docx.Run{
			RunProperties: &props,
			Children:      []interface{}{&docx.Text{Text: icon, XMLSpace: "preserve"}},
		}
		rest := strings.TrimPrefix(txt.Text, icon)
		if rest == "" {
			p.Children[i] = iconRun
			return
		}
		txt.Text = rest
		children := make([]interface{}, 0, len(p.Children)+1)
		children = append(children, p.Children[:i]...)
		children = append(children, iconRun)
		children = append(children, p.Children[i:]...)
		p.Children = children
		return
	}
}

// header shades the first row of a data table unless its cells already
// carry a background.
func header(row *docx.WTableRow) {
	for _, tc := range row.TableCells {
		if tc.TableCellProperties == nil {
			tc.TableCellProperties = &docx.WTableCellProperties{}
		}
		if tc.TableCellProperties.Shade != nil {
			continue
		}
		tc.Shade("clear", "auto", headerFill)
		for _, p := range tc.Paragraphs {
			for _, c := range p.Children {
				r, ok := c.(*docx.Run)
				if !ok {
					continue
				}
				if r.RunProperties == nil {
					r.RunProperties = &docx.RunProperties{}
				}
				r.RunProperties.Bold = &docx.Bold{}
				r.RunProperties.Color = &docx.Color{Val: headerText}
			}
		}
	}
}

func borderless(t *docx.Table) bool {
	tp := t.TableProperties
	return tp != nil && tp.TableBorders != nil && tp.TableBorders.Top != nil && tp.TableBorders.Top.Val == "none"
}

func cellText(tc *docx.WTableCell) string {
	var sb strings.Builder
	for _, p := range tc.Paragraphs {
		sb.WriteString(paragraphText(p))
	}
	return sb.String()
}

// paragraphText concatenates the text of plain runs and link runs.
func paragraphText(p *docx.Paragraph) string {
	var sb strings.Builder
	runText := func(r *docx.Run) {
		for _, rc := range r.Children {
			if t, ok := rc.(*docx.Text); ok {
				sb.WriteString(t.Text)
			}
		}
	}
	for _, c := range p.Children {
		switch v := c.(type) {
		case *docx.Run:
			runText(v)
		case *docx.Hyperlink:
			runText(&v.Run)
		case *AnchorLink:
			runText(&v.Run)
		}
	}
	return sb.String()
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
