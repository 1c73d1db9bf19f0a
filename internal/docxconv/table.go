package docxconv

import (
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/cssclean"
	"github.com/alnah/go-htmlexport/internal/htmltree"
)

// Classes of tables that only position content and get no grid.
var layoutClasses = []string{"formula", "footnote-table", "clip-guard", "tabbed-flat"}

// table converts a table at body level. Tables inside cells are flattened
// into the cell, since go-docx writes a cell's tables after all of its
// paragraphs.
func (w *writer) table(n *html.Node, b *block) {
	rows := tableRows(n)
	if len(rows) == 0 {
		return
	}
	if b.inCell {
		w.flattenTable(rows, b)
		return
	}

	cols := 0
	for _, tr := range rows {
		span := 0
		for _, td := range rowCells(tr) {
			span += colspan(td)
		}
		cols = max(cols, span)
	}
	if cols == 0 {
		return
	}

	b.cur = nil
	t := w.doc.AddTable(len(rows), cols, 0, nil)
	w.stats.Tables++
	layout := isLayoutTable(n)
	t.TableProperties.TableBorders = tableBorders(n, layout)
	t.TableGrid = evenGrid(cols)
	if layout {
		t.TableProperties.Width = &docx.WTableWidth{Type: "auto"}
	} else {
		t.TableProperties.Width = &docx.WTableWidth{W: tableFullPct, Type: "pct"}
	}
	if a := wordAlign(htmltree.Attr(n, "align")); a == "center" || a == "right" {
		t.Justification(a)
	}

	tableStyle := htmltree.Attr(n, "style")
	for ri, tr := range rows {
		row := t.TableRows[ri]
		cells := make([]*docx.WTableCell, 0, cols)
		ci := 0
		for _, td := range rowCells(tr) {
			if ci >= cols {
				break
			}
			tc := row.TableCells[ci]
			span := min(colspan(td), cols-ci)
			if span > 1 {
				tc.TableCellProperties.GridSpan = &docx.WGridSpan{Val: span}
			}
			w.cell(td, tc, tableStyle)
			cells = append(cells, tc)
			ci += span
		}
		for ; ci < cols; ci++ {
			cells = append(cells, row.TableCells[ci])
		}
		row.TableCells = cells
	}

	for _, row := range t.TableRows {
		for _, tc := range row.TableCells {
			if len(tc.Paragraphs) == 0 {
				tc.AddParagraph()
			}
		}
	}
}

// cell fills one table cell. Shading comes from the cell's background, then
// a bgcolor attribute, then the table's background.
func (w *writer) cell(td *html.Node, tc *docx.WTableCell, tableStyle string) {
	style := htmltree.Attr(td, "style")
	if fill, ok := background(style); ok {
		tc.Shade("clear", "auto", fill)
	} else if fill, ok := ParseColor(htmltree.Attr(td, "bgcolor")); ok {
		tc.Shade("clear", "auto", fill)
	} else if fill, ok := background(tableStyle); ok {
		tc.Shade("clear", "auto", fill)
	}

	switch strings.ToLower(htmltree.Attr(td, "valign")) {
	case "top":
		tc.TableCellProperties.VAlign = &docx.WVerticalAlignment{Val: "top"}
	case "middle", "center":
		tc.TableCellProperties.VAlign = &docx.WVerticalAlignment{Val: "center"}
	case "bottom":
		tc.TableCellProperties.VAlign = &docx.WVerticalAlignment{Val: "bottom"}
	}

	bs := blockStyle{}.withAlign(htmltree.Attr(td, "align"), style)
	bs.shade = ""
	cb := &block{sink: tc, inCell: true, style: bs}
	cb.run = runStyle{bold: td.Data == "th"}.applyCSS(style)
	cb.run.shade, cb.run.highlight = "", ""
	w.children(td, cb)
}

// flattenTable writes each cell of a nested table as its own paragraphs.
func (w *writer) flattenTable(rows []*html.Node, b *block) {
	b.cur = nil
	for _, tr := range rows {
		for _, td := range rowCells(tr) {
			nb := b.nested(b.style)
			nb.run.bold = td.Data == "th"
			w.children(td, nb)
		}
	}
	b.cur = nil
}

// evenGrid splits the writable width into equal columns. Word needs the
// grid for gridSpan to line up.
func evenGrid(cols int) *docx.WTableGrid {
	width := int64(PageWidthTwips-2*MarginTwips) / int64(cols)
	grid := &docx.WTableGrid{GridCols: make([]*docx.WGridCol, cols)}
	for i := range grid.GridCols {
		grid.GridCols[i] = &docx.WGridCol{W: width}
	}
	return grid
}

// tableRows lists the rows of n without descending into nested tables.
func tableRows(n *html.Node) []*html.Node {
	var rows []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case htmltree.IsElement(c, "tr"):
			rows = append(rows, c)
		case htmltree.IsElement(c, "thead", "tbody", "tfoot"):
			for r := c.FirstChild; r != nil; r = r.NextSibling {
				if htmltree.IsElement(r, "tr") {
					rows = append(rows, r)
				}
			}
		}
	}
	return rows
}

func rowCells(tr *html.Node) []*html.Node {
	var cells []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if htmltree.IsElement(c, "td", "th") {
			cells = append(cells, c)
		}
	}
	return cells
}

func colspan(td *html.Node) int {
	n, err := strconv.Atoi(strings.TrimSpace(htmltree.Attr(td, "colspan")))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, 63)
}

func isLayoutTable(n *html.Node) bool {
	if strings.TrimSpace(htmltree.Attr(n, "border")) == "0" {
		return true
	}
	for _, c := range layoutClasses {
		if htmltree.HasClass(n, c) {
			return true
		}
	}
	return false
}

func isAlertTable(n *html.Node) bool {
	return htmltree.HasClass(n, "alert-table")
}

// tableBorders picks the grid: none for layout tables, a colored left rule
// for alerts and the indigo frame for data tables.
func tableBorders(n *html.Node, layout bool) *docx.WTableBorders {
	none := func() *docx.WTableBorder { return &docx.WTableBorder{Val: "none"} }

	if isAlertTable(n) {
		left := &docx.WTableBorder{Val: "single", Size: 24, Color: tableBorder}
		if color, eighths, ok := borderLeft(htmltree.Attr(n, "style")); ok {
			left.Color, left.Size = color, eighths
		}
		return &docx.WTableBorders{Top: none(), Left: left, Bottom: none(), Right: none(), InsideH: none(), InsideV: none()}
	}
	if layout {
		return &docx.WTableBorders{Top: none(), Left: none(), Bottom: none(), Right: none(), InsideH: none(), InsideV: none()}
	}

	frame := func() *docx.WTableBorder { return &docx.WTableBorder{Val: "single", Size: 12, Color: tableBorder} }
	grid := func() *docx.WTableBorder { return &docx.WTableBorder{Val: "single", Size: 4, Color: cellBorder} }
	return &docx.WTableBorders{Top: frame(), Left: frame(), Bottom: frame(), Right: frame(), InsideH: grid(), InsideV: grid()}
}

// borderLeft reads "border-left: <width> <style> <color>" and returns the
// color and width in eighths of a point.
func borderLeft(style string) (string, int, bool) {
	for _, d := range cssclean.Parse(style) {
		if !strings.EqualFold(d.Property, "border-left") {
			continue
		}
		color, size := "", 0
		for _, tok := range strings.Fields(d.Value) {
			if hex, ok := ParseColor(tok); ok {
				color = hex
				continue
			}
			if px, err := strconv.ParseFloat(strings.TrimSuffix(tok, "px"), 64); err == nil && strings.HasSuffix(tok, "px") {
				size = int(px * 6)
			}
		}
		if color == "" {
			return "", 0, false
		}
		if size == 0 {
			size = 24
		}
		return color, min(max(size, 2), 96), true
	}
	return "", 0, false
}

func background(style string) (string, bool) {
	for _, d := range cssclean.Parse(style) {
		p := strings.ToLower(d.Property)
		if p == "background-color" || p == "background" {
			if hex, ok := ParseColor(d.Value); ok {
				return hex, true
			}
		}
	}
	return "", false
}
