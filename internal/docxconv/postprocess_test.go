package docxconv

import (
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	"go.uber.org/zap"

	"github.com/alnah/go-htmlexport/internal/transform"
)

// ---------------------------------------------------------------------------
// TestPostProcess - Tables
// ---------------------------------------------------------------------------

func cellFill(tc *docx.WTableCell) string {
	if tc.TableCellProperties == nil || tc.TableCellProperties.Shade == nil {
		return ""
	}
	return tc.TableCellProperties.Shade.Fill
}

func TestPostProcess_HeaderRowShading(t *testing.T) {
	t.Parallel()

	res := convert(t, `<table>
		<tr><th>Name</th><th style="background-color:#ffebe9">Kept</th></tr>
		<tr><td>a</td><td>b</td></tr>
	</table>`, nil)

	tables := bodyTables(res)
	if len(tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(tables))
	}
	head := tables[0].TableRows[0].TableCells
	if got := cellFill(head[0]); got != headerFill {
		t.Errorf("header fill = %q, want %q", got, headerFill)
	}
	if got := cellFill(head[1]); got != "FFEBE9" {
		t.Errorf("pre-shaded header fill = %q, want FFEBE9", got)
	}
	run := head[0].Paragraphs[0].Children[0].(*docx.Run)
	if run.RunProperties.Color == nil || run.RunProperties.Color.Val != headerText {
		t.Errorf("header text color = %+v", run.RunProperties.Color)
	}
	if got := cellFill(tables[0].TableRows[1].TableCells[0]); got != "" {
		t.Errorf("body cell fill = %q, want none", got)
	}
	if res.Stats.Tables != 1 {
		t.Errorf("stats tables = %d", res.Stats.Tables)
	}
}

func TestPostProcess_LayoutTableUntouched(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		`<table border="0"><tr><td>a</td></tr></table>`,
		`<table class="footnote-table"><tr><td>1</td><td>note</td></tr></table>`,
	} {
		res := convert(t, src, nil)
		tbl := bodyTables(res)[0]
		if got := cellFill(tbl.TableRows[0].TableCells[0]); got != "" {
			t.Errorf("%s: fill = %q, want none", src, got)
		}
		if b := tbl.TableProperties.TableBorders.Top; b == nil || b.Val != "none" {
			t.Errorf("%s: top border = %+v, want none", src, b)
		}
	}
}

func TestPostProcess_AlertTable(t *testing.T) {
	t.Parallel()

	theme := transform.AlertThemes[transform.AlertNote]
	src := `<table class="alert-table" style="border-left: 4px solid ` + theme.Color + `; background-color: ` + theme.Background + `;">
		<tr><td class="alert-cell" style="background-color: ` + theme.Background + `;">
			<b class="alert-title" style="color: ` + theme.Color + `;">` + theme.Icon + ` Note</b>
			<p>Body</p>
		</td></tr>
	</table>`
	res := convert(t, src, nil)
	tbl := bodyTables(res)[0]
	tc := tbl.TableRows[0].TableCells[0]

	if got := cellFill(tc); got != "E6F6FF" {
		t.Errorf("alert fill = %q, want E6F6FF", got)
	}
	left := tbl.TableProperties.TableBorders.Left
	if left == nil || left.Color != "0969DA" || left.Size != 24 {
		t.Errorf("left rule = %+v", left)
	}
	if top := tbl.TableProperties.TableBorders.Top; top == nil || top.Val != "none" {
		t.Errorf("top border = %+v, want none", top)
	}

	title := tc.Paragraphs[0]
	icon, ok := title.Children[0].(*docx.Run)
	if !ok {
		t.Fatalf("first child = %T", title.Children[0])
	}
	if icon.RunProperties.Fonts == nil || icon.RunProperties.Fonts.ASCII != EmojiFont {
		t.Errorf("icon font = %+v, want %s", icon.RunProperties.Fonts, EmojiFont)
	}
	if icon.RunProperties.Bold == nil {
		t.Error("icon run lost the title formatting")
	}
	if got := strings.TrimSpace(paragraphText(title)); got != theme.Icon+" Note" {
		t.Errorf("title = %q", got)
	}
}

func TestPostProcess_AlertCellGetsThemeFill(t *testing.T) {
	t.Parallel()

	theme := transform.AlertThemes[transform.AlertWarning]
	res := convert(t, `<table><tr><td><b>`+theme.Icon+` Warning</b> careful</td></tr></table>`, nil)
	tc := bodyTables(res)[0].TableRows[0].TableCells[0]
	if got := cellFill(tc); got != "FFF8C5" {
		t.Errorf("fill = %q, want FFF8C5 rather than the header fill", got)
	}
}

func TestPostProcess_ColspanAndGrid(t *testing.T) {
	t.Parallel()

	res := convert(t, `<table><tr><td colspan="2">wide</td></tr><tr><td>a</td><td>b</td></tr></table>`, nil)
	tbl := bodyTables(res)[0]
	if n := len(tbl.TableGrid.GridCols); n != 2 {
		t.Errorf("grid cols = %d, want 2", n)
	}
	first := tbl.TableRows[0].TableCells
	if len(first) != 1 {
		t.Fatalf("first row cells = %d, want 1", len(first))
	}
	if gs := first[0].TableCellProperties.GridSpan; gs == nil || gs.Val != 2 {
		t.Errorf("gridSpan = %+v, want 2", gs)
	}
}

func TestPostProcess_NestedTableFlattened(t *testing.T) {
	t.Parallel()

	res := convert(t, `<table><tr><td>outer<table><tr><td>x</td><td>y</td></tr></table></td></tr></table>`, nil)
	tables := bodyTables(res)
	if len(tables) != 1 {
		t.Fatalf("body tables = %d, want 1", len(tables))
	}
	tc := tables[0].TableRows[0].TableCells[0]
	if len(tc.Tables) != 0 {
		t.Errorf("cell tables = %d, want 0", len(tc.Tables))
	}
	got := texts(tc.Paragraphs)
	if len(got) != 3 || got[0] != "outer" || got[1] != "x" || got[2] != "y" {
		t.Errorf("cell texts = %q", got)
	}
}

// ---------------------------------------------------------------------------
// TestPostProcess - Bookmarks and links
// ---------------------------------------------------------------------------

func TestPostProcess_BookmarksAndAnchors(t *testing.T) {
	t.Parallel()

	anchors := map[string]string{"Getting started": "getting-started", "Other": "other"}
	res := convert(t, `<h2>Getting   started</h2><p><a href="#getting-started">jump</a> and <a href="#">top</a></p><h3>Unmatched</h3>`, anchors)

	if res.Stats.Bookmarks != 1 {
		t.Errorf("bookmarks = %d, want 1", res.Stats.Bookmarks)
	}
	if res.Stats.AnchorLinks != 1 {
		t.Errorf("anchor links = %d, want 1", res.Stats.AnchorLinks)
	}

	ps := bodyParagraphs(res)
	start, ok := ps[0].Children[0].(*BookmarkStart)
	if !ok || start.Name != "getting-started" {
		t.Fatalf("heading starts with %T %+v", ps[0].Children[0], ps[0].Children[0])
	}
	end, ok := ps[0].Children[len(ps[0].Children)-1].(*BookmarkEnd)
	if !ok || end.ID != start.ID {
		t.Errorf("bookmark end = %+v", ps[0].Children[len(ps[0].Children)-1])
	}

	var link *AnchorLink
	for _, c := range ps[1].Children {
		if a, ok := c.(*AnchorLink); ok {
			link = a
		}
	}
	if link == nil || link.Anchor != "getting-started" || link.History != "1" {
		t.Errorf("anchor link = %+v", link)
	}
	if got := paragraphText(ps[1]); got != "jump and top" {
		t.Errorf("link paragraph = %q", got)
	}
	if _, ok := ps[2].Children[0].(*BookmarkStart); ok {
		t.Error("unmatched heading should not get a bookmark")
	}
}

func TestPostProcess_BookmarkIDsAreUnique(t *testing.T) {
	t.Parallel()

	anchors := map[string]string{"A": "a", "B": "b"}
	res := convert(t, `<h1>A</h1><h2>B</h2>`, anchors)
	ps := bodyParagraphs(res)
	a := ps[0].Children[0].(*BookmarkStart)
	b := ps[1].Children[0].(*BookmarkStart)
	if a.ID == b.ID {
		t.Errorf("bookmark ids collide: %d", a.ID)
	}
}

// ---------------------------------------------------------------------------
// TestFitExtent - Page fitting
// ---------------------------------------------------------------------------

func TestFitExtent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		cx, cy      int64
		wantChanged bool
		check       func(cx, cy int64) bool
	}{
		{"fits", 1000, 1000, false, func(cx, cy int64) bool { return cx == 1000 && cy == 1000 }},
		{"too wide", 2 * WritableWidthEMU, 1000, true, func(cx, cy int64) bool { return cx == WritableWidthEMU && cy == 500 }},
		{"too tall", 1000, 2 * WritableHeightEMU, true, func(cx, cy int64) bool { return cy == WritableHeightEMU && cx == 500 }},
		{"zero", 0, 10, false, func(cx, cy int64) bool { return cx == 0 && cy == 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := &docx.WPInline{Extent: &docx.WPExtent{CX: tt.cx, CY: tt.cy}}
			if got := fitExtent(in); got != tt.wantChanged {
				t.Errorf("changed = %v, want %v", got, tt.wantChanged)
			}
			if !tt.check(in.Extent.CX, in.Extent.CY) {
				t.Errorf("extent = %d x %d", in.Extent.CX, in.Extent.CY)
			}
		})
	}
}

func TestPostProcess_EmptyDocument(t *testing.T) {
	t.Parallel()

	stats := postProcess(newDocument(), nil, zap.NewNop())
	if stats != (Stats{}) {
		t.Errorf("stats = %+v, want zero", stats)
	}
}
