package markdown

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/htmltree"
	"github.com/alnah/go-htmlexport/internal/transform"
)

// alertMarker matches the "[!KIND]" line opening a GitHub alert blockquote.
var alertMarker = regexp.MustCompile(`^\s*\[!(NOTE|TIP|IMPORTANT|WARNING|CAUTION)\]\s*`)

// postprocess rewrites alert blockquotes and collects the heading outline.
func postprocess(body string) (string, []TOCEntry, error) {
	doc, err := htmltree.Parse(body)
	if err != nil {
		return "", nil, err
	}
	for _, bq := range htmltree.FindAll(doc.Root, "blockquote") {
		rewriteAlert(bq)
	}
	toc := collectTOC(doc.Root)
	out, err := doc.Render()
	return out, toc, err
}

// rewriteAlert turns
//
//	<blockquote><p>[!WARNING]<br/>text</p></blockquote>
//
// into a div.markdown-alert.markdown-alert-warning with a title paragraph.
func rewriteAlert(bq *html.Node) {
	var first *html.Node
	for c := bq.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			first = c
			break
		}
	}
	if first == nil || !htmltree.IsElement(first, "p") || first.FirstChild == nil || first.FirstChild.Type != html.TextNode {
		return
	}
	lead := first.FirstChild
	m := alertMarker.FindStringSubmatch(lead.Data)
	if m == nil {
		return
	}

	kind := transform.AlertKind(strings.ToLower(m[1]))
	lead.Data = lead.Data[len(m[0]):]
	if lead.Data == "" {
		htmltree.Remove(lead)
	}
	if next := first.FirstChild; next != nil && htmltree.IsElement(next, "br") {
		htmltree.Remove(next)
	}
	if first.FirstChild == nil || (first.FirstChild == first.LastChild && htmltree.IsBlank(first.FirstChild)) {
		htmltree.Remove(first)
	}

	div := htmltree.Element("div", "class", "markdown-alert markdown-alert-"+string(kind))
	htmltree.Append(div, htmltree.Append(
		htmltree.Element("p", "class", "markdown-alert-title"),
		htmltree.Text(kind.Title()),
	))
	htmltree.MoveChildren(div, bq)
	htmltree.Replace(bq, div)
}

func collectTOC(root *html.Node) []TOCEntry {
	var toc []TOCEntry
	for _, h := range htmltree.FindAll(root, "h1", "h2", "h3", "h4", "h5", "h6") {
		id := htmltree.Attr(h, "id")
		text := strings.TrimSpace(htmltree.TextContent(h))
		if id == "" || text == "" {
			continue
		}
		toc = append(toc, TOCEntry{Level: int(h.Data[1] - '0'), Text: text, ID: id})
	}
	return toc
}
