package transform

import (
	"context"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/htmltree"
)

// ClipGuard moves images that sit in flowed text into borderless one-row
// tables, where the PDF renderer lays them out correctly. Paragraphs are
// replaced by the table; headings and list items keep their element and
// receive the table as content. List items get a synthesized bullet column.
func ClipGuard() Pass {
	return NewPass("clipguard", func(_ context.Context, root *html.Node, env *Env) []*TransformError {
		seen := make(map[*html.Node]bool)
		var hosts []*html.Node
		for _, img := range htmltree.FindAll(root, "img") {
			host := htmltree.Closest(img, isFlowHost)
			if host == nil || seen[host] || htmltree.InsideTag(host, "table") || htmltree.InsideTag(img, "table") {
				continue
			}
			seen[host] = true
			hosts = append(hosts, host)
		}
		return eachBlock("clipguard", root, reversed(hosts), env, buildClipGuard)
	})
}

func isFlowHost(n *html.Node) bool {
	return htmltree.IsElement(n, "p", "li") || htmltree.IsHeading(n)
}

func buildClipGuard(n *html.Node, _ *Env) (*html.Node, error) {
	switch {
	case n.Data == "p":
		return guardParagraph(n), nil
	case n.Data == "li":
		guardListItem(n)
		return n, nil
	default:
		cell := htmltree.Element("td", "class", "clip-content")
		htmltree.MoveChildren(cell, n)
		htmltree.Append(n, guardTable(cell))
		return n, nil
	}
}

func guardTable(cells ...*html.Node) *html.Node {
	table := htmltree.Element("table",
		"class", "clip-guard",
		"border", "0",
		"cellpadding", "0",
		"cellspacing", "0",
	)
	return htmltree.Append(table, htmltree.Wrap("tbody", htmltree.Wrap("tr", cells...)))
}

func guardParagraph(p *html.Node) *html.Node {
	cell := htmltree.Element("td", "class", "clip-content")
	for _, c := range htmltree.Children(p) {
		htmltree.Append(cell, c)
	}
	table := guardTable(cell)
	if class := htmltree.Attr(p, "class"); class != "" {
		htmltree.AddClass(table, class)
	}
	return table
}

// guardListItem puts the content preceding any nested list into a bullet
// table at the top of li. A leading task checkbox becomes the bullet.
func guardListItem(li *html.Node) {
	var content []*html.Node
	var nested *html.Node
	for _, c := range htmltree.Children(li) {
		if htmltree.IsElement(c, "ul", "ol") {
			nested = c
			break
		}
		content = append(content, c)
	}

	bullet := htmltree.Element("td", "class", "clip-bullet", "width", "16", "valign", "top")
	if first := firstContent(content); first != nil && htmltree.HasClass(first, "task-checkbox") {
		htmltree.Append(bullet, first)
	} else {
		htmltree.Append(bullet, htmltree.Text("•"))
	}

	cell := htmltree.Element("td", "class", "clip-content")
	for _, c := range content {
		if c.Parent == li {
			htmltree.Append(cell, c)
		}
	}

	table := guardTable(bullet, cell)
	if nested != nil {
		li.InsertBefore(table, nested)
	} else {
		li.AppendChild(table)
	}
	// The class survives PDF safe mode, which drops the inline style.
	htmltree.AddClass(li, "clip-item")
	htmltree.AddStyle(li, "list-style", "none")
}

func firstContent(nodes []*html.Node) *html.Node {
	for _, n := range nodes {
		if !htmltree.IsBlank(n) {
			return n
		}
	}
	return nil
}
