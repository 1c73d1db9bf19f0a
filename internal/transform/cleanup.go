package transform

import (
	"context"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/htmltree"
)

// Inline styles for CriticMarkup-style tags on the Word path.
var wordInlineStyles = map[string]string{
	"mark": "background-color: #ffff00;",
	"ins":  "color: #008000; text-decoration: underline;",
	"del":  "color: #ff0000; text-decoration: line-through;",
	"s":    "text-decoration: line-through;",
}

// Cleanup removes permalink artifacts and adapts a few inline tags.
func Cleanup() Pass {
	return NewPass("cleanup", func(_ context.Context, root *html.Node, env *Env) []*TransformError {
		for _, n := range htmltree.QueryAll(root, "a.headerlink") {
			htmltree.Remove(n)
		}

		if env.Target == TargetWord {
			for _, n := range htmltree.FindAll(root, "mark", "ins", "del", "s") {
				style := wordInlineStyles[n.Data]
				htmltree.AddClass(n, n.Data)
				rename(n, "span")
				if existing := htmltree.Attr(n, "style"); existing != "" {
					style = existing + "; " + style
				}
				htmltree.SetAttr(n, "style", style)
			}
			return nil
		}

		named := make(map[string]bool)
		for _, a := range htmltree.QueryAll(root, "a[name]") {
			named[htmltree.Attr(a, "name")] = true
		}
		for _, h := range htmltree.FindAll(root, "h1", "h2", "h3", "h4", "h5", "h6") {
			id := htmltree.Attr(h, "id")
			if id == "" || named[id] {
				continue
			}
			named[id] = true
			h.InsertBefore(htmltree.Element("a", "name", id, "class", "anchor"), h.FirstChild)
		}
		return nil
	})
}
