package transform

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/htmltree"
)

const defaultSummary = "Details"

// Details turns <details> widgets into an always-open bordered box.
func Details() Pass {
	return NewPass("details", func(_ context.Context, root *html.Node, env *Env) []*TransformError {
		nodes := reversed(htmltree.FindAll(root, "details"))
		return eachBlock("details", root, nodes, env, buildDetails)
	})
}

func buildDetails(n *html.Node, env *Env) (*html.Node, error) {
	src := htmltree.Clone(n)

	summary := defaultSummary
	if s := directChild(src, func(c *html.Node) bool { return c.Data == "summary" }); s != nil {
		if text := strings.Join(strings.Fields(htmltree.TextContent(s)), " "); text != "" {
			summary = text
		}
		htmltree.Remove(s)
	}

	marker := "►"
	if env.Target == TargetWord {
		marker = "▶"
	}

	box := htmltree.Element("div", "class", "details-box")
	header := htmltree.Element("p", "class", "details-summary")
	htmltree.Append(header, htmltree.Wrap("b", htmltree.Text(marker+" "+summary)))
	body := htmltree.Element("div", "class", "details-body")
	htmltree.MoveChildren(body, src)

	if env.Target == TargetWord {
		htmltree.AddStyle(box, "border", "1px solid #d0d7de")
		htmltree.AddStyle(box, "padding", "8px")
		htmltree.AddStyle(body, "margin-left", "15px")
	}
	return htmltree.Append(box, header, body), nil
}
