package transform

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/htmltree"
	"github.com/alnah/go-htmlexport/internal/icons"
)

// TaskLists replaces checkbox inputs with static glyphs and suppresses the
// native bullet of the enclosing list item.
func TaskLists() Pass {
	return NewPass("tasklist", func(_ context.Context, root *html.Node, env *Env) []*TransformError {
		var boxes []*html.Node
		for _, in := range htmltree.FindAll(root, "input") {
			if strings.EqualFold(htmltree.Attr(in, "type"), "checkbox") {
				boxes = append(boxes, in)
			}
		}
		errs := eachBlock("tasklist", root, boxes, env, buildCheckbox)

		for _, glyph := range htmltree.QueryAll(root, ".task-checkbox") {
			li := htmltree.Closest(glyph, func(p *html.Node) bool { return p.Data == "li" })
			if li == nil {
				continue
			}
			htmltree.AddClass(li, "task-item")
			htmltree.AddStyle(li, "list-style", "none")
		}
		return errs
	})
}

func buildCheckbox(n *html.Node, env *Env) (*html.Node, error) {
	checked := htmltree.HasAttr(n, "checked")

	if env.Target == TargetWord {
		label := "[ ] "
		if checked {
			label = "[x] "
		}
		span := htmltree.Element("span", "class", "task-checkbox", "style", "font-family: monospace;")
		return htmltree.Append(span, htmltree.Text(label)), nil
	}

	alt := "[ ]"
	class := "task-checkbox"
	if checked {
		alt = "[x]"
		class += " task-checked"
	}
	return htmltree.Element("img",
		"class", class,
		"src", icons.CheckboxURI(checked),
		"alt", alt,
		"width", "14",
		"height", "14",
	), nil
}
