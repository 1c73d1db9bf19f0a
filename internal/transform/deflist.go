package transform

import (
	"context"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-htmlexport/internal/htmltree"
)

// DefinitionLists bolds terms and indents descriptions. The Word generator
// has no list-of-definitions construct, so on that path the <dl> is
// unwrapped into paragraphs.
func DefinitionLists() Pass {
	return NewPass("deflist", func(_ context.Context, root *html.Node, env *Env) []*TransformError {
		lists := reversed(htmltree.FindAll(root, "dl"))
		return eachBlock("deflist", root, lists, env, buildDefinitionList)
	})
}

func buildDefinitionList(n *html.Node, env *Env) (*html.Node, error) {
	src := htmltree.Clone(n)
	for _, c := range htmltree.Children(src) {
		switch {
		case htmltree.IsElement(c, "dt"):
			if !isBold(c) {
				strong := htmltree.Element("strong")
				htmltree.MoveChildren(strong, c)
				htmltree.Append(c, strong)
			}
			htmltree.AddClass(c, "dl-term")
			htmltree.AddStyle(c, "margin-top", "8px")
		case htmltree.IsElement(c, "dd"):
			htmltree.AddClass(c, "dl-desc")
			htmltree.AddStyle(c, "margin-left", "20px")
		}
	}
	if env.Target == TargetPDF {
		return src, nil
	}

	frag := htmltree.NewFragmentRoot()
	for _, c := range htmltree.Children(src) {
		switch {
		case htmltree.IsElement(c, "dt", "dd"):
			rename(c, "p")
			if hasBlockChild(c) {
				rename(c, "div")
			}
			htmltree.Append(frag, c)
		case c.Type == html.TextNode && !htmltree.IsBlank(c):
			htmltree.Append(frag, htmltree.Wrap("p", c))
		}
	}
	return frag, nil
}

// isBold reports whether every visible child of n sits in one <strong> or <b>.
func isBold(n *html.Node) bool {
	var only *html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if htmltree.IsBlank(c) || c.Type == html.CommentNode {
			continue
		}
		if only != nil {
			return false
		}
		only = c
	}
	return htmltree.IsElement(only, "strong", "b")
}

var blockTags = []string{"p", "div", "ul", "ol", "table", "pre", "blockquote", "dl", "h1", "h2", "h3", "h4", "h5", "h6"}

func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if htmltree.IsElement(c, blockTags...) {
			return true
		}
	}
	return false
}

func rename(n *html.Node, tag string) {
	n.Data = tag
	n.DataAtom = atom.Lookup([]byte(tag))
}
