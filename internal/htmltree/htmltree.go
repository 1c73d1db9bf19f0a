// Package htmltree wraps golang.org/x/net/html with the small set of tree
// operations the export passes need: parsing fragments or full documents,
// rendering them back, building nodes, cloning subtrees and selector queries.
package htmltree

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML tree together with the shape it was parsed from.
// Fragments are rendered back without the implicit html/head/body wrapper.
type Document struct {
	Root     *html.Node
	Fragment bool
}

// Parse parses HTML content, handling both full documents and fragments.
// A fragment is parsed in a body context and gathered under a synthetic
// document node so that every pass can walk it uniformly.
func Parse(content string) (*Document, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		root, err := html.Parse(strings.NewReader(content))
		if err != nil {
			return nil, err
		}
		return &Document{Root: root}, nil
	}

	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return &Document{Root: container, Fragment: true}, nil
}

// Render serializes the document. Fragments render child by child.
func (d *Document) Render() (string, error) {
	if d.Fragment {
		return RenderChildren(d.Root)
	}
	var buf strings.Builder
	if err := html.Render(&buf, d.Root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Body returns the element holding the visible content: the <body> of a full
// document, or the synthetic root of a fragment.
func (d *Document) Body() *html.Node {
	if d.Fragment {
		return d.Root
	}
	if body := Find(d.Root, "body"); body != nil {
		return body
	}
	return d.Root
}

// RenderChildren renders the children of n without n itself.
func RenderChildren(n *html.Node) (string, error) {
	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// RenderNode renders n including its own tag.
func RenderNode(n *html.Node) (string, error) {
	var buf strings.Builder
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// NewFragmentRoot returns an empty synthetic document node suitable for
// holding a detached list of nodes.
func NewFragmentRoot() *html.Node {
	return &html.Node{Type: html.DocumentNode}
}
