package htmltree

import (
	"strings"
	"sync"

	"github.com/JohannesKaufmann/dom"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// selectors memoizes compiled selectors; passes query the same handful of
// selectors for every document.
var selectors sync.Map // string -> cascadia.Selector

func compile(sel string) (cascadia.Selector, error) {
	if cached, ok := selectors.Load(sel); ok {
		return cached.(cascadia.Selector), nil
	}
	compiled, err := cascadia.Compile(sel)
	if err != nil {
		return nil, err
	}
	selectors.Store(sel, compiled)
	return compiled, nil
}

// QueryAll returns the descendants of root matching the CSS selector, in
// document order. An invalid selector matches nothing.
func QueryAll(root *html.Node, sel string) []*html.Node {
	compiled, err := compile(sel)
	if err != nil {
		return nil
	}
	return cascadia.QueryAll(root, compiled)
}

// Query returns the first descendant of root matching sel, or nil.
func Query(root *html.Node, sel string) *html.Node {
	compiled, err := compile(sel)
	if err != nil {
		return nil
	}
	return cascadia.Query(root, compiled)
}

// Matches reports whether n itself matches sel.
func Matches(n *html.Node, sel string) bool {
	compiled, err := compile(sel)
	if err != nil {
		return false
	}
	return compiled.Match(n)
}

// Find returns the first descendant element with the given tag.
func Find(root *html.Node, tag string) *html.Node {
	return dom.FindFirstNode(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	})
}

// FindAll returns every descendant element with one of the given tags.
func FindAll(root *html.Node, tags ...string) []*html.Node {
	return dom.FindAllNodes(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, t := range tags {
			if n.Data == t {
				return true
			}
		}
		return false
	})
}

// TextNodes returns every descendant text node of root.
func TextNodes(root *html.Node) []*html.Node {
	return dom.FindAllNodes(root, func(n *html.Node) bool {
		return n.Type == html.TextNode
	})
}

// Closest returns the nearest ancestor of n (excluding n) for which match
// returns true, or nil.
func Closest(n *html.Node, match func(*html.Node) bool) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && match(p) {
			return p
		}
	}
	return nil
}

// InsideTag reports whether n has an ancestor element with one of the tags.
func InsideTag(n *html.Node, tags ...string) bool {
	return Closest(n, func(p *html.Node) bool {
		for _, t := range tags {
			if p.Data == t {
				return true
			}
		}
		return false
	}) != nil
}

// InsideClass reports whether n has an ancestor carrying the class.
func InsideClass(n *html.Node, class string) bool {
	return Closest(n, func(p *html.Node) bool { return dom.HasClass(p, class) }) != nil
}

// IsElement reports whether n is an element with one of the given tags.
// With no tags it only checks the node type.
func IsElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}

// IsHeading reports whether n is an h1-h6 element.
func IsHeading(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && dom.NameIsHeading(n.Data)
}

// IsBlank reports whether n is a text node holding only whitespace.
func IsBlank(n *html.Node) bool {
	return n.Type == html.TextNode && strings.TrimSpace(n.Data) == ""
}
