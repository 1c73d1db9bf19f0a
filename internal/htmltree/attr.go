package htmltree

import (
	"strings"

	"github.com/JohannesKaufmann/dom"
	"golang.org/x/net/html"
)

// Attr returns the value of key, or "".
func Attr(n *html.Node, key string) string {
	return dom.GetAttributeOr(n, key, "")
}

// HasAttr reports whether key is present, whatever its value.
func HasAttr(n *html.Node, key string) bool {
	_, ok := dom.GetAttribute(n, key)
	return ok
}

// SetAttr sets key to val, replacing any existing value.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// DelAttr removes every occurrence of key.
func DelAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

// Classes returns the class list of n.
func Classes(n *html.Node) []string {
	return dom.GetClasses(n)
}

// HasClass reports whether n carries class.
func HasClass(n *html.Node, class string) bool {
	return dom.HasClass(n, class)
}

// HasClassContaining reports whether any class of n contains sub.
func HasClassContaining(n *html.Node, sub string) bool {
	for _, c := range dom.GetClasses(n) {
		if strings.Contains(c, sub) {
			return true
		}
	}
	return false
}

// AddClass appends class unless already present.
func AddClass(n *html.Node, class string) {
	if dom.HasClass(n, class) {
		return
	}
	classes := append(dom.GetClasses(n), class)
	SetAttr(n, "class", strings.Join(classes, " "))
}

// RemoveClass removes class; the attribute is dropped when it empties.
func RemoveClass(n *html.Node, class string) {
	var kept []string
	for _, c := range dom.GetClasses(n) {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		DelAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// AddStyle appends a declaration to the inline style unless the same
// property is already declared.
func AddStyle(n *html.Node, property, value string) {
	style := strings.TrimSpace(Attr(n, "style"))
	for _, decl := range strings.Split(style, ";") {
		if name, _, ok := strings.Cut(decl, ":"); ok && strings.EqualFold(strings.TrimSpace(name), property) {
			return
		}
	}
	if style != "" && !strings.HasSuffix(style, ";") {
		style += ";"
	}
	if style != "" {
		style += " "
	}
	SetAttr(n, "style", style+property+": "+value+";")
}

// TextContent returns the concatenated text of n's subtree.
func TextContent(n *html.Node) string {
	return dom.CollectText(n)
}

// Remove detaches n from its parent.
func Remove(n *html.Node) {
	dom.RemoveNode(n)
}

// Replace puts repl where n was and detaches n.
func Replace(n, repl *html.Node) {
	if repl.Parent != nil {
		repl.Parent.RemoveChild(repl)
	}
	dom.ReplaceNode(n, repl)
}

// Unwrap replaces n by its children.
func Unwrap(n *html.Node) {
	dom.UnwrapNode(n)
}
