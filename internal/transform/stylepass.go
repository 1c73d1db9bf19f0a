package transform

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/cssclean"
	"github.com/alnah/go-htmlexport/internal/htmltree"
)

// StyleSanitizer cleans every inline style attribute and drops SVG paint
// attributes. A style left empty is removed.
func StyleSanitizer() Pass {
	return NewPass("style", func(_ context.Context, root *html.Node, _ *Env) []*TransformError {
		for _, n := range htmltree.QueryAll(root, "*") {
			kept := n.Attr[:0]
			for _, a := range n.Attr {
				if isSVGAttribute(a.Key) {
					continue
				}
				if a.Key == "style" {
					a.Val = cssclean.Sanitize(a.Val)
					if a.Val == "" {
						continue
					}
				}
				kept = append(kept, a)
			}
			n.Attr = kept
		}
		return nil
	})
}

func isSVGAttribute(key string) bool {
	for _, k := range cssclean.SVGAttributes {
		if strings.EqualFold(key, k) {
			return true
		}
	}
	return false
}
