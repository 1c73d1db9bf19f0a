package transform

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/htmltree"
)

const abbrExpanded = "abbr-expanded"

type abbrKey struct{ text, title string }

// Abbreviations expands the first occurrence of each (text, title) pair to
// "Text (Title)". Pairs already expanded by an earlier run count as seen.
func Abbreviations() Pass {
	return NewPass("abbr", func(_ context.Context, root *html.Node, _ *Env) []*TransformError {
		seen := make(map[abbrKey]bool)
		all := htmltree.FindAll(root, "abbr")

		for _, a := range all {
			if htmltree.HasClass(a, abbrExpanded) {
				seen[keyOf(a)] = true
			}
		}
		for _, a := range all {
			k := keyOf(a)
			if k.title == "" || k.text == "" || seen[k] {
				continue
			}
			seen[k] = true
			htmltree.AddClass(a, abbrExpanded)
			htmltree.InsertAfter(a, htmltree.Text(" ("+k.title+")"))
		}
		return nil
	})
}

func keyOf(a *html.Node) abbrKey {
	return abbrKey{
		text:  strings.TrimSpace(htmltree.TextContent(a)),
		title: strings.TrimSpace(htmltree.Attr(a, "title")),
	}
}
