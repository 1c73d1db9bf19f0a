package transform

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/fileutil"
	"github.com/alnah/go-htmlexport/internal/htmltree"
)

// WikiLinks points relative links at in-document anchors when a matching
// slug exists. The rest become inert styled text: a single exported
// document has nowhere else to link to.
func WikiLinks() Pass {
	return NewPass("wikilinks", func(_ context.Context, root *html.Node, _ *Env) []*TransformError {
		anchors := collectAnchors(root)

		for _, a := range htmltree.FindAll(root, "a") {
			href := strings.TrimSpace(htmltree.Attr(a, "href"))
			if !fileutil.IsRelativeRef(href) {
				continue
			}

			if slug, ok := resolveSlug(href, anchors); ok {
				htmltree.SetAttr(a, "href", "#"+slug)
				htmltree.AddClass(a, "wikilink")
				continue
			}

			span := htmltree.Element("span", "class", "wikilink-unresolved", "title", href)
			htmltree.MoveChildren(span, a)
			htmltree.Replace(a, span)
		}
		return nil
	})
}

func collectAnchors(root *html.Node) map[string]bool {
	anchors := make(map[string]bool)
	for _, n := range htmltree.QueryAll(root, "[id], a[name]") {
		if id := htmltree.Attr(n, "id"); id != "" {
			anchors[id] = true
		}
		if n.Data == "a" {
			if name := htmltree.Attr(n, "name"); name != "" {
				anchors[name] = true
			}
		}
	}
	return anchors
}

// resolveSlug tries the fragment of href first, then its page name, each
// as written and lowercased.
func resolveSlug(href string, anchors map[string]bool) (string, bool) {
	page, fragment, _ := strings.Cut(href, "#")

	var candidates []string
	if fragment != "" {
		candidates = append(candidates, fragment)
	}
	if page != "" {
		candidates = append(candidates, Slug(page))
	}
	for _, c := range candidates {
		if anchors[c] {
			return c, true
		}
		if lower := strings.ToLower(c); anchors[lower] {
			return lower, true
		}
	}
	return "", false
}

// Slug derives an anchor name from a page reference: URL escapes are
// decoded, a trailing ".md" and every "." are dropped and spaces become
// dashes.
func Slug(ref string) string {
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}
	ref = strings.TrimSpace(ref)
	if strings.HasSuffix(strings.ToLower(ref), ".md") {
		ref = ref[:len(ref)-3]
	}
	ref = strings.ReplaceAll(ref, ".", "")
	return strings.ReplaceAll(ref, " ", "-")
}
