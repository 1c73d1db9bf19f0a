package transform

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/htmltree"
)

const footnoteContainers = "div.footnote, div.footnotes, section.footnotes"

var errNoFootnoteList = errors.New("footnote block has no list")

// Footnote is one footnote definition in declaration order.
type Footnote struct {
	Index    int
	AnchorID string
	Body     []*html.Node
}

// Footnotes rewrites footnote lists into tables and renumbers references by
// declaration order.
func Footnotes() Pass {
	return NewPass("footnotes", func(_ context.Context, root *html.Node, env *Env) []*TransformError {
		containers := htmltree.QueryAll(root, footnoteContainers)
		index := footnoteIndex(containers)

		var errs []*TransformError
		refs := htmltree.QueryAll(root, "a.footnote-ref:not(.fn-ref), sup[id^=fnref] a:not(.fn-ref)")
		for _, ref := range refs {
			target := strings.TrimPrefix(htmltree.Attr(ref, "href"), "#")
			n, ok := index[target]
			if !ok {
				errs = append(errs, Errorf("footnotes", KindInput, "reference to unknown footnote %q", target))
				continue
			}
			decorateRef(ref, n)
		}

		return append(errs, eachBlock("footnotes", root, containers, env, buildFootnoteTable)...)
	})
}

// footnoteIndex numbers definitions across every container, starting at 1.
func footnoteIndex(containers []*html.Node) map[string]int {
	index := make(map[string]int)
	n := 0
	for _, c := range containers {
		ol := htmltree.Find(c, "ol")
		if ol == nil {
			continue
		}
		for _, li := range htmltree.Children(ol) {
			if !htmltree.IsElement(li, "li") {
				continue
			}
			n++
			if id := htmltree.Attr(li, "id"); id != "" {
				index[id] = n
			}
		}
	}
	return index
}

func decorateRef(ref *html.Node, n int) {
	for c := ref.FirstChild; c != nil; c = ref.FirstChild {
		ref.RemoveChild(c)
	}
	htmltree.Append(ref, htmltree.Text("["+strconv.Itoa(n)+"]"))
	htmltree.RemoveClass(ref, "footnote-ref")
	htmltree.AddClass(ref, "fn-ref")

	if !htmltree.IsElement(ref.Parent, "sup") {
		sup := htmltree.Element("sup")
		htmltree.Replace(ref, sup)
		htmltree.Append(sup, ref)
	}
}

// ParseFootnotes extracts the definitions of one footnote container.
func ParseFootnotes(container *html.Node) []Footnote {
	ol := htmltree.Find(container, "ol")
	if ol == nil {
		return nil
	}
	var notes []Footnote
	for _, li := range htmltree.Children(ol) {
		if !htmltree.IsElement(li, "li") {
			continue
		}
		notes = append(notes, Footnote{
			Index:    len(notes) + 1,
			AnchorID: htmltree.Attr(li, "id"),
			Body:     htmltree.Children(li),
		})
	}
	return notes
}

func buildFootnoteTable(n *html.Node, env *Env) (*html.Node, error) {
	src := htmltree.Clone(n)
	notes := ParseFootnotes(src)
	if notes == nil {
		return nil, errNoFootnoteList
	}

	table := htmltree.Element("table", "class", "footnote-table", "border", "0", "cellpadding", "2", "cellspacing", "0")
	body := htmltree.Element("tbody")
	htmltree.Append(table, body)

	for _, fn := range notes {
		content := htmltree.Element("td", "class", "fn-body")
		if fn.AnchorID != "" {
			htmltree.SetAttr(content, "id", fn.AnchorID)
		}
		htmltree.Append(content, fn.Body...)
		for _, back := range htmltree.QueryAll(content, `a.footnote-backref, a[href^="#fnref"]`) {
			compactBackref(back)
		}
		trimTrailingBlank(content)

		label := "[" + strconv.Itoa(fn.Index) + "]"
		row := htmltree.Wrap("tr",
			htmltree.Element("td", "class", "fn-spacer", "width", "20"),
			htmltree.Append(htmltree.Element("td", "class", "fn-index", "align", "right", "valign", "top"), htmltree.Text(label)),
			content,
		)
		if env.Target == TargetWord {
			htmltree.AddStyle(content, "font-size", "9pt")
		}
		htmltree.Append(body, row)
	}

	frag := htmltree.NewFragmentRoot()
	htmltree.Append(frag, htmltree.Element("hr", "class", "footnote-rule"), table)
	return frag, nil
}

func compactBackref(a *html.Node) {
	for c := a.FirstChild; c != nil; c = a.FirstChild {
		a.RemoveChild(c)
	}
	htmltree.Append(a, htmltree.Text("^"))
	htmltree.RemoveClass(a, "footnote-backref")
	htmltree.DelAttr(a, "role")
	htmltree.DelAttr(a, "rev")
	htmltree.AddClass(a, "fn-backref")
}

func trimTrailingBlank(n *html.Node) {
	for c := n.LastChild; c != nil && htmltree.IsBlank(c); c = n.LastChild {
		n.RemoveChild(c)
	}
}
