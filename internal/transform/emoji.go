package transform

import (
	"context"
	"errors"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/emoji"
	"github.com/alnah/go-htmlexport/internal/htmltree"
	"github.com/alnah/go-htmlexport/internal/icons"
)

var errNoRasterizer = errors.New("no emoji rasterizer configured")

// Text inside these elements is never scanned for emoji or dollar math.
var literalTags = []string{"script", "style", "code", "pre", "textarea", "kbd", "samp"}

// Emoji replaces emoji characters and shortcodes with images on the PDF
// path and with font-tagged spans on the Word path.
func Emoji() Pass {
	return NewPass("emoji", func(_ context.Context, root *html.Node, env *Env) []*TransformError {
		var errs []*TransformError
		failed := make(map[string]bool)

		for _, t := range htmltree.TextNodes(root) {
			if t.Parent == nil || skipEmojiText(t) {
				continue
			}
			matches := emoji.Find(t.Data)
			if len(matches) == 0 {
				continue
			}

			var nodes []*html.Node
			last := 0
			for _, m := range matches {
				if m.Start > last {
					nodes = append(nodes, htmltree.Text(t.Data[last:m.Start]))
				}
				original := t.Data[m.Start:m.End]
				repl, err := emojiNode(m.Cluster, env)
				if err != nil {
					te := &TransformError{Rule: "emoji", Kind: KindDependency, Err: err}
					if !failed[m.Cluster] {
						failed[m.Cluster] = true
						errs = append(errs, te)
					}
					switch env.Policy.Action(te.Kind) {
					case ActionAbort:
						return errs
					case ActionSkip:
						repl = htmltree.Text(original)
					}
				}
				nodes = append(nodes, repl)
				last = m.End
			}
			if last < len(t.Data) {
				nodes = append(nodes, htmltree.Text(t.Data[last:]))
			}

			for _, n := range nodes {
				t.Parent.InsertBefore(n, t)
			}
			htmltree.Remove(t)
		}
		return errs
	})
}

func skipEmojiText(t *html.Node) bool {
	if htmltree.InsideTag(t, literalTags...) {
		return true
	}
	return htmltree.Closest(t, func(p *html.Node) bool {
		return htmltree.HasClass(p, "emoji") || htmltree.HasClass(p, "formula")
	}) != nil
}

// emojiNode builds the replacement for one cluster. On failure it still
// returns the fallback span holding the literal character.
func emojiNode(cluster string, env *Env) (*html.Node, error) {
	if env.Target == TargetWord {
		span := htmltree.Element("span", "class", "emoji", "style", "font-family: 'Segoe UI Emoji', sans-serif;")
		return htmltree.Append(span, htmltree.Text(emoji.WithPresentation(cluster))), nil
	}

	fallback := htmltree.Append(htmltree.Element("span", "class", "emoji"), htmltree.Text(cluster))
	if env.Emoji == nil {
		return fallback, errNoRasterizer
	}
	data, err := env.Emoji.Rasterize(cluster)
	if err != nil {
		return fallback, err
	}
	return htmltree.Element("img",
		"class", "emoji",
		"src", icons.DataURI(data),
		"alt", cluster,
		"width", "16",
		"height", "16",
	), nil
}
