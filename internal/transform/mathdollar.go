package transform

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/htmltree"
)

// dollarSegment is one $...$ or $$...$$ span found in a text node.
type dollarSegment struct {
	start, end int
	tex        string
	display    bool
}

// scanDollars finds TeX delimited by bare dollars. Inline math follows the
// pandoc rules: the opening $ is not followed by a space, the closing $ is
// not preceded by a space nor followed by a digit. \$ is never a delimiter.
func scanDollars(s string) []dollarSegment {
	var segs []dollarSegment
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s) && s[i+1] == '$':
			i++
		case s[i] != '$':
		case i+1 < len(s) && s[i+1] == '$':
			end := strings.Index(s[i+2:], "$$")
			if end < 0 {
				return segs
			}
			tex := strings.TrimSpace(s[i+2 : i+2+end])
			stop := i + 2 + end + 2
			if tex != "" {
				segs = append(segs, dollarSegment{start: i, end: stop, tex: tex, display: true})
			}
			i = stop - 1
		default:
			if j := closingDollar(s, i+1); j > 0 {
				segs = append(segs, dollarSegment{start: i, end: j + 1, tex: s[i+1 : j]})
				i = j
			}
		}
	}
	return segs
}

// closingDollar returns the index of the $ closing an inline span opened
// just before from, or -1.
func closingDollar(s string, from int) int {
	if from >= len(s) || isSpaceByte(s[from]) || s[from] == '$' {
		return -1
	}
	for j := from + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '$':
			if isSpaceByte(s[j-1]) {
				continue
			}
			if j+1 < len(s) && s[j+1] >= '0' && s[j+1] <= '9' {
				continue
			}
			return j
		}
	}
	return -1
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func skipDollarText(t *html.Node) bool {
	if !strings.Contains(t.Data, "$") || htmltree.InsideTag(t, literalTags...) || htmltree.InsideTag(t, "math") {
		return true
	}
	return htmltree.Closest(t, func(p *html.Node) bool {
		for _, c := range []string{"formula", "emoji", "katex", "arithmatex"} {
			if htmltree.HasClass(p, c) {
				return true
			}
		}
		return false
	}) != nil
}

// dollarMath rewrites bare-dollar TeX left in text nodes. A paragraph
// holding a single display segment and nothing else is replaced whole.
func dollarMath(ctx context.Context, root *html.Node, env *Env) []*TransformError {
	var errs []*TransformError

	for _, t := range htmltree.TextNodes(root) {
		if t.Parent == nil || !attached(t, root) || skipDollarText(t) {
			continue
		}
		segs := scanDollars(t.Data)
		if len(segs) == 0 {
			continue
		}

		var nodes []*html.Node
		last := 0
		for _, seg := range segs {
			if seg.start > last {
				nodes = append(nodes, htmltree.Text(t.Data[last:seg.start]))
			}
			original := t.Data[seg.start:seg.end]
			last = seg.end

			if !seg.display {
				nodes = append(nodes, InlineFormula(seg.tex))
				continue
			}
			block, err := displayFormula(ctx, seg.tex, htmltree.InsideTag(t, "li"), env)
			if err != nil {
				te := asTransformError("math", err)
				errs = append(errs, te)
				switch env.Policy.Action(te.Kind) {
				case ActionAbort:
					return errs
				case ActionSkip:
					block = htmltree.Text(original)
				}
			}
			nodes = append(nodes, block)
		}
		if last < len(t.Data) {
			nodes = append(nodes, htmltree.Text(t.Data[last:]))
		}

		if p := t.Parent; len(segs) == 1 && segs[0].display && htmltree.IsElement(p, "p") &&
			soleContent(p, t) && strings.TrimSpace(t.Data) == t.Data[segs[0].start:segs[0].end] {
			if block := nodes[indexOfBlock(nodes)]; block.Type == html.ElementNode {
				htmltree.Replace(p, block)
				continue
			}
		}

		for _, n := range nodes {
			t.Parent.InsertBefore(n, t)
		}
		htmltree.Remove(t)
	}
	return errs
}

// soleContent reports whether t is the only non-blank child of p.
func soleContent(p, t *html.Node) bool {
	for _, c := range htmltree.Children(p) {
		if c != t && !htmltree.IsBlank(c) {
			return false
		}
	}
	return true
}

// indexOfBlock returns the index of the first non-blank node.
func indexOfBlock(nodes []*html.Node) int {
	for i, n := range nodes {
		if !htmltree.IsBlank(n) {
			return i
		}
	}
	return 0
}
