package transform

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/png" // decode renderer output
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/htmltree"
	"github.com/alnah/go-htmlexport/internal/icons"
)

const (
	mathCandidates = `script[type^="math/tex"], .arithmatex, .katex-display, .katex, math`
	mathRemnants   = ".MathJax_Preview, .MathJax, .MathJax_Display, .MJX_Assistive_MathML, .katex-html, .katex-mathml"

	// mathImageDPI is the resolution requested from the renderer; images are
	// scaled back to CSS pixels at 96 DPI.
	mathImageDPI = 300
)

var (
	errNoMathRenderer = errors.New("no math renderer configured")

	blockDelims  = regexp.MustCompile(`(?s)\\\[(.*?)\\\]`)
	inlineDelims = regexp.MustCompile(`(?s)\\\((.*?)\\\)`)
)

// MathFragment is TeX extracted from one candidate.
type MathFragment struct {
	TeX     string
	Display bool
}

// Math resolves math markup: inline TeX becomes a span.formula, display TeX
// becomes a rendered image, or literal $tex$ when rendering fails.
// Candidates without TeX are removed.
func Math() Pass {
	return NewPass("math", func(ctx context.Context, root *html.Node, env *Env) []*TransformError {
		var candidates []*html.Node
		for _, n := range htmltree.QueryAll(root, mathCandidates) {
			if htmltree.Closest(n, isMathCandidate) != nil || htmltree.InsideClass(n, "formula") {
				continue
			}
			candidates = append(candidates, n)
		}

		build := func(n *html.Node, env *Env) (*html.Node, error) {
			frag := ExtractMath(n)
			if frag.TeX == "" {
				return nil, nil
			}
			if !frag.Display {
				return InlineFormula(frag.TeX), nil
			}
			return displayFormula(ctx, frag.TeX, htmltree.InsideTag(n, "li"), env)
		}
		errs := eachBlock("math", root, candidates, env, build)
		if abort(errs, env) {
			return errs
		}

		errs = append(errs, dollarMath(ctx, root, env)...)

		for _, n := range htmltree.QueryAll(root, mathRemnants) {
			if attached(n, root) {
				htmltree.Remove(n)
			}
		}
		return errs
	})
}

func isMathCandidate(n *html.Node) bool {
	return htmltree.Matches(n, mathCandidates)
}

func abort(errs []*TransformError, env *Env) bool {
	for _, e := range errs {
		if env.Policy.Action(e.Kind) == ActionAbort {
			return true
		}
	}
	return false
}

// ExtractMath pulls TeX out of a candidate. Sources are tried in order: a
// math/tex script, a TeX annotation, \( \) or \[ \] delimiters in the
// markup, then the plain text. TeX is "" when nothing usable was found.
func ExtractMath(n *html.Node) MathFragment {
	display := isDisplay(n)

	script := n
	if !htmltree.IsElement(n, "script") {
		script = htmltree.Query(n, `script[type^="math/tex"]`)
	}
	if script != nil {
		return MathFragment{
			TeX:     strings.TrimSpace(htmltree.TextContent(script)),
			Display: strings.Contains(htmltree.Attr(script, "type"), "mode=display"),
		}
	}

	if a := htmltree.Query(n, `annotation[encoding="application/x-tex"]`); a != nil {
		return MathFragment{TeX: strings.TrimSpace(htmltree.TextContent(a)), Display: display}
	}

	if raw, err := htmltree.RenderNode(n); err == nil {
		raw = html.UnescapeString(raw)
		if m := blockDelims.FindStringSubmatch(raw); m != nil {
			return MathFragment{TeX: strings.TrimSpace(m[1]), Display: true}
		}
		if m := inlineDelims.FindStringSubmatch(raw); m != nil {
			return MathFragment{TeX: strings.TrimSpace(m[1]), Display: display}
		}
	}

	text := strings.TrimSpace(htmltree.TextContent(n))
	switch {
	case len(text) >= 4 && strings.HasPrefix(text, "$$") && strings.HasSuffix(text, "$$"):
		return MathFragment{TeX: strings.TrimSpace(text[2 : len(text)-2]), Display: true}
	case len(text) >= 2 && strings.HasPrefix(text, "$") && strings.HasSuffix(text, "$"):
		return MathFragment{TeX: strings.TrimSpace(text[1 : len(text)-1]), Display: display}
	}
	return MathFragment{TeX: text, Display: display}
}

func isDisplay(n *html.Node) bool {
	switch {
	case htmltree.HasClass(n, "katex-display"):
		return true
	case n.Data == "math":
		return htmltree.Attr(n, "display") == "block"
	case htmltree.HasClass(n, "arithmatex"):
		return n.Data == "div" || htmltree.Query(n, ".katex-display") != nil
	}
	return false
}

// displayFormula renders tex as a centered image table, or as a left
// aligned one inside list items. On failure it returns the literal
// fallback together with a dependency error.
func displayFormula(ctx context.Context, tex string, inList bool, env *Env) (*html.Node, error) {
	if env.Math == nil {
		return formulaFallback(tex), &TransformError{Rule: "math", Kind: KindDependency, Err: errNoMathRenderer}
	}
	data, err := env.Math.Render(ctx, tex)
	if err != nil {
		return formulaFallback(tex), &TransformError{Rule: "math", Kind: KindDependency, Err: err}
	}

	img := htmltree.Element("img", "class", "formula-img", "src", icons.DataURI(data), "alt", tex)
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		htmltree.SetAttr(img, "width", strconv.Itoa(max(1, cfg.Width*96/mathImageDPI)))
		htmltree.SetAttr(img, "height", strconv.Itoa(max(1, cfg.Height*96/mathImageDPI)))
	}

	align := "center"
	class := "formula formula-block"
	if inList {
		align = "left"
		class += " formula-left"
	}
	cell := htmltree.Append(htmltree.Element("td", "class", "formula-cell", "align", align), img)
	table := htmltree.Element("table", "class", class, "border", "0", "cellpadding", "0", "cellspacing", "0")
	if !inList {
		htmltree.SetAttr(table, "align", "center")
	}
	return htmltree.Append(table, htmltree.Wrap("tbody", htmltree.Wrap("tr", cell))), nil
}

func formulaFallback(tex string) *html.Node {
	code := htmltree.Append(htmltree.Element("code"), htmltree.Text("$"+tex+"$"))
	return htmltree.Append(htmltree.Element("div", "class", "formula formula-fallback"), code)
}
