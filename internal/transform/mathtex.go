package transform

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/htmltree"
)

// texSymbols maps macros to the glyph printed in their place.
var texSymbols = map[string]string{
	// Greek
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε",
	"varepsilon": "ε", "zeta": "ζ", "eta": "η", "theta": "θ", "vartheta": "ϑ",
	"iota": "ι", "kappa": "κ", "lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ",
	"pi": "π", "varpi": "ϖ", "rho": "ρ", "varrho": "ϱ", "sigma": "σ",
	"varsigma": "ς", "tau": "τ", "upsilon": "υ", "phi": "φ", "varphi": "φ",
	"chi": "χ", "psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ",
	"Pi": "Π", "Sigma": "Σ", "Upsilon": "Υ", "Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",

	// Operators and relations
	"times": "×", "cdot": "⋅", "pm": "±", "mp": "∓", "div": "÷", "ast": "∗",
	"star": "⋆", "circ": "∘", "bullet": "•", "oplus": "⊕", "otimes": "⊗",
	"leq": "≤", "le": "≤", "geq": "≥", "ge": "≥", "neq": "≠", "ne": "≠",
	"approx": "≈", "equiv": "≡", "sim": "∼", "simeq": "≃", "cong": "≅",
	"propto": "∝", "ll": "≪", "gg": "≫", "mid": "∣", "parallel": "∥", "perp": "⊥",

	// Arrows
	"rightarrow": "→", "to": "→", "leftarrow": "←", "gets": "←",
	"Rightarrow": "⇒", "Leftarrow": "⇐", "leftrightarrow": "↔",
	"Leftrightarrow": "⇔", "implies": "⟹", "iff": "⟺", "mapsto": "↦",
	"uparrow": "↑", "downarrow": "↓", "longrightarrow": "⟶",

	// Sets and logic
	"in": "∈", "notin": "∉", "ni": "∋", "subset": "⊂", "subseteq": "⊆",
	"supset": "⊃", "supseteq": "⊇", "cup": "∪", "cap": "∩", "setminus": "∖",
	"emptyset": "∅", "varnothing": "∅", "forall": "∀", "exists": "∃",
	"neg": "¬", "lnot": "¬", "land": "∧", "wedge": "∧", "lor": "∨", "vee": "∨",
	"therefore": "∴", "because": "∵",

	// Big operators and calculus
	"sum": "∑", "prod": "∏", "int": "∫", "iint": "∬", "oint": "∮",
	"partial": "∂", "nabla": "∇", "infty": "∞",

	// Misc
	"ldots": "…", "dots": "…", "cdots": "⋯", "vdots": "⋮", "ddots": "⋱",
	"angle": "∠", "degree": "°", "prime": "′", "hbar": "ℏ", "ell": "ℓ",
	"Re": "ℜ", "Im": "ℑ", "aleph": "ℵ", "langle": "⟨", "rangle": "⟩",
	"lfloor": "⌊", "rfloor": "⌋", "lceil": "⌈", "rceil": "⌉", "vert": "|",
	"Vert": "‖", "lbrace": "{", "rbrace": "}",
}

// Macros whose argument is printed verbatim.
var texTextMacros = map[string]bool{
	"text": true, "textrm": true, "textnormal": true, "mathrm": true,
	"operatorname": true, "mbox": true, "textsf": true, "mathsf": true,
	"texttt": true, "mathtt": true,
}

// Macros that only change the font; their argument is parsed as is.
var texFontMacros = map[string]bool{
	"mathcal": true, "mathbb": true, "mathfrak": true, "mathscr": true,
	"displaystyle": true, "textstyle": true, "scriptstyle": true,
}

// Accents are drawn with a combining mark after the argument.
var texAccents = map[string]string{
	"vec": "\u20d7", "hat": "\u0302", "widehat": "\u0302", "bar": "\u0305",
	"overline": "\u0305", "tilde": "\u0303", "widetilde": "\u0303",
	"dot": "\u0307", "ddot": "\u0308",
}

var texSpaces = map[string]string{
	",": "\u2009", ":": "\u2005", ";": "\u2004", ">": "\u2005",
	" ": " ", "quad": "\u2003", "qquad": "\u2003\u2003", "!": "",
}

// Sizing and delimiter macros print nothing themselves.
var texIgnored = map[string]bool{
	"left": true, "right": true, "big": true, "Big": true, "bigg": true,
	"Bigg": true, "bigl": true, "bigr": true, "Bigl": true, "Bigr": true,
	"middle": true, "limits": true, "nolimits": true,
}

// InlineFormula renders TeX as a span.formula of text, <sup>, <sub> and
// <b> nodes. Unknown macros degrade to their bare name.
func InlineFormula(tex string) *html.Node {
	span := htmltree.Element("span", "class", "formula")
	p := &texParser{src: []rune(tex)}
	nodes := p.sequence(false)
	if n := len(nodes); n > 0 && nodes[n-1].Type == html.TextNode {
		nodes[n-1].Data = strings.TrimRight(nodes[n-1].Data, " ")
	}
	htmltree.Append(span, nodes...)
	return span
}

type texParser struct {
	src []rune
	pos int
}

func (p *texParser) peek() rune {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

// sequence parses until the end of input, or until the closing brace of
// the current group when inGroup is set.
func (p *texParser) sequence(inGroup bool) []*html.Node {
	var out []*html.Node
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '}':
			p.pos++
			if inGroup {
				return out
			}
		case c == '{':
			p.pos++
			out = appendNodes(out, p.sequence(true)...)
		case c == '^':
			p.pos++
			out = append(out, htmltree.Wrap("sup", p.argument()...))
		case c == '_':
			p.pos++
			out = append(out, htmltree.Wrap("sub", p.argument()...))
		case c == '\\':
			p.pos++
			out = appendNodes(out, p.macro()...)
		case c == '~':
			p.pos++
			out = appendText(out, "\u00a0")
		case unicode.IsSpace(c):
			p.pos++
			if !endsWithSpace(out) {
				out = appendText(out, " ")
			}
		default:
			p.pos++
			out = appendText(out, string(c))
		}
	}
	return out
}

// argument parses one macro or script argument: a group, a macro or a
// single character.
func (p *texParser) argument() []*html.Node {
	p.skipSpace()
	switch c := p.peek(); c {
	case 0:
		return nil
	case '{':
		p.pos++
		return p.sequence(true)
	case '\\':
		p.pos++
		return p.macro()
	default:
		p.pos++
		return []*html.Node{htmltree.Text(string(c))}
	}
}

// rawArgument returns the verbatim text of the next group.
func (p *texParser) rawArgument() string {
	p.skipSpace()
	if p.peek() != '{' {
		return htmltree.TextContent(htmltree.Wrap("span", p.argument()...))
	}
	p.pos++
	start, depth := p.pos, 1
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				text := string(p.src[start:p.pos])
				p.pos++
				return text
			}
		}
		p.pos++
	}
	return string(p.src[start:])
}

func (p *texParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *texParser) macroName() string {
	if p.pos >= len(p.src) {
		return ""
	}
	start := p.pos
	if !unicode.IsLetter(p.src[p.pos]) {
		p.pos++
		return string(p.src[start:p.pos])
	}
	for p.pos < len(p.src) && unicode.IsLetter(p.src[p.pos]) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *texParser) macro() []*html.Node {
	name := p.macroName()
	switch {
	case name == "":
		return nil
	case name == "\\":
		return []*html.Node{htmltree.Text(" ")}
	case strings.ContainsAny(name, "{}%$&#_|"):
		return []*html.Node{htmltree.Text(name)}
	}

	if glyph, ok := texSymbols[name]; ok {
		return []*html.Node{htmltree.Text(glyph)}
	}
	if space, ok := texSpaces[name]; ok {
		if space == "" {
			return nil
		}
		return []*html.Node{htmltree.Text(space)}
	}
	if mark, ok := texAccents[name]; ok {
		arg := p.argument()
		return appendText(arg, mark)
	}

	switch {
	case name == "frac" || name == "dfrac" || name == "tfrac":
		num, den := p.argument(), p.argument()
		out := appendNodes(parenthesize(num), htmltree.Text("/"))
		return appendNodes(out, parenthesize(den)...)
	case name == "sqrt":
		var out []*html.Node
		p.skipSpace()
		if p.peek() == '[' {
			p.pos++
			start := p.pos
			for p.pos < len(p.src) && p.src[p.pos] != ']' {
				p.pos++
			}
			index := string(p.src[start:p.pos])
			p.pos++
			out = append(out, htmltree.Wrap("sup", htmltree.Text(index)))
		}
		out = appendText(out, "√")
		return appendNodes(out, parenthesize(p.argument())...)
	case texTextMacros[name]:
		return []*html.Node{htmltree.Text(p.rawArgument())}
	case name == "mathbf" || name == "textbf" || name == "boldsymbol" || name == "bm":
		return []*html.Node{htmltree.Wrap("b", p.argument()...)}
	case name == "mathit" || name == "textit" || name == "emph":
		return []*html.Node{htmltree.Wrap("i", p.argument()...)}
	case texFontMacros[name]:
		if strings.HasSuffix(name, "style") {
			return nil
		}
		return p.argument()
	case texIgnored[name]:
		p.skipSpace()
		if p.peek() == '.' {
			p.pos++
		}
		return nil
	}
	return []*html.Node{htmltree.Text(name)}
}

// parenthesize wraps a multi-token part in parentheses.
func parenthesize(nodes []*html.Node) []*html.Node {
	if !isCompound(nodes) {
		return nodes
	}
	out := appendText(nil, "(")
	out = appendNodes(out, nodes...)
	return appendText(out, ")")
}

func isCompound(nodes []*html.Node) bool {
	if len(nodes) != 1 {
		return len(nodes) > 1
	}
	n := nodes[0]
	if n.Type != html.TextNode {
		return true
	}
	return len([]rune(strings.TrimSpace(n.Data))) > 1 && !isNumber(n.Data)
}

func isNumber(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return false
		}
	}
	return true
}

// appendText adds s to out, merging with a trailing text node.
func appendText(out []*html.Node, s string) []*html.Node {
	if s == "" {
		return out
	}
	if len(out) > 0 && out[len(out)-1].Type == html.TextNode {
		out[len(out)-1].Data += s
		return out
	}
	return append(out, htmltree.Text(s))
}

func appendNodes(out []*html.Node, nodes ...*html.Node) []*html.Node {
	for _, n := range nodes {
		if n.Type == html.TextNode {
			out = appendText(out, n.Data)
			continue
		}
		out = append(out, n)
	}
	return out
}

func endsWithSpace(out []*html.Node) bool {
	if len(out) == 0 {
		return true
	}
	last := out[len(out)-1]
	return last.Type == html.TextNode && strings.HasSuffix(last.Data, " ")
}
