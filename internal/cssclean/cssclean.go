// Package cssclean strips inline CSS declarations that the print renderers
// cannot handle: SVG paint properties, custom properties, color functions,
// CSS-wide keywords and malformed hex colors.
package cssclean

import (
	"regexp"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Properties only meaningful for SVG painting.
var svgProperties = map[string]bool{
	"stroke":         true,
	"fill":           true,
	"fill-opacity":   true,
	"stroke-opacity": true,
	"stroke-width":   true,
}

// Substrings that make a value unusable downstream.
var unsupportedValueParts = []string{
	"currentcolor",
	"var(",
	"rgb(",
	"rgba(",
	"transparent",
	"inherit",
	"initial",
	"unset",
}

// Properties for which "none" is a real value rather than a reset. The
// export passes set list-style: none on items that draw their own bullet.
var noneProperties = map[string]bool{
	"list-style":      true,
	"list-style-type": true,
	"text-decoration": true,
}

// SVGAttributes lists presentation attributes removed from elements along
// with the style attribute cleanup.
var SVGAttributes = []string{"stroke", "fill", "viewbox"}

// Declaration is one property/value pair kept by Sanitize.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Sanitize returns the declarations of style that survive filtering, joined
// with "; ". It returns "" when nothing survives or style cannot be parsed.
func Sanitize(style string) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()

	var kept []string
	for _, d := range Parse(style) {
		if !Allowed(d) {
			continue
		}
		v := d.Value
		if d.Important {
			v += " !important"
		}
		kept = append(kept, d.Property+": "+v)
	}
	return strings.Join(kept, "; ")
}

// Parse splits an inline style into declarations. The douceur parser is
// tried first; on failure a tolerant split on ';' and ':' is used.
func Parse(style string) []Declaration {
	style = strings.TrimSpace(style)
	if style == "" {
		return nil
	}

	// The parser only closes a declaration on ';' or '}'.
	terminated := style
	if !strings.HasSuffix(terminated, ";") {
		terminated += ";"
	}
	decls, err := parser.ParseDeclarations(terminated)
	if err == nil {
		return fromDouceur(decls)
	}
	return splitDeclarations(style)
}

// Allowed reports whether a single declaration survives sanitization.
func Allowed(d Declaration) bool {
	prop := strings.ToLower(strings.TrimSpace(d.Property))
	if prop == "" || strings.HasPrefix(prop, "--") || svgProperties[prop] {
		return false
	}

	value := strings.TrimSpace(d.Value)
	lower := strings.ToLower(value)
	if lower == "" || lower == "auto" || (lower == "none" && !noneProperties[prop]) {
		return false
	}
	for _, bad := range unsupportedValueParts {
		if strings.Contains(lower, bad) {
			return false
		}
	}
	return balanced(value) && validHexTokens(value)
}

// balanced reports whether every quote and parenthesis in value is closed.
// Parentheses inside strings do not count.
func balanced(value string) bool {
	depth := 0
	var quote rune
	escaped := false
	for _, r := range value {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return quote == 0 && depth == 0
}

// validHexTokens rejects values carrying a '#' token that is not a 3, 6 or 8
// digit hex color.
func validHexTokens(value string) bool {
	for _, tok := range strings.Fields(value) {
		tok = strings.TrimSuffix(strings.TrimSpace(tok), ",")
		if strings.HasPrefix(tok, "#") && !hexColor.MatchString(tok) {
			return false
		}
	}
	return true
}

func fromDouceur(decls []*css.Declaration) []Declaration {
	out := make([]Declaration, 0, len(decls))
	for _, d := range decls {
		if d == nil {
			continue
		}
		out = append(out, Declaration{
			Property:  strings.TrimSpace(d.Property),
			Value:     strings.TrimSpace(d.Value),
			Important: d.Important,
		})
	}
	return out
}

func splitDeclarations(style string) []Declaration {
	var out []Declaration
	for _, part := range strings.Split(style, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		important := false
		if i := strings.Index(strings.ToLower(value), "!important"); i >= 0 {
			important = true
			value = strings.TrimSpace(value[:i])
		}
		out = append(out, Declaration{
			Property:  strings.TrimSpace(prop),
			Value:     value,
			Important: important,
		})
	}
	return out
}
