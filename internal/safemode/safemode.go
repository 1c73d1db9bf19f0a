// Package safemode reduces transformed HTML to the markup the PDF renderer
// is trusted with. Stylesheets, scripts and inline styles are removed; the
// only styling left is one print stylesheet injected into the page head.
package safemode

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Tags whose content survives safe mode. Everything else is dropped and its
// text kept, except script and style whose content is dropped too.
var allowedElements = []string{
	"a", "abbr", "b", "blockquote", "br", "code", "dd", "del", "div", "dl",
	"dt", "em", "figcaption", "figure", "h1", "h2", "h3", "h4", "h5", "h6",
	"hr", "i", "img", "ins", "kbd", "li", "mark", "ol", "p", "pre", "s",
	"samp", "section", "small", "span", "strong", "sub", "sup", "table",
	"tbody", "td", "tfoot", "th", "thead", "tr", "u", "ul",
}

var (
	borderValue = regexp.MustCompile(`^[0-9]{1,3}$`)
	nameValue   = regexp.MustCompile(`^[a-zA-Z0-9:\-_.]+$`)
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Policy returns the shared safe-mode policy. bluemonday policies are safe
// for concurrent use once built.
func Policy() *bluemonday.Policy {
	policyOnce.Do(func() { policy = newPolicy() })
	return policy
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(allowedElements...)

	p.AllowStandardAttributes()
	p.AllowStyling()

	p.AllowStandardURLs()
	p.AllowURLSchemes("file")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("name").Matching(nameValue).OnElements("a")

	p.AllowImages()
	p.AllowDataURIImages()
	// Emoji alts fall outside AllowImages' alt pattern. Values are escaped
	// on output, so any text is safe here.
	p.AllowAttrs("alt").OnElements("img")

	// AllowImages re-enables nofollow through AllowStandardURLs.
	p.RequireNoFollowOnLinks(false)

	p.AllowLists()
	p.AllowTables()
	p.AllowAttrs("border", "cellpadding", "cellspacing").Matching(borderValue).OnElements("table")
	p.AllowAttrs("align").Matching(bluemonday.CellAlign).OnElements("table", "p", "div")
	p.AllowAttrs("width").Matching(bluemonday.NumberOrPercent).OnElements("td", "th")
	p.AllowAttrs("valign").Matching(bluemonday.CellVerticalAlign).OnElements("td", "th")
	return p
}

// Sanitize strips body down to the safe subset.
func Sanitize(body string) string {
	return Policy().Sanitize(body)
}

// Document sanitizes body and wraps it in a standalone page that carries css
// as its only stylesheet. The content sits in div.markdown-body.
func Document(title, body, css string) string {
	var b strings.Builder
	b.Grow(len(body) + len(css) + 256)

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	if title != "" {
		fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	}
	b.WriteString("<style>\n")
	b.WriteString(strings.ReplaceAll(css, "</style", `<\/style`))
	b.WriteString("\n</style>\n</head>\n<body>\n<div class=\"markdown-body\">\n")
	b.WriteString(Sanitize(body))
	b.WriteString("\n</div>\n</body>\n</html>\n")
	return b.String()
}
