package transform

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/htmltree"
	"github.com/alnah/go-htmlexport/internal/icons"
)

// AlertKind is the normalized subtype of a callout block.
type AlertKind string

const (
	AlertNote      AlertKind = "note"
	AlertTip       AlertKind = "tip"
	AlertImportant AlertKind = "important"
	AlertWarning   AlertKind = "warning"
	AlertCaution   AlertKind = "caution"
)

// alertAliases maps recognized subtype classes to their kind.
var alertAliases = map[string]AlertKind{
	"note":      AlertNote,
	"tip":       AlertTip,
	"important": AlertImportant,
	"warning":   AlertWarning,
	"caution":   AlertCaution,
	"critical":  AlertCaution,
	"danger":    AlertCaution,
}

// AlertTheme holds the Word rendition of a kind. The Word post-processor
// recognizes alert cells by Icon and Title.
type AlertTheme struct {
	Icon       string
	Color      string
	Background string
}

// AlertThemes is indexed by kind.
var AlertThemes = map[AlertKind]AlertTheme{
	AlertNote:      {Icon: "ℹ️", Color: "#0969da", Background: "#e6f6ff"},
	AlertTip:       {Icon: "💡", Color: "#1a7f37", Background: "#dafbe1"},
	AlertImportant: {Icon: "📣", Color: "#8250df", Background: "#f3e6ff"},
	AlertWarning:   {Icon: "⚠️", Color: "#bf8700", Background: "#fff8c5"},
	AlertCaution:   {Icon: "🛑", Color: "#d1242f", Background: "#ffebe9"},
}

// Title returns the capitalized kind name.
func (k AlertKind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// AlertBlock is the parsed form of one callout.
type AlertBlock struct {
	Kind  AlertKind
	Title string
	Body  []*html.Node
}

// Alerts flattens markdown-alert and admonition blocks into one-cell tables.
func Alerts() Pass {
	return NewPass("alerts", func(_ context.Context, root *html.Node, env *Env) []*TransformError {
		var blocks []*html.Node
		for _, n := range htmltree.FindAll(root, "div", "aside", "section", "blockquote") {
			if isAlert(n) {
				blocks = append(blocks, n)
			}
		}
		return eachBlock("alerts", root, reversed(blocks), env, buildAlert)
	})
}

func isAlert(n *html.Node) bool {
	if htmltree.HasClass(n, "alert-table") {
		return false
	}
	for _, c := range htmltree.Classes(n) {
		if c == "markdown-alert-title" {
			continue
		}
		if c == "admonition" || c == "markdown-alert" || strings.HasPrefix(c, "markdown-alert-") {
			return true
		}
	}
	return false
}

// ParseAlert reads kind, title and body from a callout element. The title
// element, if any, is detached from n.
func ParseAlert(n *html.Node) AlertBlock {
	block := AlertBlock{Kind: AlertNote}
	for _, c := range htmltree.Classes(n) {
		name := strings.TrimPrefix(strings.ToLower(c), "markdown-alert-")
		if k, ok := alertAliases[name]; ok {
			block.Kind = k
			break
		}
	}

	if t := htmltree.Query(n, ".markdown-alert-title, .admonition-title"); t != nil {
		block.Title = strings.Join(strings.Fields(htmltree.TextContent(t)), " ")
		htmltree.Remove(t)
	}
	if block.Title == "" {
		block.Title = block.Kind.Title()
	}
	block.Body = htmltree.Children(n)
	return block
}

func buildAlert(n *html.Node, env *Env) (*html.Node, error) {
	block := ParseAlert(htmltree.Clone(n))

	table := htmltree.Element("table",
		"class", "alert-table markdown-alert-"+string(block.Kind),
		"width", "100%",
		"cellpadding", "8",
		"cellspacing", "0",
	)
	cell := htmltree.Element("td", "class", "alert-cell")
	htmltree.Append(table, htmltree.Wrap("tbody", htmltree.Wrap("tr", cell)))

	title := htmltree.Element("b", "class", "alert-title")
	if env.Target == TargetWord {
		theme := AlertThemes[block.Kind]
		htmltree.Append(title, htmltree.Text(theme.Icon+" "+block.Title))
		htmltree.SetAttr(title, "style", "color: "+theme.Color+";")
		htmltree.SetAttr(table, "style", "border-left: 4px solid "+theme.Color+"; background-color: "+theme.Background+";")
		htmltree.SetAttr(cell, "style", "background-color: "+theme.Background+";")
	} else {
		icon := htmltree.Element("img",
			"class", "alert-icon",
			"src", icons.AlertURI(string(block.Kind)),
			"alt", "",
			"width", "16",
			"height", "16",
		)
		htmltree.Append(title, icon, htmltree.Text(" "+block.Title))
	}
	htmltree.Append(cell, title, htmltree.Element("br"))

	for _, c := range block.Body {
		if htmltree.IsBlank(c) {
			continue
		}
		if htmltree.IsElement(c, "p") {
			htmltree.MoveChildren(cell, c)
			htmltree.Append(cell, htmltree.Element("br"), htmltree.Element("br"))
			continue
		}
		htmltree.Append(cell, c)
	}
	trimTrailingBreaks(cell)
	return table, nil
}

// trimTrailingBreaks drops the <br> pairs left after the last paragraph.
func trimTrailingBreaks(n *html.Node) {
	for c := n.LastChild; c != nil; c = n.LastChild {
		if !htmltree.IsBlank(c) && !htmltree.IsElement(c, "br") {
			return
		}
		if htmltree.IsElement(c, "br") && c.PrevSibling != nil && htmltree.IsElement(c.PrevSibling, "b") {
			return
		}
		n.RemoveChild(c)
	}
}
