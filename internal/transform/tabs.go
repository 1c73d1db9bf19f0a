package transform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/htmltree"
)

var errEmptyTabSet = errors.New("tab set has no panels")

type tabPanel struct {
	title   string
	content *html.Node
}

// Tabs flattens pymdownx tab widgets into a sequence of titled panels.
func Tabs() Pass {
	return NewPass("tabs", func(_ context.Context, root *html.Node, env *Env) []*TransformError {
		sets := reversed(htmltree.QueryAll(root, ".tabbed-set"))
		return eachBlock("tabs", root, sets, env, buildTabs)
	})
}

func buildTabs(n *html.Node, env *Env) (*html.Node, error) {
	src := htmltree.Clone(n)

	var panels []tabPanel
	var err error
	if labels := directChild(src, func(c *html.Node) bool { return htmltree.HasClass(c, "tabbed-labels") }); labels != nil {
		panels, err = alternateTabs(src, labels)
	} else {
		panels = classicTabs(src)
	}
	if err != nil {
		return nil, err
	}
	if len(panels) == 0 {
		return nil, errEmptyTabSet
	}

	out := htmltree.Element("div", "class", "tabbed-flat")
	for _, p := range panels {
		title := htmltree.Append(htmltree.Element("h4", "class", "tab-title"), htmltree.Text(p.title))

		panel := htmltree.Element("div", "class", "tab-panel")
		if env.Target == TargetWord {
			htmltree.AddStyle(panel, "margin-left", "20px")
		}
		htmltree.MoveChildren(panel, p.content)
		htmltree.Append(out, title, panel)
	}
	return out, nil
}

// classicTabs pairs each <label> with the next .tabbed-content sibling.
func classicTabs(src *html.Node) []tabPanel {
	var panels []tabPanel
	pending := ""
	for _, c := range htmltree.Children(src) {
		switch {
		case htmltree.IsElement(c, "label"):
			pending = strings.TrimSpace(htmltree.TextContent(c))
		case htmltree.IsElement(c) && htmltree.HasClass(c, "tabbed-content"):
			title := pending
			if title == "" {
				title = fmt.Sprintf("Tab %d", len(panels)+1)
			}
			panels = append(panels, tabPanel{title: title, content: c})
			pending = ""
		}
	}
	return panels
}

// alternateTabs pairs the labels of .tabbed-labels with the .tabbed-block
// children of .tabbed-content by position.
func alternateTabs(src, labels *html.Node) ([]tabPanel, error) {
	var titles []string
	for _, c := range htmltree.Children(labels) {
		if htmltree.IsElement(c, "label") {
			titles = append(titles, strings.TrimSpace(htmltree.TextContent(c)))
		}
	}

	content := directChild(src, func(c *html.Node) bool { return htmltree.HasClass(c, "tabbed-content") })
	if content == nil {
		return nil, errEmptyTabSet
	}
	var blocks []*html.Node
	for _, c := range htmltree.Children(content) {
		if htmltree.IsElement(c) && htmltree.HasClass(c, "tabbed-block") {
			blocks = append(blocks, c)
		}
	}
	if len(blocks) != len(titles) {
		return nil, fmt.Errorf("tab set has %d labels for %d panels", len(titles), len(blocks))
	}

	panels := make([]tabPanel, len(blocks))
	for i, b := range blocks {
		panels[i] = tabPanel{title: titles[i], content: b}
		if panels[i].title == "" {
			panels[i].title = fmt.Sprintf("Tab %d", i+1)
		}
	}
	return panels, nil
}

func directChild(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
	}
	return nil
}
