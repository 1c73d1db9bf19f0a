package transform

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/alnah/go-htmlexport/internal/htmltree"
)

// blockBuilder computes the replacement of one matched element without
// touching it. Results:
//   - (n, nil): leave n as is
//   - (nil, nil): remove n
//   - (repl, nil): replace n by repl; a DocumentNode repl is spliced in
//     child by child
//   - (repl, err): repl is the degraded rendition, applied only when the
//     policy maps err's kind to ActionFallback
type blockBuilder func(n *html.Node, env *Env) (*html.Node, error)

// eachBlock applies build to every node still attached under root. Failures
// are isolated per node; an abort stops the loop.
func eachBlock(rule string, root *html.Node, nodes []*html.Node, env *Env, build blockBuilder) []*TransformError {
	var errs []*TransformError
	for _, n := range nodes {
		if !attached(n, root) {
			continue
		}

		repl, err := safeBuild(build, n, env)
		if err != nil {
			te := asTransformError(rule, err)
			errs = append(errs, te)
			action := env.Policy.Action(te.Kind)
			if action == ActionAbort {
				return errs
			}
			if action != ActionFallback || repl == nil {
				continue
			}
		}

		switch {
		case repl == nil:
			htmltree.Remove(n)
		case repl == n:
		case repl.Type == html.DocumentNode:
			spliceFragment(n, repl)
		default:
			htmltree.Replace(n, repl)
		}
	}
	return errs
}

// spliceFragment puts the children of frag where n was and removes n.
func spliceFragment(n, frag *html.Node) {
	for _, c := range htmltree.Children(frag) {
		frag.RemoveChild(c)
		n.Parent.InsertBefore(c, n)
	}
	htmltree.Remove(n)
}

func safeBuild(build blockBuilder, n *html.Node, env *Env) (repl *html.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			repl, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return build(n, env)
}

// attached reports whether n is still reachable from root.
func attached(n, root *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

// reversed returns nodes in reverse order so inner blocks are rewritten
// before the blocks that contain them.
func reversed(nodes []*html.Node) []*html.Node {
	out := make([]*html.Node, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = n
	}
	return out
}
