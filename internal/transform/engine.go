// Package transform rewrites rendered Markdown HTML into the restricted
// subset that the PDF and Word generators accept. Work is split into small
// passes that run in a fixed order over one tree; each rule failure is
// isolated, reported as a TransformError and resolved through a Policy.
package transform

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Target selects the output format a run prepares the tree for.
type Target int

const (
	TargetPDF Target = iota
	TargetWord
)

func (t Target) String() string {
	if t == TargetWord {
		return "word"
	}
	return "pdf"
}

// MathRenderer turns display TeX into PNG bytes.
type MathRenderer interface {
	Render(ctx context.Context, tex string) ([]byte, error)
}

// Rasterizer turns one emoji cluster into PNG bytes.
type Rasterizer interface {
	Rasterize(cluster string) ([]byte, error)
}

// Env is the read-only environment every pass sees.
type Env struct {
	Target Target
	Policy Policy
	Math   MathRenderer
	Emoji  Rasterizer
	Logger *zap.Logger
}

// Pass is one tree rewrite. Apply mutates root in place and returns the
// failures it isolated; it never leaves a half-rewritten fragment behind.
type Pass interface {
	Name() string
	Apply(ctx context.Context, root *html.Node, env *Env) []*TransformError
}

type passFunc struct {
	name string
	fn   func(ctx context.Context, root *html.Node, env *Env) []*TransformError
}

func (p passFunc) Name() string { return p.name }

func (p passFunc) Apply(ctx context.Context, root *html.Node, env *Env) []*TransformError {
	return p.fn(ctx, root, env)
}

// NewPass adapts a function to the Pass interface.
func NewPass(name string, fn func(ctx context.Context, root *html.Node, env *Env) []*TransformError) Pass {
	return passFunc{name: name, fn: fn}
}

// Normalizer returns the structural sub-rules. They are independent of one
// another and may run in any order.
func Normalizer() []Pass {
	return []Pass{
		Tabs(),
		Details(),
		DefinitionLists(),
		TaskLists(),
		Abbreviations(),
		WikiLinks(),
		Footnotes(),
		Cleanup(),
	}
}

// DefaultPasses returns the full pipeline for target in execution order.
func DefaultPasses(target Target) []Pass {
	passes := Normalizer()
	passes = append(passes, Alerts(), Emoji(), Math())
	if target == TargetPDF {
		passes = append(passes, ClipGuard())
	}
	return append(passes, StyleSanitizer())
}

// Engine runs passes over a document tree.
type Engine struct {
	env    Env
	passes []Pass
}

// Option configures an Engine.
type Option func(*Engine)

// WithMathRenderer sets the renderer used for display math.
func WithMathRenderer(r MathRenderer) Option {
	return func(e *Engine) { e.env.Math = r }
}

// WithRasterizer sets the emoji rasterizer used on the PDF path.
func WithRasterizer(r Rasterizer) Option {
	return func(e *Engine) { e.env.Emoji = r }
}

// WithLogger sets the logger for isolated failures.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.env.Logger = l
		}
	}
}

// WithPolicy overrides the policy table.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		if p != nil {
			e.env.Policy = p
		}
	}
}

// WithPasses replaces the default pass list.
func WithPasses(passes ...Pass) Option {
	return func(e *Engine) { e.passes = passes }
}

// New creates an engine for target. Word engines default to WordPolicy.
func New(target Target, opts ...Option) *Engine {
	policy := DefaultPolicy
	if target == TargetWord {
		policy = WordPolicy()
	}
	e := &Engine{
		env: Env{
			Target: target,
			Policy: policy,
			Logger: zap.NewNop(),
		},
		passes: DefaultPasses(target),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run applies every pass to root in order. Isolated failures are collected
// in the report. The first failure whose kind maps to ActionAbort stops the
// run and is returned wrapped in ErrAborted.
func (e *Engine) Run(ctx context.Context, root *html.Node) (*Report, error) {
	report := &Report{Target: e.env.Target}
	env := e.env

	for _, p := range e.passes {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Passes = append(report.Passes, p.Name())
		for _, te := range applyPass(ctx, p, root, &env) {
			action := env.Policy.Action(te.Kind)
			env.Logger.Warn("transform rule failed",
				zap.String("pass", p.Name()),
				zap.String("rule", te.Rule),
				zap.String("kind", te.Kind.String()),
				zap.String("action", action.String()),
				zap.Error(te.Err),
			)
			report.Errors = append(report.Errors, te)
			if action == ActionAbort {
				return report, fmt.Errorf("%w: %w", ErrAborted, te)
			}
		}
	}
	return report, nil
}

// applyPass runs one pass, turning a panic into an input error.
func applyPass(ctx context.Context, p Pass, root *html.Node, env *Env) (errs []*TransformError) {
	defer func() {
		if r := recover(); r != nil {
			errs = append(errs, Errorf(p.Name(), KindInput, "panic: %v", r))
		}
	}()
	return p.Apply(ctx, root, env)
}
