package transform

import (
	"errors"
	"fmt"
)

// ErrAborted is returned by Engine.Run when a rule error maps to ActionAbort.
var ErrAborted = errors.New("transformation aborted")

// Kind classifies a rule failure.
type Kind int

const (
	// KindInput is malformed or unexpected markup.
	KindInput Kind = iota
	// KindDependency is a network failure or non-200 response from a remote
	// service, or a missing local resource such as a font.
	KindDependency
	// KindRenderer is a failure raised by the PDF or Word generator.
	KindRenderer
	// KindSetup is a missing browser, library or configuration.
	KindSetup
)

// String returns the lowercase kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindDependency:
		return "dependency"
	case KindRenderer:
		return "renderer"
	case KindSetup:
		return "setup"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Action is what the pipeline does with a failure of a given Kind.
type Action int

const (
	// ActionSkip leaves the offending fragment untouched.
	ActionSkip Action = iota
	// ActionFallback replaces the fragment with its degraded rendition.
	ActionFallback
	// ActionAbort stops the export.
	ActionAbort
)

// String returns the lowercase action name used in logs.
func (a Action) String() string {
	switch a {
	case ActionSkip:
		return "skip"
	case ActionFallback:
		return "fallback"
	case ActionAbort:
		return "abort"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Policy maps failure kinds to actions. Kinds missing from a Policy use
// DefaultPolicy.
type Policy map[Kind]Action

// DefaultPolicy is the PDF policy: renderer and setup failures are fatal.
var DefaultPolicy = Policy{
	KindInput:      ActionSkip,
	KindDependency: ActionFallback,
	KindRenderer:   ActionAbort,
	KindSetup:      ActionAbort,
}

// WordPolicy returns DefaultPolicy with renderer failures downgraded to a
// fallback: the Word generator can always emit an error-notice document.
func WordPolicy() Policy {
	p := make(Policy, len(DefaultPolicy))
	for k, a := range DefaultPolicy {
		p[k] = a
	}
	p[KindRenderer] = ActionFallback
	return p
}

// Action returns the action for k.
func (p Policy) Action(k Kind) Action {
	if a, ok := p[k]; ok {
		return a
	}
	if a, ok := DefaultPolicy[k]; ok {
		return a
	}
	return ActionAbort
}

// TransformError is a failure isolated at one rule's boundary.
type TransformError struct {
	Rule string
	Kind Kind
	Err  error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Rule, e.Kind, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// Errorf builds a TransformError of the given kind.
func Errorf(rule string, kind Kind, format string, args ...any) *TransformError {
	return &TransformError{Rule: rule, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// asTransformError converts err into a TransformError attributed to rule.
// Errors that already carry a kind keep it; anything else is input.
func asTransformError(rule string, err error) *TransformError {
	var te *TransformError
	if errors.As(err, &te) {
		if te.Rule == "" {
			te.Rule = rule
		}
		return te
	}
	return &TransformError{Rule: rule, Kind: KindInput, Err: err}
}
