// Package registry holds the export features a host application exposes.
//
// A Registry has two phases. While initializing, features are registered;
// after Freeze the set is fixed and may be queried from any goroutine.
// There is no package-level registry: callers create and pass their own.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Sentinel errors for registry misuse.
var (
	ErrRegistryFrozen    = errors.New("registry is frozen")
	ErrRegistryNotFrozen = errors.New("registry is not frozen")
	ErrDuplicateFeature  = errors.New("feature already registered")
	ErrFeatureNotFound   = errors.New("feature not found")
	ErrInvalidFeature    = errors.New("invalid feature")
)

// Kind groups features by what they plug into.
type Kind string

const (
	KindExportHandler Kind = "export_handler"
	KindUIExtension   Kind = "ui_extension"
)

// Tier is the maturity a feature is advertised with.
type Tier string

const (
	TierStandard     Tier = "standard"
	TierExperimental Tier = "experimental"
)

// Handler converts one HTML document into the feature's output bytes.
type Handler func(ctx context.Context, html string) ([]byte, error)

// Feature is one registered capability.
type Feature struct {
	Name        string
	Label       string
	Extension   string
	Description string
	Kind        Kind
	Tier        Tier
	Installed   bool
	Handler     Handler
}

// Validate reports every missing required field.
func (f Feature) Validate() error {
	var errs []error
	if f.Name == "" {
		errs = append(errs, fmt.Errorf("%w: name is required", ErrInvalidFeature))
	}
	if f.Kind == KindExportHandler && f.Handler == nil {
		errs = append(errs, fmt.Errorf("%w: %q has no handler", ErrInvalidFeature, f.Name))
	}
	return errors.Join(errs...)
}

// Registry stores features by name.
type Registry struct {
	mu       sync.RWMutex
	frozen   bool
	features map[string]Feature
	order    []string
}

// New returns an empty registry in the initializing phase.
func New() *Registry {
	return &Registry{features: make(map[string]Feature)}
}

// Register adds f. It fails once the registry is frozen, on duplicate
// names and on invalid features.
func (r *Registry) Register(f Feature) error {
	if err := f.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: cannot register %q", ErrRegistryFrozen, f.Name)
	}
	if _, ok := r.features[f.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateFeature, f.Name)
	}
	r.features[f.Name] = f
	r.order = append(r.order, f.Name)
	return nil
}

// RegisterAll registers each feature and joins the failures.
func (r *Registry) RegisterAll(features ...Feature) error {
	var errs []error
	for _, f := range features {
		if err := r.Register(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Freeze ends the initializing phase. Calling it twice is harmless.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Get returns the feature called name.
func (r *Registry) Get(name string) (Feature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.frozen {
		return Feature{}, ErrRegistryNotFrozen
	}
	f, ok := r.features[name]
	if !ok {
		return Feature{}, fmt.Errorf("%w: %q", ErrFeatureNotFound, name)
	}
	return f, nil
}

// List returns every feature in registration order.
func (r *Registry) List() ([]Feature, error) {
	return r.filter(func(Feature) bool { return true })
}

// ByKind returns the features of kind k in registration order.
func (r *Registry) ByKind(k Kind) ([]Feature, error) {
	return r.filter(func(f Feature) bool { return f.Kind == k })
}

// Names returns the registered names sorted alphabetically.
func (r *Registry) Names() ([]string, error) {
	list, err := r.List()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(list))
	for i, f := range list {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names, nil
}

func (r *Registry) filter(keep func(Feature) bool) ([]Feature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.frozen {
		return nil, ErrRegistryNotFrozen
	}
	out := make([]Feature, 0, len(r.order))
	for _, name := range r.order {
		if f := r.features[name]; keep(f) {
			out = append(out, f)
		}
	}
	return out, nil
}
