package reconcile

import "context"

// Pass is one idempotent maintenance procedure over the two inventory
// universes. Run must be safe to repeat: re-running after a partial failure
// converges to the same end state.
type Pass interface {
	Name() string
	Run(ctx context.Context) (*Report, error)
}

// Registry tracks the known passes by name.
type Registry struct {
	passes []Pass
}

// NewRegistry builds a registry preloaded with the provided passes.
func NewRegistry(passes ...Pass) *Registry {
	registry := &Registry{}
	for _, pass := range passes {
		if pass == nil {
			continue
		}
		registry.passes = append(registry.passes, pass)
	}
	return registry
}

// Register adds a pass to the registry.
func (r *Registry) Register(pass Pass) {
	if pass == nil {
		return
	}
	r.passes = append(r.passes, pass)
}

// Lookup returns the pass with the given name, or nil.
func (r *Registry) Lookup(name string) Pass {
	for _, pass := range r.passes {
		if pass.Name() == name {
			return pass
		}
	}
	return nil
}

// Names lists the registered pass names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.passes))
	for _, pass := range r.passes {
		names = append(names, pass.Name())
	}
	return names
}
