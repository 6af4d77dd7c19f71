package provider

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownProvider is returned by Resolve for names outside the registered set.
var ErrUnknownProvider = errors.New("unknown provider")

// Registry maps provider names to capability implementations. It is populated
// once at construction and never mutated afterwards, so reads need no locking.
type Registry struct {
	caps map[Name]Capability
}

// NewRegistry returns the registry of the four supported backends, each backed
// by its mock implementation.
func NewRegistry() *Registry {
	return &Registry{caps: map[Name]Capability{
		AWS:       NewAWSBackend(),
		GCP:       NewGCPBackend(),
		Azure:     NewAzureBackend(),
		OpenStack: NewOpenStackBackend(),
	}}
}

// Resolve returns the capability registered under name. Names are matched
// exactly (case-sensitive); anything else fails with ErrUnknownProvider.
func (r *Registry) Resolve(name Name) (Capability, error) {
	cap, ok := r.caps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return cap, nil
}

// Names returns the registered provider names in stable order.
func (r *Registry) Names() []Name {
	out := make([]Name, 0, len(r.caps))
	for n := range r.caps {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
