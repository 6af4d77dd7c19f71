// Package provider defines the capability interface the dispatch core uses to
// reach resource backends, and the static registry of the supported backends.
// Real backends are external collaborators; the bundled implementations are
// mocks that echo canned payloads.
package provider

import "context"

// Name identifies a provider backend. The set is closed: adding a provider is a
// build-time change, which keeps the dispatch surface auditable.
type Name string

const (
	AWS       Name = "AWS"
	GCP       Name = "GCP"
	Azure     Name = "Azure"
	OpenStack Name = "OpenStack"
)

// CreateParams carries caller-supplied parameters for a create call. Size is
// the provider's flavor/instance-type/VM-size knob; Image is only meaningful
// for providers that take one (OpenStack).
type CreateParams struct {
	Name  string `json:"name"`
	Size  string `json:"size"`
	Image string `json:"image,omitempty"`
}

// CreateResult is the provider's response to a create call, echoing the
// effective parameters.
type CreateResult struct {
	Status     string `json:"status"`
	ResourceID string `json:"resource_id"`
	Name       string `json:"name"`
	Size       string `json:"size"`
	Image      string `json:"image,omitempty"`
}

// Resource is one entry of a list call.
type Resource struct {
	ResourceID string `json:"resource_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
}

// Capability is the uniform surface of a provider backend. Calls may block on
// external I/O; implementations must honor ctx cancellation so a stalled
// backend cannot pin a worker.
type Capability interface {
	CreateResource(ctx context.Context, params CreateParams) (*CreateResult, error)
	ListResources(ctx context.Context) ([]Resource, error)
	// ResourceNoun names what this backend provisions ("Instance", "VM"); the
	// dispatch layer uses it to build audit action labels like "Create VM".
	ResourceNoun() string
}
