package provider

import "context"

// The mock backends below stand in for real cloud APIs: each echoes a canned
// payload with the provider's characteristic defaults. They still check ctx so
// dispatch timeout handling is exercised end to end.

// AWSBackend is the mock EC2-style backend.
type AWSBackend struct{}

func NewAWSBackend() *AWSBackend { return &AWSBackend{} }

func (b *AWSBackend) ResourceNoun() string { return "Instance" }

func (b *AWSBackend) CreateResource(ctx context.Context, params CreateParams) (*CreateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.Name == "" {
		params.Name = "AWS_Test_Instance"
	}
	if params.Size == "" {
		params.Size = "t2.micro"
	}
	return &CreateResult{Status: "success", ResourceID: "aws123", Name: params.Name, Size: params.Size}, nil
}

func (b *AWSBackend) ListResources(ctx context.Context) ([]Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []Resource{{ResourceID: "aws123", Name: "AWS_Instance", Status: "running"}}, nil
}

// GCPBackend is the mock Compute Engine backend.
type GCPBackend struct{}

func NewGCPBackend() *GCPBackend { return &GCPBackend{} }

func (b *GCPBackend) ResourceNoun() string { return "Instance" }

func (b *GCPBackend) CreateResource(ctx context.Context, params CreateParams) (*CreateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.Name == "" {
		params.Name = "GCP_Test_Instance"
	}
	if params.Size == "" {
		params.Size = "n1-standard-1"
	}
	return &CreateResult{Status: "success", ResourceID: "gcp123", Name: params.Name, Size: params.Size}, nil
}

func (b *GCPBackend) ListResources(ctx context.Context) ([]Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []Resource{{ResourceID: "gcp123", Name: "GCP_Instance", Status: "running"}}, nil
}

// AzureBackend is the mock Azure VM backend.
type AzureBackend struct{}

func NewAzureBackend() *AzureBackend { return &AzureBackend{} }

func (b *AzureBackend) ResourceNoun() string { return "Instance" }

func (b *AzureBackend) CreateResource(ctx context.Context, params CreateParams) (*CreateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.Name == "" {
		params.Name = "Azure_Test_Instance"
	}
	if params.Size == "" {
		params.Size = "Standard_DS1_v2"
	}
	return &CreateResult{Status: "success", ResourceID: "azure123", Name: params.Name, Size: params.Size}, nil
}

func (b *AzureBackend) ListResources(ctx context.Context) ([]Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []Resource{{ResourceID: "azure123", Name: "Azure_Instance", Status: "running"}}, nil
}

// OpenStackBackend is the mock Nova backend. It provisions "VMs" rather than
// "Instances" and takes an image parameter.
type OpenStackBackend struct{}

func NewOpenStackBackend() *OpenStackBackend { return &OpenStackBackend{} }

func (b *OpenStackBackend) ResourceNoun() string { return "VM" }

func (b *OpenStackBackend) CreateResource(ctx context.Context, params CreateParams) (*CreateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.Name == "" {
		params.Name = "OpenStack_Test_VM"
	}
	if params.Size == "" {
		params.Size = "m1.small"
	}
	if params.Image == "" {
		params.Image = "Ubuntu"
	}
	return &CreateResult{Status: "success", ResourceID: "os123", Name: params.Name, Size: params.Size, Image: params.Image}, nil
}

func (b *OpenStackBackend) ListResources(ctx context.Context) ([]Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []Resource{{ResourceID: "os123", Name: "OpenStack_VM", Status: "active"}}, nil
}
