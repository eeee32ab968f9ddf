package fleet

import (
	"context"

	"vdt/internal/domain"
)

// Provider manages device instances on the device farm
type Provider interface {
	// ProjectID resolves a project name to its id.
	ProjectID(ctx context.Context, name string) (string, error)
	ListInstances(ctx context.Context, projectID string) ([]domain.Instance, error)
	StartInstance(ctx context.Context, id string) error
	CreateInstance(ctx context.Context, spec domain.InstanceSpec) (domain.Instance, error)
	// WaitUntilReady blocks until the instance agent accepts connections.
	WaitUntilReady(ctx context.Context, id string) error
}
