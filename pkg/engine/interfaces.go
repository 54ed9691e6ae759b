package engine

import (
	"context"

	"github.com/edaconf/edaconf/pkg/controller"
)

// API is the transport surface the engine consumes. *controller.Client
// satisfies it; tests substitute a fake to assert call ordering.
type API interface {
	// ListAll fetches every page of a collection, optionally filtered.
	ListAll(ctx context.Context, endpoint string, filter map[string]string) ([]controller.Object, error)

	// Create creates a resource and returns its representation.
	Create(ctx context.Context, endpoint string, fields map[string]any) (controller.Object, error)

	// Update patches a resource and returns the updated representation.
	Update(ctx context.Context, endpoint string, id any, fields map[string]any) (controller.Object, error)

	// Delete removes a resource.
	Delete(ctx context.Context, endpoint string, id any) error
}
