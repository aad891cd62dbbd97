package pipeline

import (
	"context"

	"quark/internal/drive"
)

// Lister is the listing subset of the remote filesystem used by path
// resolution and discovery.
type Lister interface {
	List(ctx context.Context, parentID string) ([]drive.Node, error)
}

// RemoteFS is the remote filesystem surface the pipeline consumes. The
// production implementation is *drive.Client.
type RemoteFS interface {
	Lister
	Move(ctx context.Context, ids []string, destID string) error
	Delete(ctx context.Context, ids []string) error
	Extract(ctx context.Context, archiveID, destID string) error
}
