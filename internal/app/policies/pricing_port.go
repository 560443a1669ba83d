package policies

import (
	"context"

	domainproperty "rentdesk/internal/domain/property"
)

// SnapshotSource returns the pricing input of a property: monthly rate plus one
// consistent copy of its overrides.
type SnapshotSource interface {
	Snapshot(ctx context.Context, id domainproperty.PropertyID) (domainproperty.Snapshot, error)
}

// SnapshotCache is a SnapshotSource that must be told when overrides change.
type SnapshotCache interface {
	SnapshotSource
	Invalidate(ctx context.Context, id domainproperty.PropertyID) error
}
