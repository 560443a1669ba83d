package support

import (
	"context"

	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/uow"
	domainproperty "rentdesk/internal/domain/property"
)

// RepositorySnapshots reads pricing snapshots straight from the property repository.
type RepositorySnapshots struct {
	UoWFactory uow.Factory
}

func (s RepositorySnapshots) Snapshot(ctx context.Context, id domainproperty.PropertyID) (domainproperty.Snapshot, error) {
	unit, execCtx, cleanup, err := BeginReadOnlyUnit(ctx, s.UoWFactory)
	if err != nil {
		return domainproperty.Snapshot{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	p, err := unit.Properties().ByID(execCtx, id)
	if err != nil {
		return domainproperty.Snapshot{}, err
	}
	return p.PricingSnapshot(), nil
}

func (RepositorySnapshots) Invalidate(context.Context, domainproperty.PropertyID) error {
	return nil
}

var _ policies.SnapshotCache = RepositorySnapshots{}
