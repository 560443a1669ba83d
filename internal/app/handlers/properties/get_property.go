package properties

import (
	"context"

	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/app/support"
	"rentdesk/internal/app/uow"
	domainproperty "rentdesk/internal/domain/property"
)

const GetPropertyKey = "property.get"

type GetPropertyQuery struct {
	PropertyID string `json:"property_id" validate:"required"`
}

func (q GetPropertyQuery) Key() string { return GetPropertyKey }

type GetPropertyHandler struct {
	UoWFactory uow.Factory
}

func (h *GetPropertyHandler) Handle(ctx context.Context, q GetPropertyQuery) (dto.Property, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Property{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	p, err := unit.Properties().ByID(execCtx, domainproperty.PropertyID(q.PropertyID))
	if err != nil {
		return dto.Property{}, err
	}
	return dto.MapProperty(p), nil
}

var _ queries.Handler[GetPropertyQuery, dto.Property] = (*GetPropertyHandler)(nil)
