package properties

import (
	"context"
	"log/slog"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/middleware"
	"rentdesk/internal/app/outbox"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/support"
	domainpricing "rentdesk/internal/domain/pricing"
	domainproperty "rentdesk/internal/domain/property"
)

const UpdateOverridesKey = "property.update_overrides"

// UpdateOverridesCommand replaces the whole override map of a property.
type UpdateOverridesCommand struct {
	PropertyID string                  `json:"property_id" validate:"required"`
	Overrides  domainpricing.Overrides `json:"overrides"`
}

func (c UpdateOverridesCommand) Key() string         { return UpdateOverridesKey }
func (c UpdateOverridesCommand) RequiresAdmin() bool { return true }

type UpdateOverridesHandler struct {
	Cache   policies.SnapshotCache
	Encoder outbox.EventEncoder
	Clock   support.Clock
	Logger  *slog.Logger
}

func (h *UpdateOverridesHandler) Handle(ctx context.Context, cmd UpdateOverridesCommand) (*dto.OverridesUpdate, error) {
	unit, err := support.CurrentUnit(ctx)
	if err != nil {
		return nil, err
	}
	id := domainproperty.PropertyID(cmd.PropertyID)
	p, err := unit.Properties().ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.ReplaceOverrides(cmd.Overrides, h.Clock.Now()); err != nil {
		return nil, err
	}
	if err := unit.Properties().Save(ctx, p); err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, unit.Outbox(), h.Encoder, p); err != nil {
		return nil, err
	}
	if h.Cache != nil {
		if err := h.Cache.Invalidate(ctx, id); err != nil && h.Logger != nil {
			h.Logger.Warn("snapshot cache invalidation failed", "property_id", id, "error", err)
		}
	}
	return &dto.OverridesUpdate{PropertyID: cmd.PropertyID, Days: len(p.Overrides), Version: p.Version}, nil
}

var (
	_ commands.Handler[UpdateOverridesCommand, *dto.OverridesUpdate] = (*UpdateOverridesHandler)(nil)
	_ middleware.AdminOnly                                           = UpdateOverridesCommand{}
)
