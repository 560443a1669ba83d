package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/bookings"
	"rentdesk/internal/app/middleware"
	"rentdesk/internal/app/policies"
	domainproperty "rentdesk/internal/domain/property"
	infraoutbox "rentdesk/internal/infra/outbox"
)

// OverridesUpdatedType is the CloudEvents type the listener reacts to.
const OverridesUpdatedType = "property.overrides_updated.v1"

// Inbox deduplicates deliveries by event id.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// OverridesListener reprices open bookings of a property after its overrides change.
type OverridesListener struct {
	Inbox  Inbox
	Cache  policies.SnapshotCache
	Bus    commands.Bus
	Force  bool
	Logger *slog.Logger
}

func (l *OverridesListener) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ce infraoutbox.CloudEvent
	if err := json.Unmarshal(msg.Value, &ce); err != nil {
		l.logger().Warn("skipping malformed cloud event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return nil
	}
	if ce.Type != OverridesUpdatedType {
		return nil
	}
	var payload domainproperty.OverridesUpdated
	if err := json.Unmarshal(ce.Data, &payload); err != nil || payload.PropertyID == "" {
		l.logger().Warn("skipping overrides event without property", "event_id", ce.ID, "error", err)
		return nil
	}

	if l.Inbox != nil {
		seen, err := l.Inbox.Seen(ctx, ce.ID)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}
	if err := l.handle(ctx, payload.PropertyID); err != nil {
		if l.Inbox != nil {
			if ferr := l.Inbox.Forget(ctx, ce.ID); ferr != nil {
				l.logger().Error("inbox release failed", "event_id", ce.ID, "error", ferr)
			}
		}
		return fmt.Errorf("overrides event %s: %w", ce.ID, err)
	}
	return nil
}

func (l *OverridesListener) handle(ctx context.Context, propertyID domainproperty.PropertyID) error {
	if l.Cache != nil {
		if err := l.Cache.Invalidate(ctx, propertyID); err != nil {
			l.logger().Warn("snapshot cache invalidation failed", "property_id", propertyID, "error", err)
		}
	}
	ctx = middleware.WithPrincipal(ctx, middleware.PrincipalSystem)
	summary, err := commands.Dispatch[bookings.RecomputeAllCommand, *dto.RecomputeSummary](ctx, l.Bus, bookings.RecomputeAllCommand{
		PropertyID: string(propertyID),
		Force:      l.Force,
	})
	if err != nil {
		return err
	}
	l.logger().Info("overrides change applied to bookings",
		"property_id", propertyID,
		"scanned", summary.Scanned,
		"drifted", summary.Drifted,
		"updated", summary.Updated,
	)
	return nil
}

func (l *OverridesListener) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

var _ MessageHandler = (*OverridesListener)(nil)
