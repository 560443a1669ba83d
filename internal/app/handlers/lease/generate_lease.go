package lease

import (
	"context"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/middleware"
	"rentdesk/internal/app/outbox"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/support"
	domainbooking "rentdesk/internal/domain/booking"
	domainlease "rentdesk/internal/domain/lease"
	"rentdesk/internal/domain/shared/events"
)

const GenerateLeaseKey = "lease.generate"

const contentType = "text/plain; charset=utf-8"

type GenerateLeaseCommand struct {
	BookingID string `json:"booking_id" validate:"required"`
}

func (c GenerateLeaseCommand) Key() string         { return GenerateLeaseKey }
func (c GenerateLeaseCommand) RequiresAdmin() bool { return true }

type GenerateLeaseHandler struct {
	Archive policies.DocumentArchive
	Encoder outbox.EventEncoder
	Clock   support.Clock
}

func (h *GenerateLeaseHandler) Handle(ctx context.Context, cmd GenerateLeaseCommand) (*dto.Lease, error) {
	unit, err := support.CurrentUnit(ctx)
	if err != nil {
		return nil, err
	}
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	p, err := unit.Properties().ByID(ctx, b.PropertyID)
	if err != nil {
		return nil, err
	}
	now := h.Clock.Now()
	terms, err := domainlease.NewTerms(b, p, now)
	if err != nil {
		return nil, err
	}
	doc, err := domainlease.Render(terms)
	if err != nil {
		return nil, err
	}
	key := domainlease.ObjectKey(b.ID, now)
	url, err := h.Archive.Put(ctx, key, doc, contentType)
	if err != nil {
		return nil, err
	}
	generated := events.BaseEvent{Name: "lease.generated", Aggregate: string(b.ID), Time: now}
	if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.Encoder, []events.DomainEvent{generated}); err != nil {
		return nil, err
	}
	return &dto.Lease{BookingID: cmd.BookingID, Key: key, URL: url}, nil
}

var (
	_ commands.Handler[GenerateLeaseCommand, *dto.Lease] = (*GenerateLeaseHandler)(nil)
	_ middleware.AdminOnly                               = GenerateLeaseCommand{}
)
