package bookings

import (
	"context"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/middleware"
	"rentdesk/internal/app/outbox"
	"rentdesk/internal/app/support"
	domainbooking "rentdesk/internal/domain/booking"
)

const CancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID string `json:"booking_id" validate:"required"`
	Reason    string `json:"reason" validate:"max=500"`
}

func (c CancelBookingCommand) Key() string         { return CancelBookingKey }
func (c CancelBookingCommand) RequiresAdmin() bool { return true }

type CancelBookingHandler struct {
	Encoder outbox.EventEncoder
	Clock   support.Clock
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*dto.Booking, error) {
	unit, err := support.CurrentUnit(ctx)
	if err != nil {
		return nil, err
	}
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if err := b.Cancel(cmd.Reason, h.Clock.Now()); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, unit.Outbox(), h.Encoder, b); err != nil {
		return nil, err
	}
	out := dto.MapBooking(b)
	return &out, nil
}

var (
	_ commands.Handler[CancelBookingCommand, *dto.Booking] = (*CancelBookingHandler)(nil)
	_ middleware.AdminOnly                                 = CancelBookingCommand{}
)
