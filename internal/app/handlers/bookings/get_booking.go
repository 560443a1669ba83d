package bookings

import (
	"context"

	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/app/support"
	"rentdesk/internal/app/uow"
	domainbooking "rentdesk/internal/domain/booking"
)

const GetBookingKey = "booking.get"

type GetBookingQuery struct {
	BookingID string `json:"booking_id" validate:"required"`
}

func (q GetBookingQuery) Key() string { return GetBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.Factory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.Booking{}, err
	}
	return dto.MapBooking(b), nil
}

var _ queries.Handler[GetBookingQuery, dto.Booking] = (*GetBookingHandler)(nil)
