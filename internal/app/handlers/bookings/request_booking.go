package bookings

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/quotes"
	"rentdesk/internal/app/middleware"
	"rentdesk/internal/app/outbox"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/support"
	domainbooking "rentdesk/internal/domain/booking"
	domainpricing "rentdesk/internal/domain/pricing"
	domainproperty "rentdesk/internal/domain/property"
	"rentdesk/internal/domain/shared/daterange"
)

const RequestBookingKey = "booking.request"

type RequestBookingCommand struct {
	PropertyID      string `json:"property_id" validate:"required"`
	GuestName       string `json:"guest_name" validate:"required,max=200"`
	GuestEmail      string `json:"guest_email" validate:"required,email"`
	CheckIn         string `json:"check_in" validate:"required,isodate"`
	CheckOut        string `json:"check_out" validate:"required,isodate"`
	IdempotencyKeyV string `json:"-"`
}

func (c RequestBookingCommand) Key() string { return RequestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &dto.BookingRequested{} }

func (c RequestBookingCommand) Fingerprint() string {
	return strings.Join([]string{c.PropertyID, c.GuestName, strings.ToLower(c.GuestEmail), c.CheckIn, c.CheckOut}, "|")
}

type RequestBookingHandler struct {
	Calculator  domainpricing.Calculator
	Encoder     outbox.EventEncoder
	Metrics     policies.PricingMetrics
	Clock       support.Clock
	IDGenerator func() string
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*dto.BookingRequested, error) {
	unit, err := support.CurrentUnit(ctx)
	if err != nil {
		return nil, err
	}
	stay, err := daterange.Parse(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	p, err := unit.Properties().ByID(ctx, domainproperty.PropertyID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	snap := p.PricingSnapshot()
	quote, err := h.calculator().Quote(ctx, domainpricing.Request{
		MonthlyRate: snap.MonthlyRate,
		CheckIn:     stay.CheckIn,
		CheckOut:    stay.CheckOut,
		Overrides:   snap.Overrides,
	})
	h.metrics().QuoteComputed(quotes.Outcome(err))
	if err != nil {
		return nil, err
	}

	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(h.newID()),
		PropertyID: p.ID,
		GuestName:  cmd.GuestName,
		GuestEmail: cmd.GuestEmail,
		Range:      stay,
		Quote:      quote,
		CreatedAt:  h.Clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, unit.Outbox(), h.Encoder, booking); err != nil {
		return nil, err
	}
	return &dto.BookingRequested{
		BookingID: string(booking.ID),
		Quote:     dto.MapQuote(string(p.ID), quote, 0),
	}, nil
}

func (h *RequestBookingHandler) calculator() domainpricing.Calculator {
	if h.Calculator == nil {
		return domainpricing.Engine{}
	}
	return h.Calculator
}

func (h *RequestBookingHandler) metrics() policies.PricingMetrics {
	if h.Metrics == nil {
		return policies.NopMetrics{}
	}
	return h.Metrics
}

func (h *RequestBookingHandler) newID() string {
	if h.IDGenerator != nil {
		return h.IDGenerator()
	}
	return uuid.NewString()
}

var (
	_ commands.Handler[RequestBookingCommand, *dto.BookingRequested] = (*RequestBookingHandler)(nil)
	_ middleware.IdempotentCommand                                   = RequestBookingCommand{}
	_ middleware.Fingerprinted                                       = RequestBookingCommand{}
)
