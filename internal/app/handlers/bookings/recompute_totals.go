package bookings

import (
	"context"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/middleware"
	"rentdesk/internal/app/outbox"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/support"
	domainbooking "rentdesk/internal/domain/booking"
	domainpricing "rentdesk/internal/domain/pricing"
)

const RecomputeTotalsKey = "booking.recompute_totals"

// RecomputeTotalsCommand reprices a stored booking against the property's current
// overrides. Without Force a differing result only flags the booking.
type RecomputeTotalsCommand struct {
	BookingID string `json:"booking_id" validate:"required"`
	Force     bool   `json:"force"`
}

func (c RecomputeTotalsCommand) Key() string         { return RecomputeTotalsKey }
func (c RecomputeTotalsCommand) RequiresAdmin() bool { return true }

type RecomputeTotalsHandler struct {
	Calculator domainpricing.Calculator
	Encoder    outbox.EventEncoder
	Metrics    policies.PricingMetrics
	Clock      support.Clock
}

func (h *RecomputeTotalsHandler) Handle(ctx context.Context, cmd RecomputeTotalsCommand) (*dto.RecomputeResult, error) {
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
	calc := h.Calculator
	if calc == nil {
		calc = domainpricing.Engine{}
	}
	quote, err := calc.Quote(ctx, b.Request(p.PricingSnapshot().Overrides))
	if err != nil {
		return nil, err
	}
	outcome, err := b.ApplyRecomputedQuote(quote, cmd.Force, h.Clock.Now())
	if err != nil {
		return nil, err
	}
	if outcome.Status != domainbooking.RecomputeUnchanged {
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return nil, err
		}
		if err := outbox.Drain(ctx, unit.Outbox(), h.Encoder, b); err != nil {
			return nil, err
		}
	}
	if h.Metrics != nil {
		h.Metrics.Recomputed(string(outcome.Status))
	}
	return &dto.RecomputeResult{
		BookingID: cmd.BookingID,
		Status:    string(outcome.Status),
		Drift:     dto.MapDrift(outcome.Drift),
	}, nil
}

var (
	_ commands.Handler[RecomputeTotalsCommand, *dto.RecomputeResult] = (*RecomputeTotalsHandler)(nil)
	_ middleware.AdminOnly                                           = RecomputeTotalsCommand{}
)
