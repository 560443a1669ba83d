package quotes

import (
	"context"
	"errors"

	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/queries"
	domainpricing "rentdesk/internal/domain/pricing"
	domainproperty "rentdesk/internal/domain/property"
	"rentdesk/internal/domain/shared/calendar"
)

const PreviewQuoteKey = "quotes.preview"

type PreviewQuoteQuery struct {
	PropertyID string `json:"property_id" validate:"required"`
	CheckIn    string `json:"check_in" validate:"required,isodate"`
	CheckOut   string `json:"check_out" validate:"required,isodate"`
	MaxRows    int    `json:"rows" validate:"gte=0,lte=120"`
}

func (q PreviewQuoteQuery) Key() string { return PreviewQuoteKey }

type PreviewQuoteHandler struct {
	Snapshots   policies.SnapshotSource
	Calculator  domainpricing.Calculator
	Metrics     policies.PricingMetrics
	DefaultRows int
}

func (h *PreviewQuoteHandler) Handle(ctx context.Context, q PreviewQuoteQuery) (dto.Quote, error) {
	checkIn, err := calendar.Parse(q.CheckIn)
	if err != nil {
		return dto.Quote{}, err
	}
	checkOut, err := calendar.Parse(q.CheckOut)
	if err != nil {
		return dto.Quote{}, err
	}
	snap, err := h.Snapshots.Snapshot(ctx, domainproperty.PropertyID(q.PropertyID))
	if err != nil {
		return dto.Quote{}, err
	}
	quote, err := h.calculator().Quote(ctx, domainpricing.Request{
		MonthlyRate: snap.MonthlyRate,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Overrides:   snap.Overrides,
	})
	h.metrics().QuoteComputed(Outcome(err))
	if err != nil {
		return dto.Quote{}, err
	}
	rows := q.MaxRows
	if rows == 0 {
		rows = h.DefaultRows
	}
	return dto.MapQuote(q.PropertyID, quote, rows), nil
}

func (h *PreviewQuoteHandler) calculator() domainpricing.Calculator {
	if h.Calculator == nil {
		return domainpricing.Engine{}
	}
	return h.Calculator
}

func (h *PreviewQuoteHandler) metrics() policies.PricingMetrics {
	if h.Metrics == nil {
		return policies.NopMetrics{}
	}
	return h.Metrics
}

// Outcome is the metrics label of a quote computation result.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domainpricing.ErrInvalidRange), errors.Is(err, domainpricing.ErrInvalidRate):
		return "invalid"
	case errors.Is(err, domainpricing.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

var _ queries.Handler[PreviewQuoteQuery, dto.Quote] = (*PreviewQuoteHandler)(nil)
