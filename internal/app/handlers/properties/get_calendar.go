package properties

import (
	"context"
	"errors"
	"fmt"

	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/queries"
	domainpricing "rentdesk/internal/domain/pricing"
	domainproperty "rentdesk/internal/domain/property"
	"rentdesk/internal/domain/shared/calendar"
	"rentdesk/internal/domain/shared/daterange"
)

const (
	GetCalendarKey = "property.calendar"
	// MaxCalendarNights bounds one calendar request.
	MaxCalendarNights = 366
)

var ErrCalendarWindow = errors.New("properties: calendar window too large")

type GetCalendarQuery struct {
	PropertyID string `json:"property_id" validate:"required"`
	From       string `json:"from" validate:"required,isodate"`
	To         string `json:"to" validate:"required,isodate"`
}

func (q GetCalendarQuery) Key() string { return GetCalendarKey }

type GetCalendarHandler struct {
	Snapshots policies.SnapshotSource
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	window, err := daterange.Parse(q.From, q.To)
	if err != nil {
		return dto.Calendar{}, err
	}
	if window.Nights() > MaxCalendarNights {
		return dto.Calendar{}, fmt.Errorf("%w: %d nights, max %d", ErrCalendarWindow, window.Nights(), MaxCalendarNights)
	}
	snap, err := h.Snapshots.Snapshot(ctx, domainproperty.PropertyID(q.PropertyID))
	if err != nil {
		return dto.Calendar{}, err
	}

	resolver := domainpricing.NewResolver(snap.MonthlyRate, snap.Overrides)
	out := dto.Calendar{
		PropertyID: q.PropertyID,
		From:       window.CheckIn.String(),
		To:         window.CheckOut.String(),
		Currency:   snap.MonthlyRate.Currency,
		Nights:     make([]dto.CalendarNight, 0, window.Nights()),
	}
	err = window.Each(func(night calendar.Date) error {
		n, err := resolver.Resolve(night)
		if errors.Is(err, domainpricing.ErrUnavailable) {
			out.Nights = append(out.Nights, dto.CalendarNight{Date: night.String()})
			return nil
		}
		if err != nil {
			return err
		}
		price := n.Amount().Amount
		out.Nights = append(out.Nights, dto.CalendarNight{
			Date:       night.String(),
			Available:  true,
			Overridden: n.Overridden,
			PriceMinor: &price,
		})
		return nil
	})
	if err != nil {
		return dto.Calendar{}, err
	}
	return out, nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
