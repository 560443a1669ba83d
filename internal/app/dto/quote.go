package dto

import (
	domainpricing "rentdesk/internal/domain/pricing"
)

type ScheduleRow struct {
	DueAt         string `json:"due_at"`
	Coverage      string `json:"coverage"`
	CoverageStart string `json:"coverage_start"`
	CoverageEnd   string `json:"coverage_end"`
	Nights        int    `json:"nights"`
	AmountUnits   int64  `json:"amount_units"`
}

type Quote struct {
	PropertyID         string        `json:"property_id,omitempty"`
	CheckIn            string        `json:"check_in"`
	CheckOut           string        `json:"check_out"`
	Currency           string        `json:"currency"`
	MonthlyRateUnits   int64         `json:"monthly_rate_units"`
	TotalNights        int           `json:"total_nights"`
	FirstPeriodEnd     string        `json:"first_period_end"`
	FirstPeriodNights  int           `json:"first_period_nights"`
	FirstPeriodUnits   int64         `json:"first_period_units"`
	MoveInFeeUnits     int64         `json:"move_in_fee_units"`
	DepositUnits       int64         `json:"deposit_units"`
	TotalDueNowUnits   int64         `json:"total_due_now_units"`
	ScheduleTotalUnits int64         `json:"schedule_total_units"`
	StayTotalUnits     int64         `json:"stay_total_units"`
	ScheduleLength     int           `json:"schedule_length"`
	Schedule           []ScheduleRow `json:"schedule"`
}

// MapQuote renders q; maxRows > 0 keeps only the first maxRows schedule rows while
// ScheduleLength still reports the full count.
func MapQuote(propertyID string, q domainpricing.Quote, maxRows int) Quote {
	out := Quote{
		PropertyID:         propertyID,
		CheckIn:            q.CheckIn.String(),
		CheckOut:           q.CheckOut.String(),
		Currency:           q.MonthlyRate.Currency,
		MonthlyRateUnits:   q.MonthlyRate.Units(),
		TotalNights:        q.TotalNights,
		FirstPeriodEnd:     q.FirstPeriodEnd.String(),
		FirstPeriodNights:  q.FirstPeriodNights,
		FirstPeriodUnits:   q.FirstPeriodAmount.Units(),
		MoveInFeeUnits:     q.MoveInFee.Units(),
		DepositUnits:       q.Deposit.Units(),
		TotalDueNowUnits:   q.TotalDueNow.Units(),
		ScheduleTotalUnits: q.ScheduleTotal().Units(),
		StayTotalUnits:     q.StayTotal().Units(),
		ScheduleLength:     len(q.Schedule),
		Schedule:           []ScheduleRow{},
	}
	for i, e := range q.Schedule {
		if maxRows > 0 && i >= maxRows {
			break
		}
		out.Schedule = append(out.Schedule, ScheduleRow{
			DueAt:         e.DueAt.String(),
			Coverage:      e.CoverageLabel(),
			CoverageStart: e.CoverageStart.String(),
			CoverageEnd:   e.CoverageEndInclusive.String(),
			Nights:        e.Nights,
			AmountUnits:   e.Amount.Units(),
		})
	}
	return out
}

type Drift struct {
	Field      string `json:"field"`
	Stored     string `json:"stored"`
	Recomputed string `json:"recomputed"`
}

func MapDrift(in []domainpricing.Drift) []Drift {
	out := make([]Drift, 0, len(in))
	for _, d := range in {
		out = append(out, Drift{Field: d.Field, Stored: d.Stored, Recomputed: d.Recomputed})
	}
	return out
}
