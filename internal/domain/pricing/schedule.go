package pricing

import (
	"fmt"

	"rentdesk/internal/domain/shared/calendar"
	"rentdesk/internal/domain/shared/money"
)

// ScheduleEntry bills one calendar month (or the final partial month) of the stay.
type ScheduleEntry struct {
	DueAt                calendar.Date
	CoverageStart        calendar.Date
	CoverageEndInclusive calendar.Date
	Nights               int
	Amount               money.Money
}

// CoverageLabel renders "Feb 1 - Feb 29".
func (e ScheduleEntry) CoverageLabel() string {
	return fmt.Sprintf("%s - %s", e.CoverageStart.ShortLabel(), e.CoverageEndInclusive.ShortLabel())
}

// BuildSchedule walks calendar months from firstPeriodEnd to checkOut. Each segment is
// rounded on its own; amounts are never re-rounded after summation.
func BuildSchedule(firstPeriodEnd, checkOut calendar.Date, r Resolver) ([]ScheduleEntry, error) {
	cursor := firstPeriodEnd.FirstOfMonth()
	if cursor.Before(firstPeriodEnd) {
		cursor = cursor.AddMonths(1)
	}

	var entries []ScheduleEntry
	for cursor.Before(checkOut) {
		nextMonthStart := cursor.FirstOfMonth().AddMonths(1)
		segmentEnd := calendar.Min(checkOut, nextMonthStart)
		if !cursor.Before(segmentEnd) {
			break
		}
		amount, err := r.Total(cursor, segmentEnd)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ScheduleEntry{
			DueAt:                cursor,
			CoverageStart:        cursor,
			CoverageEndInclusive: segmentEnd.AddDays(-1),
			Nights:               calendar.NightsBetween(cursor, segmentEnd),
			Amount:               amount,
		})
		cursor = nextMonthStart
	}
	return entries, nil
}
