package pricing

import "rentdesk/internal/domain/shared/calendar"

// AnchorDay is the check-in day of month from which the first period runs to the
// end of the following month.
const AnchorDay = 25

// FirstPeriodEnd returns the exclusive end of the first billing period.
//
// A check-in on day 25 or later is anchored to the first day two months out, capped at
// checkout. Earlier check-ins end at the next month boundary when the stay crosses it,
// otherwise the whole stay is the first period.
func FirstPeriodEnd(checkIn, checkOut calendar.Date) calendar.Date {
	dayAfterEndOfCheckInMonth := checkIn.LastOfMonth().AddDays(1)
	dayAfterEndOfNextMonth := dayAfterEndOfCheckInMonth.LastOfMonth().AddDays(1)
	crossesMonthEnd := checkOut.After(dayAfterEndOfCheckInMonth)

	switch {
	case checkIn.Day >= AnchorDay:
		return calendar.Min(checkOut, dayAfterEndOfNextMonth)
	case crossesMonthEnd:
		return dayAfterEndOfCheckInMonth
	default:
		return checkOut
	}
}
