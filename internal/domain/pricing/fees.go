package pricing

import (
	"rentdesk/internal/domain/shared/calendar"
	"rentdesk/internal/domain/shared/money"
)

const (
	// MoveInFeeMinNights is the stay length from which the move-in fee applies.
	MoveInFeeMinNights = 30
	MoveInFeeUnits     = 250

	ShortStayNights        = 15
	ShortStayDepositUnits  = 500
	MediumStayNights       = 30
	MediumStayDepositUnits = 750

	// LongStayMonths is the stay length at which the deposit is a full month.
	LongStayMonths = 3
)

// MoveInFee is waived for stays under 30 nights.
func MoveInFee(totalNights int, currency string) money.Money {
	if totalNights < MoveInFeeMinNights {
		return money.Zero(currency)
	}
	return money.MustUnits(MoveInFeeUnits, currency)
}

// Deposit is a flat tier below 30 nights, then half a month's rent, or a full month
// when checkout is at least three calendar months after check-in.
func Deposit(checkIn, checkOut calendar.Date, monthlyRate money.Money, totalNights int) money.Money {
	currency := monthlyRate.Currency
	switch {
	case totalNights < ShortStayNights:
		return money.MustUnits(ShortStayDepositUnits, currency)
	case totalNights < MediumStayNights:
		return money.MustUnits(MediumStayDepositUnits, currency)
	}
	threeMonthsFromStart := checkIn.AddMonthsClamped(LongStayMonths)
	if !checkOut.Before(threeMonthsFromStart) {
		return monthlyRate.RoundToUnit()
	}
	units := money.RoundHalfUp(monthlyRate.Amount, 2*money.MinorPerUnit)
	return money.Money{Amount: units * money.MinorPerUnit, Currency: currency}
}
