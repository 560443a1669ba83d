package pricing

import (
	"fmt"

	"rentdesk/internal/domain/shared/calendar"
	"rentdesk/internal/domain/shared/money"
)

// FallbackDivisor turns a monthly rate into the nightly equivalent regardless of
// the month's real length.
const FallbackDivisor = 30

// subunit scale: nightly prices are carried in 1/FallbackDivisor of a minor unit so
// monthlyRate/30 stays exact until a rounding point.
const subPerUnit = FallbackDivisor * money.MinorPerUnit

// Nightly is the resolved price of one night.
type Nightly struct {
	Date       calendar.Date
	Overridden bool
	sub        int64
	currency   string
}

// Amount is the nightly price rounded half up to a minor unit, for display only.
func (n Nightly) Amount() money.Money {
	return money.Money{Amount: money.RoundHalfUp(n.sub, FallbackDivisor), Currency: n.currency}
}

// Resolver prices single nights from a monthly rate and an override snapshot.
type Resolver struct {
	monthlyRate money.Money
	overrides   Overrides
}

func NewResolver(monthlyRate money.Money, overrides Overrides) Resolver {
	return Resolver{monthlyRate: monthlyRate, overrides: overrides}
}

// FallbackNightly is monthlyRate / 30 rounded to a minor unit.
func (r Resolver) FallbackNightly() money.Money {
	return money.Money{Amount: money.RoundHalfUp(r.monthlyRate.Amount, FallbackDivisor), Currency: r.monthlyRate.Currency}
}

// Resolve returns the night's price or ErrUnavailable when the night is blocked.
func (r Resolver) Resolve(day calendar.Date) (Nightly, error) {
	n := Nightly{Date: day, sub: r.monthlyRate.Amount, currency: r.monthlyRate.Currency}
	ov, ok := r.overrides[day]
	if !ok {
		return n, nil
	}
	if ov.Blocked() {
		return Nightly{}, fmt.Errorf("%w: %s", ErrUnavailable, day)
	}
	if ov.PriceNight != nil {
		n.sub = *ov.PriceNight * subPerUnit
		n.Overridden = true
	}
	return n, nil
}

// Total sums the nights in [from, to) and rounds once, half up, to a whole unit.
func (r Resolver) Total(from, to calendar.Date) (money.Money, error) {
	var acc int64
	for day := from; day.Before(to); day = day.AddDays(1) {
		n, err := r.Resolve(day)
		if err != nil {
			return money.Money{}, err
		}
		acc += n.sub
	}
	units := money.RoundHalfUp(acc, subPerUnit)
	return money.Money{Amount: units * money.MinorPerUnit, Currency: r.monthlyRate.Currency}, nil
}

// FirstBlocked returns the first unavailable night in [from, to), if any.
func (r Resolver) FirstBlocked(from, to calendar.Date) (calendar.Date, bool) {
	if len(r.overrides) == 0 {
		return calendar.Date{}, false
	}
	for day := from; day.Before(to); day = day.AddDays(1) {
		if ov, ok := r.overrides[day]; ok && ov.Blocked() {
			return day, true
		}
	}
	return calendar.Date{}, false
}
