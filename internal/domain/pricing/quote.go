package pricing

import (
	"context"
	"errors"
	"strings"

	"rentdesk/internal/domain/shared/calendar"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/money"
)

// MaxStayNights is the longest stay that can be quoted, three years including a leap day.
const MaxStayNights = 3*365 + 1

var (
	ErrInvalidRange = daterange.ErrInvalidRange
	ErrInvalidRate  = errors.New("pricing: monthly rate must be non-negative with a currency")
	ErrUnavailable  = errors.New("pricing: dates unavailable")
)

// Request is everything a quote depends on. Overrides must be a snapshot the caller
// does not mutate while the quote is computed.
type Request struct {
	MonthlyRate money.Money
	CheckIn     calendar.Date
	CheckOut    calendar.Date
	Overrides   Overrides
}

type Quote struct {
	CheckIn           calendar.Date
	CheckOut          calendar.Date
	MonthlyRate       money.Money
	TotalNights       int
	FirstPeriodEnd    calendar.Date
	FirstPeriodNights int
	FirstPeriodAmount money.Money
	MoveInFee         money.Money
	Deposit           money.Money
	TotalDueNow       money.Money
	Schedule          []ScheduleEntry
}

// ScheduleTotal sums the schedule amounts.
func (q Quote) ScheduleTotal() money.Money {
	total := money.Zero(q.MonthlyRate.Currency)
	for _, e := range q.Schedule {
		total.Amount += e.Amount.Amount
	}
	return total
}

// StayTotal is the rent for the whole stay: first period plus schedule, fees excluded.
func (q Quote) StayTotal() money.Money {
	total := q.ScheduleTotal()
	total.Amount += q.FirstPeriodAmount.Amount
	return total
}

// Compute assembles a quote. It returns ErrInvalidRange, ErrInvalidRate or ErrUnavailable
// and never a partial quote. Stays longer than MaxStayNights are an invalid range.
// The result depends only on req.
func Compute(req Request) (Quote, error) {
	stay, err := daterange.New(req.CheckIn, req.CheckOut)
	if err != nil || stay.Nights() > MaxStayNights {
		return Quote{}, ErrInvalidRange
	}
	rate := req.MonthlyRate
	if len(rate.Currency) != 3 || rate.IsNegative() {
		return Quote{}, ErrInvalidRate
	}
	rate.Currency = strings.ToUpper(rate.Currency)

	resolver := NewResolver(rate, req.Overrides)
	if blocked, ok := resolver.FirstBlocked(stay.CheckIn, stay.CheckOut); ok {
		_, err := resolver.Resolve(blocked)
		return Quote{}, err
	}

	totalNights := stay.Nights()
	firstPeriodEnd := FirstPeriodEnd(stay.CheckIn, stay.CheckOut)
	firstPeriodAmount, err := resolver.Total(stay.CheckIn, firstPeriodEnd)
	if err != nil {
		return Quote{}, err
	}

	moveInFee := MoveInFee(totalNights, rate.Currency)
	deposit := Deposit(stay.CheckIn, stay.CheckOut, rate, totalNights)

	dueNow := firstPeriodAmount
	dueNow.Amount += moveInFee.Amount + deposit.Amount
	dueNow = dueNow.RoundToUnit()

	schedule, err := BuildSchedule(firstPeriodEnd, stay.CheckOut, resolver)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		CheckIn:           stay.CheckIn,
		CheckOut:          stay.CheckOut,
		MonthlyRate:       rate,
		TotalNights:       totalNights,
		FirstPeriodEnd:    firstPeriodEnd,
		FirstPeriodNights: calendar.NightsBetween(stay.CheckIn, firstPeriodEnd),
		FirstPeriodAmount: firstPeriodAmount,
		MoveInFee:         moveInFee,
		Deposit:           deposit,
		TotalDueNow:       dueNow,
		Schedule:          schedule,
	}, nil
}

// Calculator is the port the application layer quotes through.
type Calculator interface {
	Quote(ctx context.Context, req Request) (Quote, error)
}

// Engine is the Calculator backed by Compute.
type Engine struct{}

func (Engine) Quote(_ context.Context, req Request) (Quote, error) {
	return Compute(req)
}

var _ Calculator = Engine{}
