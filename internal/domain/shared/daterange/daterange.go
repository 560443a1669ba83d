package daterange

import (
	"errors"

	"rentdesk/internal/domain/shared/calendar"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
)

// DateRange represents a half-open interval of nights [checkIn, checkOut).
type DateRange struct {
	CheckIn  calendar.Date
	CheckOut calendar.Date
}

func New(checkIn, checkOut calendar.Date) (DateRange, error) {
	dr := DateRange{CheckIn: checkIn, CheckOut: checkOut}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a range from two ISO dates.
func Parse(checkIn, checkOut string) (DateRange, error) {
	in, err := calendar.Parse(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := calendar.Parse(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	return New(in, out)
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return calendar.NightsBetween(dr.CheckIn, dr.CheckOut)
}

// Each calls fn for every night in the range in order and stops at the first error.
func (dr DateRange) Each(fn func(night calendar.Date) error) error {
	for d := dr.CheckIn; d.Before(dr.CheckOut); d = d.AddDays(1) {
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) Contains(other DateRange) bool {
	return !other.CheckIn.Before(dr.CheckIn) && !other.CheckOut.After(dr.CheckOut)
}

func (dr DateRange) ContainsDate(d calendar.Date) bool {
	return !d.Before(dr.CheckIn) && d.Before(dr.CheckOut)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.CheckOut == other.CheckIn || dr.CheckIn == other.CheckOut
}

func (dr DateRange) Merge(other DateRange) (DateRange, bool) {
	if !(dr.Overlaps(other) || dr.Adjacent(other)) {
		return DateRange{}, false
	}
	return DateRange{
		CheckIn:  calendar.Min(dr.CheckIn, other.CheckIn),
		CheckOut: calendar.Max(dr.CheckOut, other.CheckOut),
	}, true
}
