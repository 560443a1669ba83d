package booking

import (
	"time"

	"rentdesk/internal/domain/pricing"
	"rentdesk/internal/domain/property"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID    BookingID           `json:"booking_id"`
	PropertyID   property.PropertyID `json:"property_id"`
	Range        daterange.DateRange `json:"range"`
	TotalDueNow  money.Money         `json:"total_due_now"`
	Installments int                 `json:"installments"`
	At           time.Time           `json:"at"`
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type TotalsRecomputed struct {
	BookingID   BookingID           `json:"booking_id"`
	PropertyID  property.PropertyID `json:"property_id"`
	TotalDueNow money.Money         `json:"total_due_now"`
	Drift       []pricing.Drift     `json:"drift"`
	At          time.Time           `json:"at"`
}

func (e TotalsRecomputed) EventName() string     { return "booking.totals_recomputed" }
func (e TotalsRecomputed) AggregateID() string   { return string(e.BookingID) }
func (e TotalsRecomputed) OccurredAt() time.Time { return e.At }

type QuoteDriftDetected struct {
	BookingID  BookingID           `json:"booking_id"`
	PropertyID property.PropertyID `json:"property_id"`
	Drift      []pricing.Drift     `json:"drift"`
	At         time.Time           `json:"at"`
}

func (e QuoteDriftDetected) EventName() string     { return "booking.quote_drift_detected" }
func (e QuoteDriftDetected) AggregateID() string   { return string(e.BookingID) }
func (e QuoteDriftDetected) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID `json:"booking_id"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
