package booking

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"rentdesk/internal/domain/pricing"
	"rentdesk/internal/domain/property"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/events"
	"rentdesk/internal/domain/shared/money"
)

var (
	ErrBookingNotFound = errors.New("booking: not found")
	ErrGuestRequired   = errors.New("booking: guest name and email required")
	ErrQuoteMismatch   = errors.New("booking: quote does not match the booked range")
	ErrQuoteDrift      = errors.New("booking: recomputed totals differ from stored quote")
	ErrInvalidState    = errors.New("booking: invalid state transition")
	ErrVersionConflict = errors.New("booking: concurrent modification")
)

type BookingID string

type BookingState string

const (
	StateRequested BookingState = "REQUESTED"
	StateCancelled BookingState = "CANCELLED"
)

type Booking struct {
	ID          BookingID
	PropertyID  property.PropertyID
	GuestName   string
	GuestEmail  string
	Range       daterange.DateRange
	MonthlyRate money.Money
	Quote       pricing.Quote
	Payments    []PaymentRecord
	State       BookingState
	NeedsReview bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

// Repository persists bookings. Save fails with ErrVersionConflict when the stored
// version differs from booking.Version and bumps booking.Version on success.
type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByProperty(ctx context.Context, propertyID property.PropertyID) ([]*Booking, error)
	List(ctx context.Context) ([]*Booking, error)
}

type CreateParams struct {
	ID         BookingID
	PropertyID property.PropertyID
	GuestName  string
	GuestEmail string
	Range      daterange.DateRange
	Quote      pricing.Quote
	CreatedAt  time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	name := strings.TrimSpace(params.GuestName)
	email := strings.TrimSpace(params.GuestEmail)
	if name == "" || email == "" {
		return nil, ErrGuestRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrGuestRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if params.Quote.CheckIn != params.Range.CheckIn || params.Quote.CheckOut != params.Range.CheckOut {
		return nil, ErrQuoteMismatch
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:          params.ID,
		PropertyID:  params.PropertyID,
		GuestName:   name,
		GuestEmail:  strings.ToLower(email),
		Range:       params.Range,
		MonthlyRate: params.Quote.MonthlyRate,
		Quote:       params.Quote,
		Payments:    ExpandPayments(params.Quote),
		State:       StateRequested,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.Record(BookingRequested{
		BookingID:    b.ID,
		PropertyID:   b.PropertyID,
		Range:        b.Range,
		TotalDueNow:  b.Quote.TotalDueNow,
		Installments: len(b.Quote.Schedule),
		At:           now,
	})
	return b, nil
}

// Request rebuilds the engine input from the stored booking and a fresh override snapshot.
func (b *Booking) Request(overrides pricing.Overrides) pricing.Request {
	return pricing.Request{
		MonthlyRate: b.MonthlyRate,
		CheckIn:     b.Range.CheckIn,
		CheckOut:    b.Range.CheckOut,
		Overrides:   overrides,
	}
}

type RecomputeStatus string

const (
	RecomputeUnchanged RecomputeStatus = "unchanged"
	RecomputeUpdated   RecomputeStatus = "updated"
	RecomputeDrift     RecomputeStatus = "drift"
)

type RecomputeOutcome struct {
	Status RecomputeStatus
	Drift  []pricing.Drift
}

// Err is ErrQuoteDrift when the recompute was rejected.
func (o RecomputeOutcome) Err() error {
	if o.Status == RecomputeDrift {
		return ErrQuoteDrift
	}
	return nil
}

// ApplyRecomputedQuote compares a recomputed quote with the stored one. Equal quotes are a
// no-op. A differing quote replaces the stored one only when force is set; otherwise the
// booking is flagged for review and the stored values are kept.
func (b *Booking) ApplyRecomputedQuote(q pricing.Quote, force bool, now time.Time) (RecomputeOutcome, error) {
	if b.State != StateRequested {
		return RecomputeOutcome{}, ErrInvalidState
	}
	if q.CheckIn != b.Range.CheckIn || q.CheckOut != b.Range.CheckOut {
		return RecomputeOutcome{}, ErrQuoteMismatch
	}
	drift := pricing.Diff(b.Quote, q)
	if len(drift) == 0 {
		return RecomputeOutcome{Status: RecomputeUnchanged}, nil
	}
	b.UpdatedAt = now.UTC()
	if !force {
		b.NeedsReview = true
		b.Record(QuoteDriftDetected{BookingID: b.ID, PropertyID: b.PropertyID, Drift: drift, At: b.UpdatedAt})
		return RecomputeOutcome{Status: RecomputeDrift, Drift: drift}, nil
	}
	b.Quote = q
	b.Payments = ExpandPayments(q)
	b.NeedsReview = false
	b.Record(TotalsRecomputed{
		BookingID:   b.ID,
		PropertyID:  b.PropertyID,
		TotalDueNow: q.TotalDueNow,
		Drift:       drift,
		At:          b.UpdatedAt,
	})
	return RecomputeOutcome{Status: RecomputeUpdated, Drift: drift}, nil
}

func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.State != StateRequested {
		return ErrInvalidState
	}
	b.State = StateCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, Reason: reason, At: b.UpdatedAt})
	return nil
}
