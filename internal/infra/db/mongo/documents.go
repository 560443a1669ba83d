package mongo

import (
	"fmt"
	"time"

	domainbooking "rentdesk/internal/domain/booking"
	"rentdesk/internal/domain/pricing"
	domainproperty "rentdesk/internal/domain/property"
	"rentdesk/internal/domain/shared/calendar"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/money"
)

// Dates are stored as ISO strings so documents stay readable and sort lexically.

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

type overrideDocument struct {
	PriceNight *int64 `bson:"price_night,omitempty"`
	Available  *bool  `bson:"available,omitempty"`
}

type propertyDocument struct {
	ID          string                      `bson:"_id"`
	Title       string                      `bson:"title"`
	Address     string                      `bson:"address"`
	MonthlyRate moneyDocument               `bson:"monthly_rate"`
	Overrides   map[string]overrideDocument `bson:"overrides"`
	CreatedAt   time.Time                   `bson:"created_at"`
	UpdatedAt   time.Time                   `bson:"updated_at"`
	Version     int64                       `bson:"version"`
}

func newPropertyDocument(p *domainproperty.Property) propertyDocument {
	doc := propertyDocument{
		ID:          string(p.ID),
		Title:       p.Title,
		Address:     p.Address,
		MonthlyRate: newMoneyDocument(p.MonthlyRate),
		Overrides:   make(map[string]overrideDocument, len(p.Overrides)),
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
		Version:     p.Version,
	}
	for day, ov := range p.Overrides {
		doc.Overrides[day.String()] = overrideDocument{PriceNight: ov.PriceNight, Available: ov.Available}
	}
	return doc
}

func (d propertyDocument) toAggregate() (*domainproperty.Property, error) {
	overrides := make(pricing.Overrides, len(d.Overrides))
	for key, ov := range d.Overrides {
		day, err := calendar.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("property %s override %q: %w", d.ID, key, err)
		}
		overrides[day] = pricing.DayOverride{Date: day, PriceNight: ov.PriceNight, Available: ov.Available}
	}
	return &domainproperty.Property{
		ID:          domainproperty.PropertyID(d.ID),
		Title:       d.Title,
		Address:     d.Address,
		MonthlyRate: d.MonthlyRate.toMoney(),
		Overrides:   overrides,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		Version:     d.Version,
	}, nil
}

type scheduleDocument struct {
	DueAt         string        `bson:"due_at"`
	CoverageStart string        `bson:"coverage_start"`
	CoverageEnd   string        `bson:"coverage_end"`
	Nights        int           `bson:"nights"`
	Amount        moneyDocument `bson:"amount"`
}

type quoteDocument struct {
	CheckIn           string             `bson:"check_in"`
	CheckOut          string             `bson:"check_out"`
	MonthlyRate       moneyDocument      `bson:"monthly_rate"`
	TotalNights       int                `bson:"total_nights"`
	FirstPeriodEnd    string             `bson:"first_period_end"`
	FirstPeriodNights int                `bson:"first_period_nights"`
	FirstPeriodAmount moneyDocument      `bson:"first_period_amount"`
	MoveInFee         moneyDocument      `bson:"move_in_fee"`
	Deposit           moneyDocument      `bson:"deposit"`
	TotalDueNow       moneyDocument      `bson:"total_due_now"`
	Schedule          []scheduleDocument `bson:"schedule"`
}

func newQuoteDocument(q pricing.Quote) quoteDocument {
	doc := quoteDocument{
		CheckIn:           q.CheckIn.String(),
		CheckOut:          q.CheckOut.String(),
		MonthlyRate:       newMoneyDocument(q.MonthlyRate),
		TotalNights:       q.TotalNights,
		FirstPeriodEnd:    q.FirstPeriodEnd.String(),
		FirstPeriodNights: q.FirstPeriodNights,
		FirstPeriodAmount: newMoneyDocument(q.FirstPeriodAmount),
		MoveInFee:         newMoneyDocument(q.MoveInFee),
		Deposit:           newMoneyDocument(q.Deposit),
		TotalDueNow:       newMoneyDocument(q.TotalDueNow),
		Schedule:          make([]scheduleDocument, 0, len(q.Schedule)),
	}
	for _, e := range q.Schedule {
		doc.Schedule = append(doc.Schedule, scheduleDocument{
			DueAt:         e.DueAt.String(),
			CoverageStart: e.CoverageStart.String(),
			CoverageEnd:   e.CoverageEndInclusive.String(),
			Nights:        e.Nights,
			Amount:        newMoneyDocument(e.Amount),
		})
	}
	return doc
}

func (d quoteDocument) toQuote() (pricing.Quote, error) {
	var p dateParser
	q := pricing.Quote{
		CheckIn:           p.parse(d.CheckIn),
		CheckOut:          p.parse(d.CheckOut),
		MonthlyRate:       d.MonthlyRate.toMoney(),
		TotalNights:       d.TotalNights,
		FirstPeriodEnd:    p.parse(d.FirstPeriodEnd),
		FirstPeriodNights: d.FirstPeriodNights,
		FirstPeriodAmount: d.FirstPeriodAmount.toMoney(),
		MoveInFee:         d.MoveInFee.toMoney(),
		Deposit:           d.Deposit.toMoney(),
		TotalDueNow:       d.TotalDueNow.toMoney(),
	}
	for _, e := range d.Schedule {
		q.Schedule = append(q.Schedule, pricing.ScheduleEntry{
			DueAt:                p.parse(e.DueAt),
			CoverageStart:        p.parse(e.CoverageStart),
			CoverageEndInclusive: p.parse(e.CoverageEnd),
			Nights:               e.Nights,
			Amount:               e.Amount.toMoney(),
		})
	}
	return q, p.err
}

type paymentDocument struct {
	Kind     string        `bson:"kind"`
	Category string        `bson:"category"`
	DueAt    string        `bson:"due_at"`
	Label    string        `bson:"label"`
	Amount   moneyDocument `bson:"amount"`
}

type bookingDocument struct {
	ID          string            `bson:"_id"`
	PropertyID  string            `bson:"property_id"`
	GuestName   string            `bson:"guest_name"`
	GuestEmail  string            `bson:"guest_email"`
	CheckIn     string            `bson:"check_in"`
	CheckOut    string            `bson:"check_out"`
	MonthlyRate moneyDocument     `bson:"monthly_rate"`
	Quote       quoteDocument     `bson:"quote"`
	Payments    []paymentDocument `bson:"payments"`
	State       string            `bson:"state"`
	NeedsReview bool              `bson:"needs_review"`
	CreatedAt   time.Time         `bson:"created_at"`
	UpdatedAt   time.Time         `bson:"updated_at"`
	Version     int64             `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:          string(b.ID),
		PropertyID:  string(b.PropertyID),
		GuestName:   b.GuestName,
		GuestEmail:  b.GuestEmail,
		CheckIn:     b.Range.CheckIn.String(),
		CheckOut:    b.Range.CheckOut.String(),
		MonthlyRate: newMoneyDocument(b.MonthlyRate),
		Quote:       newQuoteDocument(b.Quote),
		Payments:    make([]paymentDocument, 0, len(b.Payments)),
		State:       string(b.State),
		NeedsReview: b.NeedsReview,
		CreatedAt:   b.CreatedAt.UTC(),
		UpdatedAt:   b.UpdatedAt.UTC(),
		Version:     b.Version,
	}
	for _, p := range b.Payments {
		doc.Payments = append(doc.Payments, paymentDocument{
			Kind:     string(p.Kind),
			Category: string(p.Category),
			DueAt:    p.DueAt.String(),
			Label:    p.Label,
			Amount:   newMoneyDocument(p.Amount),
		})
	}
	return doc
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	quote, err := d.Quote.toQuote()
	if err != nil {
		return nil, fmt.Errorf("booking %s quote: %w", d.ID, err)
	}
	var p dateParser
	agg := &domainbooking.Booking{
		ID:          domainbooking.BookingID(d.ID),
		PropertyID:  domainproperty.PropertyID(d.PropertyID),
		GuestName:   d.GuestName,
		GuestEmail:  d.GuestEmail,
		Range:       daterange.DateRange{CheckIn: p.parse(d.CheckIn), CheckOut: p.parse(d.CheckOut)},
		MonthlyRate: d.MonthlyRate.toMoney(),
		Quote:       quote,
		State:       domainbooking.BookingState(d.State),
		NeedsReview: d.NeedsReview,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		Version:     d.Version,
	}
	for _, pay := range d.Payments {
		agg.Payments = append(agg.Payments, domainbooking.PaymentRecord{
			Kind:     domainbooking.PaymentKind(pay.Kind),
			Category: domainbooking.PaymentCategory(pay.Category),
			DueAt:    p.parse(pay.DueAt),
			Label:    pay.Label,
			Amount:   pay.Amount.toMoney(),
		})
	}
	if p.err != nil {
		return nil, fmt.Errorf("booking %s: %w", d.ID, p.err)
	}
	return agg, nil
}

// dateParser keeps the first parse failure so document mapping reads straight through.
type dateParser struct {
	err error
}

func (p *dateParser) parse(value string) calendar.Date {
	d, err := calendar.Parse(value)
	if err != nil && p.err == nil {
		p.err = err
	}
	return d
}
