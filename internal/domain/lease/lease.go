package lease

import (
	"bytes"
	"errors"
	"fmt"
	"text/template"
	"time"

	"rentdesk/internal/domain/booking"
	"rentdesk/internal/domain/property"
)

var ErrNotLeasable = errors.New("lease: booking cannot be leased")

// Installment is one scheduled rent line of the contract.
type Installment struct {
	DueAt    string
	Coverage string
	Amount   string
}

// Terms are the figures a lease embeds. They are taken from the stored quote, never recomputed.
type Terms struct {
	BookingID     string
	PropertyTitle string
	Address       string
	GuestName     string
	GuestEmail    string
	MoveIn        string
	Checkout      string
	TotalNights   int
	MonthlyRate   string
	FirstPeriod   string
	FirstPeriodTo string
	MoveInFee     string
	HasMoveInFee  bool
	Deposit       string
	TotalDueNow   string
	Schedule      []Installment
	IssuedAt      string
}

func NewTerms(b *booking.Booking, p *property.Property, issuedAt time.Time) (Terms, error) {
	if b == nil || p == nil || b.State != booking.StateRequested {
		return Terms{}, ErrNotLeasable
	}
	if b.PropertyID != p.ID {
		return Terms{}, fmt.Errorf("%w: booking %s is not for property %s", ErrNotLeasable, b.ID, p.ID)
	}
	q := b.Quote
	terms := Terms{
		BookingID:     string(b.ID),
		PropertyTitle: p.Title,
		Address:       p.Address,
		GuestName:     b.GuestName,
		GuestEmail:    b.GuestEmail,
		MoveIn:        q.CheckIn.String(),
		Checkout:      q.CheckOut.String(),
		TotalNights:   q.TotalNights,
		MonthlyRate:   q.MonthlyRate.String(),
		FirstPeriod:   q.FirstPeriodAmount.String(),
		FirstPeriodTo: q.FirstPeriodEnd.AddDays(-1).String(),
		MoveInFee:     q.MoveInFee.String(),
		HasMoveInFee:  !q.MoveInFee.IsZero(),
		Deposit:       q.Deposit.String(),
		TotalDueNow:   q.TotalDueNow.String(),
		IssuedAt:      issuedAt.UTC().Format(time.RFC3339),
	}
	for _, e := range q.Schedule {
		terms.Schedule = append(terms.Schedule, Installment{
			DueAt:    e.DueAt.String(),
			Coverage: e.CoverageLabel(),
			Amount:   e.Amount.String(),
		})
	}
	return terms, nil
}

const document = `RESIDENTIAL LEASE AGREEMENT
Reference: {{.BookingID}}
Issued: {{.IssuedAt}}

Premises: {{.PropertyTitle}}{{if .Address}}, {{.Address}}{{end}}
Tenant: {{.GuestName}} <{{.GuestEmail}}>

Term: move-in {{.MoveIn}}, checkout {{.Checkout}} ({{.TotalNights}} nights)
Monthly rate: {{.MonthlyRate}}

Due at move-in:
  Rent {{.MoveIn}} to {{.FirstPeriodTo}}: {{.FirstPeriod}}
{{- if .HasMoveInFee}}
  Move-in fee: {{.MoveInFee}}
{{- end}}
  Security deposit: {{.Deposit}}
  Total due at move-in: {{.TotalDueNow}}
{{if .Schedule}}
Payment schedule:
{{- range .Schedule}}
  {{.DueAt}}  {{.Coverage}}  {{.Amount}}
{{- end}}
{{else}}
No further rent payments are scheduled.
{{end}}
The deposit is refundable subject to the condition of the premises at checkout.
`

var documentTemplate = template.Must(template.New("lease").Parse(document))

// Render produces the plain-text contract.
func Render(terms Terms) ([]byte, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, terms); err != nil {
		return nil, fmt.Errorf("lease: render: %w", err)
	}
	return buf.Bytes(), nil
}

// ObjectKey is where the rendered document is archived.
func ObjectKey(bookingID booking.BookingID, issuedAt time.Time) string {
	return fmt.Sprintf("leases/%s/%s.txt", bookingID, issuedAt.UTC().Format("20060102T150405Z"))
}
