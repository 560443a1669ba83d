package booking

import (
	"rentdesk/internal/domain/pricing"
	"rentdesk/internal/domain/shared/calendar"
	"rentdesk/internal/domain/shared/money"
)

type PaymentKind string

const (
	PaymentFirstPeriod PaymentKind = "first_period"
	PaymentMoveInFee   PaymentKind = "move_in_fee"
	PaymentDeposit     PaymentKind = "deposit"
	PaymentMonthly     PaymentKind = "monthly"
)

type PaymentCategory string

const (
	CategoryDueNow  PaymentCategory = "due_now"
	CategoryMonthly PaymentCategory = "monthly"
)

type PaymentRecord struct {
	Kind     PaymentKind
	Category PaymentCategory
	DueAt    calendar.Date
	Label    string
	Amount   money.Money
}

// ExpandPayments lays the quote out as the payment plan charged against the booking:
// the due-now items dated at check-in, then one record per schedule entry.
func ExpandPayments(q pricing.Quote) []PaymentRecord {
	out := make([]PaymentRecord, 0, 3+len(q.Schedule))
	out = append(out, PaymentRecord{
		Kind:     PaymentFirstPeriod,
		Category: CategoryDueNow,
		DueAt:    q.CheckIn,
		Label:    q.CheckIn.ShortLabel() + " - " + q.FirstPeriodEnd.AddDays(-1).ShortLabel(),
		Amount:   q.FirstPeriodAmount,
	})
	if !q.MoveInFee.IsZero() {
		out = append(out, PaymentRecord{
			Kind:     PaymentMoveInFee,
			Category: CategoryDueNow,
			DueAt:    q.CheckIn,
			Label:    "Move-in fee",
			Amount:   q.MoveInFee,
		})
	}
	out = append(out, PaymentRecord{
		Kind:     PaymentDeposit,
		Category: CategoryDueNow,
		DueAt:    q.CheckIn,
		Label:    "Security deposit",
		Amount:   q.Deposit,
	})
	for _, entry := range q.Schedule {
		out = append(out, PaymentRecord{
			Kind:     PaymentMonthly,
			Category: CategoryMonthly,
			DueAt:    entry.DueAt,
			Label:    entry.CoverageLabel(),
			Amount:   entry.Amount,
		})
	}
	return out
}

// Total sums records of the given category.
func Total(records []PaymentRecord, category PaymentCategory, currency string) money.Money {
	total := money.Zero(currency)
	for _, r := range records {
		if r.Category == category {
			total.Amount += r.Amount.Amount
		}
	}
	return total
}
